package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document

	// SaveErr makes Save fail when set
	SaveErr error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		docs: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *MockDocumentStore) GetScoped(ctx context.Context, companyID, botID, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok || doc.CompanyID != companyID || doc.BotID != botID {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *MockDocumentStore) ListByBot(ctx context.Context, companyID, botID string, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []*domain.Document
	for _, doc := range m.docs {
		if doc.CompanyID == companyID && doc.BotID == botID {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })

	if offset >= len(docs) {
		return nil, nil
	}
	docs = docs[offset:]
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockDocumentStore) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	return m.update(id, func(doc *domain.Document) {
		doc.Status = domain.DocumentStatusProcessing
		doc.IngestionStartedAt = &startedAt
		doc.Error = ""
	})
}

func (m *MockDocumentStore) MarkCompleted(ctx context.Context, id string, chunkCount int, completedAt time.Time) error {
	return m.update(id, func(doc *domain.Document) {
		doc.Status = domain.DocumentStatusCompleted
		doc.ChunkCount = chunkCount
		doc.IngestionCompletedAt = &completedAt
	})
}

func (m *MockDocumentStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return m.update(id, func(doc *domain.Document) {
		doc.Status = domain.DocumentStatusFailed
		doc.Error = errMsg
	})
}

func (m *MockDocumentStore) Delete(ctx context.Context, companyID, botID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.CompanyID != companyID || doc.BotID != botID {
		return domain.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MockDocumentStore) update(id string, fn func(*domain.Document)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(doc)
	doc.UpdatedAt = time.Now()
	return nil
}
