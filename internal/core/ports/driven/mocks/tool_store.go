package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockToolStore is a mock implementation of ToolStore for testing
type MockToolStore struct {
	mu    sync.RWMutex
	tools map[string]*domain.ToolDefinition
}

// NewMockToolStore creates a new MockToolStore
func NewMockToolStore(defs ...*domain.ToolDefinition) *MockToolStore {
	m := &MockToolStore{tools: make(map[string]*domain.ToolDefinition)}
	for _, def := range defs {
		m.tools[def.ID] = def
	}
	return m
}

func (m *MockToolStore) Save(ctx context.Context, def *domain.ToolDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *def
	m.tools[def.ID] = &copied
	return nil
}

func (m *MockToolStore) Get(ctx context.Context, companyID, id string) (*domain.ToolDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.tools[id]
	if !ok || def.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	copied := *def
	return &copied, nil
}

func (m *MockToolStore) ListActive(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error) {
	return m.list(companyID, botID, true), nil
}

func (m *MockToolStore) ListByBot(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error) {
	return m.list(companyID, botID, false), nil
}

func (m *MockToolStore) Delete(ctx context.Context, companyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.tools[id]
	if !ok || def.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(m.tools, id)
	return nil
}

func (m *MockToolStore) list(companyID, botID string, activeOnly bool) []*domain.ToolDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var defs []*domain.ToolDefinition
	for _, def := range m.tools {
		if def.CompanyID != companyID || def.BotID != botID {
			continue
		}
		if activeOnly && !def.Active {
			continue
		}
		copied := *def
		defs = append(defs, &copied)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
