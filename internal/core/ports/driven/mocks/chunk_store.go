package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockChunkStore is a mock implementation of ChunkStore for testing.
// Search computes real cosine similarity over the stored embeddings so
// retrieval tests exercise actual ranking behavior.
type MockChunkStore struct {
	mu     sync.RWMutex
	chunks map[string]*domain.Chunk

	// SaveErr makes SaveBatch fail when set
	SaveErr error

	// SearchErr makes Search fail when set
	SearchErr error
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks: make(map[string]*domain.Chunk),
	}
}

func (m *MockChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
	}
	return nil
}

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, chunk := range m.chunks {
		if chunk.CompanyID == companyID && chunk.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *MockChunkStore) CountByDocument(ctx context.Context, companyID, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, chunk := range m.chunks {
		if chunk.CompanyID == companyID && chunk.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

func (m *MockChunkStore) Search(ctx context.Context, companyID, botID string, queryEmbedding []float32, k int) ([]*domain.RankedChunk, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*domain.RankedChunk
	for _, chunk := range m.chunks {
		if chunk.CompanyID != companyID {
			continue
		}
		if botID != "" && chunk.BotID != botID {
			continue
		}
		results = append(results, &domain.RankedChunk{
			ID:         chunk.ID,
			Text:       chunk.Text,
			Metadata:   chunk.Metadata,
			Similarity: cosineSimilarity(queryEmbedding, chunk.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// All returns every stored chunk, for assertions.
func (m *MockChunkStore) All() []*domain.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Chunk, 0, len(m.chunks))
	for _, chunk := range m.chunks {
		out = append(out, chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
