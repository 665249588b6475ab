package driven

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ChunkStore persists chunks with their embeddings and answers similarity
// queries. The company id (and bot id where present) are required parameters
// on every access path so a missing tenant filter cannot compile.
type ChunkStore interface {
	// SaveBatch inserts all chunk records in one transaction.
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// DeleteByDocument deletes all chunks for a document owned by the company.
	DeleteByDocument(ctx context.Context, companyID, documentID string) error

	// CountByDocument returns the number of chunks stored for a document.
	CountByDocument(ctx context.Context, companyID, documentID string) (int, error)

	// Search ranks the company's chunks (narrowed to botID when non-empty) by
	// cosine similarity to the query embedding and returns the top k.
	Search(ctx context.Context, companyID, botID string, queryEmbedding []float32, k int) ([]*domain.RankedChunk, error)
}
