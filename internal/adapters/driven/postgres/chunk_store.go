package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pgvector/pgvector-go"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL with pgvector.
// Chunk text and its embedding live in the same row, so similarity search
// ranks and filters in a single query.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveBatch inserts all chunk records in a transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO embeddings (id, company_id, bot_id, document_id, chunk_index, chunk_text, embedding, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			metadataJSON, err := json.Marshal(chunk.Metadata)
			if err != nil {
				return err
			}

			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				chunk.CompanyID,
				chunk.BotID,
				chunk.DocumentID,
				chunk.Index,
				chunk.Text,
				pgvector.NewVector(chunk.Embedding),
				metadataJSON,
				chunk.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteByDocument deletes all chunks for a document owned by the company
func (s *ChunkStore) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	query := `DELETE FROM embeddings WHERE company_id = $1 AND document_id = $2`
	_, err := s.db.ExecContext(ctx, query, companyID, documentID)
	return err
}

// CountByDocument returns the number of chunks stored for a document
func (s *ChunkStore) CountByDocument(ctx context.Context, companyID, documentID string) (int, error) {
	query := `SELECT COUNT(*) FROM embeddings WHERE company_id = $1 AND document_id = $2`
	var count int
	err := s.db.QueryRowContext(ctx, query, companyID, documentID).Scan(&count)
	return count, err
}

// Search ranks the company's chunks by cosine similarity to the query
// embedding. The tenant predicates are part of the indexed query, not a
// post-filter, so no foreign chunk is ever ranked.
func (s *ChunkStore) Search(ctx context.Context, companyID, botID string, queryEmbedding []float32, k int) ([]*domain.RankedChunk, error) {
	query := `
		SELECT id, chunk_text, metadata, 1 - (embedding <=> $1) AS similarity
		FROM embeddings
		WHERE company_id = $2 AND ($3 = '' OR bot_id = $3)
		ORDER BY embedding <=> $1
		LIMIT $4
	`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(queryEmbedding), companyID, botID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.RankedChunk
	for rows.Next() {
		var rc domain.RankedChunk
		var metadataJSON []byte

		if err := rows.Scan(&rc.ID, &rc.Text, &metadataJSON, &rc.Similarity); err != nil {
			return nil, err
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rc.Metadata); err != nil {
				return nil, err
			}
		}

		results = append(results, &rc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
