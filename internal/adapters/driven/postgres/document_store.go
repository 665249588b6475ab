package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, company_id, bot_id, filename, file_type, file_size, storage_path,
	status, chunk_count, error, ingestion_started_at, ingestion_completed_at, created_at, updated_at`

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			file_type = EXCLUDED.file_type,
			file_size = EXCLUDED.file_size,
			storage_path = EXCLUDED.storage_path,
			status = EXCLUDED.status,
			chunk_count = EXCLUDED.chunk_count,
			error = EXCLUDED.error,
			ingestion_started_at = EXCLUDED.ingestion_started_at,
			ingestion_completed_at = EXCLUDED.ingestion_completed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.CompanyID,
		doc.BotID,
		doc.Filename,
		doc.FileType,
		doc.FileSize,
		doc.StoragePath,
		doc.Status,
		doc.ChunkCount,
		doc.Error,
		NullTime(doc.IngestionStartedAt),
		NullTime(doc.IngestionCompletedAt),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetScoped retrieves a document owned by the given company and bot
func (s *DocumentStore) GetScoped(ctx context.Context, companyID, botID, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND company_id = $2 AND bot_id = $3`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, id, companyID, botID))
}

// ListByBot retrieves documents for a company's bot, newest first
func (s *DocumentStore) ListByBot(ctx context.Context, companyID, botID string, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE company_id = $1 AND bot_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.db.QueryContext(ctx, query, companyID, botID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// MarkProcessing transitions the document to processing and stamps the start time
func (s *DocumentStore) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	query := `
		UPDATE documents
		SET status = $2, ingestion_started_at = $3, error = '', updated_at = now()
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, query, id, domain.DocumentStatusProcessing, startedAt)
}

// MarkCompleted transitions the document to completed with its chunk count
func (s *DocumentStore) MarkCompleted(ctx context.Context, id string, chunkCount int, completedAt time.Time) error {
	query := `
		UPDATE documents
		SET status = $2, chunk_count = $3, ingestion_completed_at = $4, updated_at = now()
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, query, id, domain.DocumentStatusCompleted, chunkCount, completedAt)
}

// MarkFailed transitions the document to failed and stores the error message
func (s *DocumentStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE documents
		SET status = $2, error = $3, updated_at = now()
		WHERE id = $1
	`
	return s.execExpectingRow(ctx, query, id, domain.DocumentStatusFailed, errMsg)
}

// Delete removes a document row. Chunk rows cascade.
func (s *DocumentStore) Delete(ctx context.Context, companyID, botID, id string) error {
	query := `DELETE FROM documents WHERE id = $1 AND company_id = $2 AND bot_id = $3`
	return s.execExpectingRow(ctx, query, id, companyID, botID)
}

func (s *DocumentStore) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore) scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.BotID,
		&doc.Filename,
		&doc.FileType,
		&doc.FileSize,
		&doc.StoragePath,
		&doc.Status,
		&doc.ChunkCount,
		&doc.Error,
		&startedAt,
		&completedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.IngestionStartedAt = TimePtr(startedAt)
	doc.IngestionCompletedAt = TimePtr(completedAt)

	return &doc, nil
}
