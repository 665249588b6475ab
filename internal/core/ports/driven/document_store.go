package driven

import (
	"context"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// DocumentStore handles document persistence. Every read and write is scoped
// by company id; lookups used by the ingestion worker take the id alone
// because the task payload is already tenant-stamped.
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetScoped retrieves a document owned by the given company and bot.
	// Returns domain.ErrNotFound for documents of other tenants.
	GetScoped(ctx context.Context, companyID, botID, id string) (*domain.Document, error)

	// ListByBot retrieves documents for a company's bot, newest first.
	ListByBot(ctx context.Context, companyID, botID string, limit, offset int) ([]*domain.Document, error)

	// MarkProcessing transitions the document to processing and stamps the start time.
	MarkProcessing(ctx context.Context, id string, startedAt time.Time) error

	// MarkCompleted transitions the document to completed with its chunk count.
	MarkCompleted(ctx context.Context, id string, chunkCount int, completedAt time.Time) error

	// MarkFailed transitions the document to failed and stores the error message.
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// Delete removes a document row. Chunk removal is the caller's job.
	Delete(ctx context.Context, companyID, botID, id string) error
}

// BotStore reads bot personas. Bot management is dashboard scope; the core
// only needs lookups.
type BotStore interface {
	// Get retrieves a bot owned by the given company.
	Get(ctx context.Context, companyID, botID string) (*domain.Bot, error)
}
