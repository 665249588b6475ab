package driving

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// DocumentService manages knowledge-base documents for a company's bot.
// Uploads happen in an external collaborator; this service covers the
// lifecycle after the document row exists.
type DocumentService interface {
	// Get retrieves a document with its ingestion status.
	Get(ctx context.Context, companyID, botID, id string) (*domain.Document, error)

	// List retrieves documents for a bot, newest first.
	List(ctx context.Context, companyID, botID string, limit, offset int) ([]*domain.Document, error)

	// Enqueue hands a pending document to the ingestion queue.
	Enqueue(ctx context.Context, companyID, botID, id string) error

	// Reingest re-enqueues an existing document. Prior chunks are replaced
	// when the new run completes.
	Reingest(ctx context.Context, companyID, botID, id string) error

	// Delete removes the document and all of its chunks.
	Delete(ctx context.Context, companyID, botID, id string) error
}
