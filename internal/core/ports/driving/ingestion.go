package driving

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// IngestionService runs the parse -> chunk -> embed -> persist pipeline.
type IngestionService interface {
	// ProcessDocument ingests the raw file bytes for an existing document row.
	// Its only observable side effects are document and chunk mutations: the
	// document ends completed with a chunk count, or failed with an error
	// message and zero chunks from the current run.
	ProcessDocument(ctx context.Context, documentID string, data []byte, fileType domain.FileType) error
}
