package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

// documentService manages the document lifecycle after upload. Ingestion
// itself is queued work; this service only hands documents to the queue.
type documentService struct {
	documents driven.DocumentStore
	chunks    driven.ChunkStore
	queue     driven.TaskQueue
	logger    *slog.Logger
}

var _ driving.DocumentService = (*documentService)(nil)

// NewDocumentService creates a document service backed by the given stores
// and task queue.
func NewDocumentService(documents driven.DocumentStore, chunks driven.ChunkStore, queue driven.TaskQueue, logger *slog.Logger) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documents: documents,
		chunks:    chunks,
		queue:     queue,
		logger:    logger,
	}
}

func (s *documentService) Get(ctx context.Context, companyID, botID, id string) (*domain.Document, error) {
	return s.documents.GetScoped(ctx, companyID, botID, id)
}

func (s *documentService) List(ctx context.Context, companyID, botID string, limit, offset int) ([]*domain.Document, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.documents.ListByBot(ctx, companyID, botID, limit, offset)
}

func (s *documentService) Enqueue(ctx context.Context, companyID, botID, id string) error {
	doc, err := s.documents.GetScoped(ctx, companyID, botID, id)
	if err != nil {
		return err
	}
	if doc.Status == domain.DocumentStatusProcessing {
		return fmt.Errorf("%w: document %s", domain.ErrIngestionInProgress, id)
	}
	return s.enqueueIngest(ctx, doc)
}

func (s *documentService) Reingest(ctx context.Context, companyID, botID, id string) error {
	doc, err := s.documents.GetScoped(ctx, companyID, botID, id)
	if err != nil {
		return err
	}
	if doc.Status == domain.DocumentStatusProcessing {
		return fmt.Errorf("%w: document %s", domain.ErrIngestionInProgress, id)
	}
	// Reset to pending so the dashboard shows the new run's progress rather
	// than the previous outcome.
	doc.Status = domain.DocumentStatusPending
	doc.Error = ""
	if err := s.documents.Save(ctx, doc); err != nil {
		return fmt.Errorf("reset document status: %w", err)
	}
	return s.enqueueIngest(ctx, doc)
}

func (s *documentService) Delete(ctx context.Context, companyID, botID, id string) error {
	doc, err := s.documents.GetScoped(ctx, companyID, botID, id)
	if err != nil {
		return err
	}
	// Chunks go first: a crash between the two deletes leaves an orphaned
	// document row, not orphaned vectors answering searches.
	if err := s.chunks.DeleteByDocument(ctx, companyID, doc.ID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.documents.Delete(ctx, companyID, botID, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info("document deleted", "document_id", doc.ID, "company_id", companyID, "bot_id", botID)
	return nil
}

func (s *documentService) enqueueIngest(ctx context.Context, doc *domain.Document) error {
	task := domain.NewIngestDocumentTask(doc.CompanyID, doc.ID, doc.FileType)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue ingestion task: %w", err)
	}
	s.logger.Info("ingestion task enqueued",
		"task_id", task.ID,
		"document_id", doc.ID,
		"company_id", doc.CompanyID)
	return nil
}
