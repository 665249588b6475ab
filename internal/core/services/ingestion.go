package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

const (
	// embedBatchSize bounds the number of chunk texts sent to the embedding
	// backend in one call.
	embedBatchSize = 10

	// ingestionLockTTL must outlive the slowest realistic ingestion run so a
	// crashed worker's lock eventually clears.
	ingestionLockTTL = 10 * time.Minute
)

// IngestionPipeline runs the full document ingestion flow:
//
//  1. Load the document row and take the per-document lock
//  2. Mark the document as processing
//  3. Parse the raw bytes into plain text
//  4. Chunk the text
//  5. Embed the chunk texts in batches
//  6. Replace the document's stored chunks
//  7. Mark the document as completed (or failed, with the error preserved)
//
// The per-document lock serializes concurrent runs for the same document:
// the delete-then-insert chunk rewrite in step 6 is not atomic, and two
// interleaved runs would corrupt the chunk set.
type IngestionPipeline struct {
	documents driven.DocumentStore
	chunks    driven.ChunkStore
	parsers   driven.ParserRegistry
	pipeline  driven.PostProcessorPipeline
	embedding driven.EmbeddingService
	lock      driven.DistributedLock
	logger    *slog.Logger
}

var _ driving.IngestionService = (*IngestionPipeline)(nil)

// IngestionPipelineConfig holds the dependencies for an IngestionPipeline.
type IngestionPipelineConfig struct {
	DocumentStore    driven.DocumentStore
	ChunkStore       driven.ChunkStore
	ParserRegistry   driven.ParserRegistry
	PostProcessors   driven.PostProcessorPipeline
	EmbeddingService driven.EmbeddingService
	Lock             driven.DistributedLock
	Logger           *slog.Logger
}

// NewIngestionPipeline creates an ingestion pipeline from the given config.
func NewIngestionPipeline(cfg IngestionPipelineConfig) *IngestionPipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionPipeline{
		documents: cfg.DocumentStore,
		chunks:    cfg.ChunkStore,
		parsers:   cfg.ParserRegistry,
		pipeline:  cfg.PostProcessors,
		embedding: cfg.EmbeddingService,
		lock:      cfg.Lock,
		logger:    logger,
	}
}

func (p *IngestionPipeline) ProcessDocument(ctx context.Context, documentID string, data []byte, fileType domain.FileType) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if !fileType.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}

	doc, err := p.documents.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	lockName := "ingest:" + documentID
	acquired, err := p.lock.Acquire(ctx, lockName, ingestionLockTTL)
	if err != nil {
		return fmt.Errorf("acquire ingestion lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: document %s", domain.ErrIngestionInProgress, documentID)
	}
	defer func() {
		if err := p.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			p.logger.Warn("failed to release ingestion lock", "document_id", documentID, "error", err)
		}
	}()

	logger := p.logger.With("document_id", documentID, "company_id", doc.CompanyID, "bot_id", doc.BotID)
	logger.Info("ingestion started", "file_type", fileType, "size_bytes", len(data))

	if err := p.documents.MarkProcessing(ctx, documentID, time.Now()); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	chunkCount, err := p.run(ctx, doc, data, fileType)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		if markErr := p.documents.MarkFailed(context.WithoutCancel(ctx), documentID, err.Error()); markErr != nil {
			logger.Error("failed to record ingestion failure", "error", markErr)
		}
		return err
	}

	if err := p.documents.MarkCompleted(ctx, documentID, chunkCount, time.Now()); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	logger.Info("ingestion completed", "chunks", chunkCount)
	return nil
}

// run performs the parse, chunk, embed and persist steps. The caller owns
// the document status transitions around it.
func (p *IngestionPipeline) run(ctx context.Context, doc *domain.Document, data []byte, fileType domain.FileType) (int, error) {
	text, err := p.parsers.Parse(data, fileType)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", fileType, err)
	}

	chunks := p.pipeline.Process(text)
	if len(chunks) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedding.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return 0, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(embeddings))
	}

	records := make([]*domain.Chunk, len(chunks))
	now := time.Now()
	for i, c := range chunks {
		records[i] = &domain.Chunk{
			ID:         domain.GenerateID(),
			CompanyID:  doc.CompanyID,
			BotID:      doc.BotID,
			DocumentID: doc.ID,
			Text:       c.Content,
			Index:      c.Position,
			Embedding:  embeddings[i],
			Metadata: map[string]string{
				"source": doc.Filename,
			},
			CreatedAt: now,
		}
	}

	// Replace semantics: a re-ingestion run must not leave chunks from the
	// previous run behind.
	if err := p.chunks.DeleteByDocument(ctx, doc.CompanyID, doc.ID); err != nil {
		return 0, fmt.Errorf("delete previous chunks: %w", err)
	}
	if err := p.chunks.SaveBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}

	return len(records), nil
}
