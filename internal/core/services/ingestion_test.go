package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven/mocks"
	"github.com/botmesh/botmesh-core/internal/postprocessors"
)

// Test helper to create an IngestionPipeline with mocks and the real chunker
func createTestIngestionPipeline(t *testing.T) (
	*IngestionPipeline,
	*mocks.MockDocumentStore,
	*mocks.MockChunkStore,
	*mocks.MockParserRegistry,
	*mocks.MockEmbeddingService,
	*mocks.MockDistributedLock,
) {
	t.Helper()

	documentStore := mocks.NewMockDocumentStore()
	chunkStore := mocks.NewMockChunkStore()
	parsers := mocks.NewMockParserRegistry()
	embedding := mocks.NewMockEmbeddingService()
	lock := mocks.NewMockDistributedLock()

	pipeline := NewIngestionPipeline(IngestionPipelineConfig{
		DocumentStore:    documentStore,
		ChunkStore:       chunkStore,
		ParserRegistry:   parsers,
		PostProcessors:   postprocessors.DefaultPipeline(),
		EmbeddingService: embedding,
		Lock:             lock,
	})

	return pipeline, documentStore, chunkStore, parsers, embedding, lock
}

func saveTestDocument(t *testing.T, store *mocks.MockDocumentStore) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:        "doc-1",
		CompanyID: "company-1",
		BotID:     "bot-1",
		Filename:  "handbook.txt",
		FileType:  domain.FileTypeText,
		Status:    domain.DocumentStatusPending,
		CreatedAt: time.Now(),
	}
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("save document: %v", err)
	}
	return doc
}

// TestProcessDocument_Success ingests a 3000-character text document and
// verifies status, chunk sizing and tenant stamping.
func TestProcessDocument_Success(t *testing.T) {
	pipeline, documentStore, chunkStore, _, _, _ := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 66)
	err := pipeline.ProcessDocument(ctx, "doc-1", []byte(content), domain.FileTypeText)
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	doc, _ := documentStore.Get(ctx, "doc-1")
	if doc.Status != domain.DocumentStatusCompleted {
		t.Fatalf("expected completed status, got %s", doc.Status)
	}
	if doc.ChunkCount < 3 || doc.ChunkCount > 4 {
		t.Errorf("expected 3-4 chunks for 3000 chars, got %d", doc.ChunkCount)
	}
	if doc.IngestionStartedAt == nil || doc.IngestionCompletedAt == nil {
		t.Error("expected ingestion timestamps to be set")
	}

	chunks := chunkStore.All()
	if len(chunks) != doc.ChunkCount {
		t.Fatalf("chunk count mismatch: document says %d, store has %d", doc.ChunkCount, len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("expected contiguous indices, chunk %d has index %d", i, c.Index)
		}
		if len(c.Text) > postprocessors.DefaultChunkSize {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(c.Text))
		}
		if c.CompanyID != "company-1" || c.BotID != "bot-1" {
			t.Errorf("chunk %d missing tenant stamp: company=%s bot=%s", i, c.CompanyID, c.BotID)
		}
		if len(c.Embedding) == 0 {
			t.Errorf("chunk %d has no embedding", i)
		}
		if c.Metadata["source"] != "handbook.txt" {
			t.Errorf("chunk %d missing source metadata: %v", i, c.Metadata)
		}
	}
}

// TestProcessDocument_EmptyDocument verifies a blank buffer ends failed with
// a preserved error message and zero persisted chunks.
func TestProcessDocument_EmptyDocument(t *testing.T) {
	pipeline, documentStore, chunkStore, _, _, _ := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	err := pipeline.ProcessDocument(ctx, "doc-1", []byte("   \n\n  "), domain.FileTypeText)
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}

	doc, _ := documentStore.Get(ctx, "doc-1")
	if doc.Status != domain.DocumentStatusFailed {
		t.Errorf("expected failed status, got %s", doc.Status)
	}
	if doc.Error == "" {
		t.Error("expected error message to be preserved")
	}
	if len(chunkStore.All()) != 0 {
		t.Error("expected zero persisted chunks")
	}
}

// TestProcessDocument_ParseFailure verifies a parser error marks the document failed
func TestProcessDocument_ParseFailure(t *testing.T) {
	pipeline, documentStore, _, parsers, _, _ := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	parsers.Err = domain.ErrParseFailure

	err := pipeline.ProcessDocument(ctx, "doc-1", []byte("content"), domain.FileTypeText)
	if !errors.Is(err, domain.ErrParseFailure) {
		t.Fatalf("expected ErrParseFailure, got %v", err)
	}

	doc, _ := documentStore.Get(ctx, "doc-1")
	if doc.Status != domain.DocumentStatusFailed {
		t.Errorf("expected failed status, got %s", doc.Status)
	}
}

// TestProcessDocument_EmbeddingFailure verifies an embedding outage marks the
// document failed without persisting partial chunks.
func TestProcessDocument_EmbeddingFailure(t *testing.T) {
	pipeline, documentStore, chunkStore, _, embedding, _ := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	embedding.SetFailNext(true)

	err := pipeline.ProcessDocument(ctx, "doc-1", []byte("some document content"), domain.FileTypeText)
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("expected ErrEmbeddingService, got %v", err)
	}

	doc, _ := documentStore.Get(ctx, "doc-1")
	if doc.Status != domain.DocumentStatusFailed {
		t.Errorf("expected failed status, got %s", doc.Status)
	}
	if len(chunkStore.All()) != 0 {
		t.Error("expected no chunks persisted after embedding failure")
	}
}

// TestProcessDocument_LockHeld verifies a concurrent run is rejected without
// touching the document status.
func TestProcessDocument_LockHeld(t *testing.T) {
	pipeline, documentStore, _, _, _, lock := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	if acquired, _ := lock.Acquire(ctx, "ingest:doc-1", time.Minute); !acquired {
		t.Fatal("pre-acquire failed")
	}

	err := pipeline.ProcessDocument(ctx, "doc-1", []byte("content"), domain.FileTypeText)
	if !errors.Is(err, domain.ErrIngestionInProgress) {
		t.Fatalf("expected ErrIngestionInProgress, got %v", err)
	}

	doc, _ := documentStore.Get(ctx, "doc-1")
	if doc.Status != domain.DocumentStatusPending {
		t.Errorf("expected status untouched, got %s", doc.Status)
	}
}

// TestProcessDocument_LockReleased verifies the lock is freed after a run
func TestProcessDocument_LockReleased(t *testing.T) {
	pipeline, documentStore, _, _, _, lock := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	if err := pipeline.ProcessDocument(ctx, "doc-1", []byte("some content to ingest"), domain.FileTypeText); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if lock.IsHeld("ingest:doc-1") {
		t.Error("expected ingestion lock to be released")
	}
}

// TestProcessDocument_Reingestion verifies a second run replaces the first
// run's chunks with no orphans.
func TestProcessDocument_Reingestion(t *testing.T) {
	pipeline, documentStore, chunkStore, _, _, _ := createTestIngestionPipeline(t)
	ctx := context.Background()
	saveTestDocument(t, documentStore)

	content := []byte(strings.Repeat("Reingestion keeps the chunk set clean. ", 60))
	if err := pipeline.ProcessDocument(ctx, "doc-1", content, domain.FileTypeText); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	firstCount := len(chunkStore.All())

	if err := pipeline.ProcessDocument(ctx, "doc-1", content, domain.FileTypeText); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if got := len(chunkStore.All()); got != firstCount {
		t.Errorf("expected %d chunks after re-ingestion, got %d", firstCount, got)
	}
	seen := make(map[int]bool)
	for _, c := range chunkStore.All() {
		if seen[c.Index] {
			t.Errorf("duplicate chunk index %d after re-ingestion", c.Index)
		}
		seen[c.Index] = true
	}
}

// TestProcessDocument_UnknownDocument verifies a missing row fails fast
func TestProcessDocument_UnknownDocument(t *testing.T) {
	pipeline, _, _, _, _, _ := createTestIngestionPipeline(t)

	err := pipeline.ProcessDocument(context.Background(), "missing", []byte("x"), domain.FileTypeText)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestProcessDocument_InvalidFileType verifies unsupported types are rejected
func TestProcessDocument_InvalidFileType(t *testing.T) {
	pipeline, documentStore, _, _, _, _ := createTestIngestionPipeline(t)
	saveTestDocument(t, documentStore)

	err := pipeline.ProcessDocument(context.Background(), "doc-1", []byte("x"), domain.FileType("csv"))
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
