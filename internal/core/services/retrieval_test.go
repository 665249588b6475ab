package services

import (
	"context"
	"errors"
	"testing"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven/mocks"
)

func seedChunk(t *testing.T, store *mocks.MockChunkStore, embedding *mocks.MockEmbeddingService, companyID, botID, docID, text string, index int) {
	t.Helper()
	vectors, err := embedding.EmbedDocuments(context.Background(), []string{text})
	if err != nil {
		t.Fatalf("embed seed chunk: %v", err)
	}
	err = store.SaveBatch(context.Background(), []*domain.Chunk{{
		ID:         domain.GenerateID(),
		CompanyID:  companyID,
		BotID:      botID,
		DocumentID: docID,
		Text:       text,
		Index:      index,
		Embedding:  vectors[0],
	}})
	if err != nil {
		t.Fatalf("save seed chunk: %v", err)
	}
}

// TestSearch_EmptyQuery verifies blank queries are rejected
func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewRetrievalService(mocks.NewMockEmbeddingService(), mocks.NewMockChunkStore(), nil)

	_, err := svc.Search(context.Background(), "company-1", "bot-1", "   ", 5)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// TestSearch_MissingCompany verifies the tenant id is mandatory
func TestSearch_MissingCompany(t *testing.T) {
	svc := NewRetrievalService(mocks.NewMockEmbeddingService(), mocks.NewMockChunkStore(), nil)

	_, err := svc.Search(context.Background(), "", "bot-1", "refund policy", 5)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// TestSearch_TenantIsolation verifies a query scoped to one company never
// returns another company's chunks, even identical text.
func TestSearch_TenantIsolation(t *testing.T) {
	embedding := mocks.NewMockEmbeddingService()
	chunkStore := mocks.NewMockChunkStore()
	svc := NewRetrievalService(embedding, chunkStore, nil)
	ctx := context.Background()

	seedChunk(t, chunkStore, embedding, "company-a", "bot-1", "doc-a", "refund policy details", 0)
	seedChunk(t, chunkStore, embedding, "company-b", "bot-1", "doc-b", "refund policy details", 0)
	seedChunk(t, chunkStore, embedding, "company-b", "bot-1", "doc-b", "shipping information", 1)

	results, err := svc.Search(ctx, "company-a", "bot-1", "refund policy", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result for company-a, got %d", len(results))
	}
	if results[0].Text != "refund policy details" {
		t.Errorf("unexpected result text: %q", results[0].Text)
	}
}

// TestSearch_BotScope verifies the bot filter narrows results when set
func TestSearch_BotScope(t *testing.T) {
	embedding := mocks.NewMockEmbeddingService()
	chunkStore := mocks.NewMockChunkStore()
	svc := NewRetrievalService(embedding, chunkStore, nil)
	ctx := context.Background()

	seedChunk(t, chunkStore, embedding, "company-a", "bot-1", "doc-1", "bot one knowledge", 0)
	seedChunk(t, chunkStore, embedding, "company-a", "bot-2", "doc-2", "bot two knowledge", 0)

	results, err := svc.Search(ctx, "company-a", "bot-1", "knowledge", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result for bot-1, got %d", len(results))
	}

	// Empty bot id searches the whole company.
	results, err = svc.Search(ctx, "company-a", "", "knowledge", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results company-wide, got %d", len(results))
	}
}

// TestSearch_EmbeddingFailure verifies upstream failures propagate
func TestSearch_EmbeddingFailure(t *testing.T) {
	embedding := mocks.NewMockEmbeddingService()
	embedding.SetFailNext(true)
	svc := NewRetrievalService(embedding, mocks.NewMockChunkStore(), nil)

	_, err := svc.Search(context.Background(), "company-a", "bot-1", "query", 5)
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("expected ErrEmbeddingService, got %v", err)
	}
}

// TestFormatContext verifies rank-order joining and blank handling
func TestFormatContext(t *testing.T) {
	svc := NewRetrievalService(mocks.NewMockEmbeddingService(), mocks.NewMockChunkStore(), nil)

	got := svc.FormatContext([]*domain.RankedChunk{
		{Text: "first chunk", Similarity: 0.9},
		{Text: "  ", Similarity: 0.8},
		{Text: "second chunk", Similarity: 0.7},
	})
	want := "first chunk\n\nsecond chunk"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if svc.FormatContext(nil) != "" {
		t.Error("expected empty context for no results")
	}
}
