package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

// DefaultTopK is the number of chunks retrieved when the caller does not
// specify one.
const DefaultTopK = 30

// retrievalService embeds the query and ranks stored chunks by similarity.
type retrievalService struct {
	embedding driven.EmbeddingService
	chunks    driven.ChunkStore
	logger    *slog.Logger
}

var _ driving.RetrievalService = (*retrievalService)(nil)

// NewRetrievalService creates a retrieval service backed by the given
// embedding model and chunk store.
func NewRetrievalService(embedding driven.EmbeddingService, chunks driven.ChunkStore, logger *slog.Logger) driving.RetrievalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &retrievalService{
		embedding: embedding,
		chunks:    chunks,
		logger:    logger,
	}
}

func (s *retrievalService) Search(ctx context.Context, companyID, botID, query string, k int) ([]*domain.RankedChunk, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	embedding, err := s.embedding.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.chunks.Search(ctx, companyID, botID, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	s.logger.Debug("retrieval complete",
		"company_id", companyID,
		"bot_id", botID,
		"results", len(results))

	return results, nil
}

// FormatContext joins chunk texts in rank order, separated by blank lines,
// for inclusion in a system instruction.
func (s *retrievalService) FormatContext(results []*domain.RankedChunk) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
