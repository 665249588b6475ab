package driving

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// RetrievalService embeds a query and ranks a company's chunks by similarity.
type RetrievalService interface {
	// Search returns the top k chunks for the query, scoped to the company
	// (and bot when non-empty). k <= 0 selects the default.
	Search(ctx context.Context, companyID, botID, query string, k int) ([]*domain.RankedChunk, error)

	// FormatContext concatenates chunk texts in rank order for prompt inclusion.
	FormatContext(results []*domain.RankedChunk) string
}
