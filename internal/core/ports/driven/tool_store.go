package driven

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ToolStore persists tool definitions (credentials encrypted at rest).
type ToolStore interface {
	// Save creates or updates a tool definition
	Save(ctx context.Context, def *domain.ToolDefinition) error

	// Get retrieves a tool definition owned by the given company.
	Get(ctx context.Context, companyID, id string) (*domain.ToolDefinition, error)

	// ListActive returns the active definitions for a company's bot, with
	// credentials decrypted for execution.
	ListActive(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error)

	// ListByBot returns all definitions for a company's bot.
	ListByBot(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error)

	// Delete removes a tool definition.
	Delete(ctx context.Context, companyID, id string) error
}
