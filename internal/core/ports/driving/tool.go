package driving

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ToolService manages a bot's external tool definitions.
type ToolService interface {
	// Create validates and stores a new tool definition. The normalized
	// function name must be unique among the bot's tools.
	Create(ctx context.Context, def *domain.ToolDefinition) error

	// Update validates and stores changes to an existing definition.
	Update(ctx context.Context, def *domain.ToolDefinition) error

	// Get retrieves one definition.
	Get(ctx context.Context, companyID, id string) (*domain.ToolDefinition, error)

	// List retrieves all definitions for a company's bot.
	List(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error)

	// Delete removes a definition.
	Delete(ctx context.Context, companyID, id string) error
}
