package driving

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ChatbotService is the top-level RAG entry point channel adapters call.
type ChatbotService interface {
	// Execute resolves the conversation, retrieves context, runs the bounded
	// tool-calling exchange with the generative model and persists the answer.
	Execute(ctx context.Context, companyID, botID, visitorID, userQuery string, channel domain.Channel) (*domain.ChatResult, error)
}
