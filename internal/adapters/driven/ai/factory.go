package ai

import (
	"context"
	"fmt"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Provider names accepted by the factory.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// EmbeddingConfig selects and configures an embedding provider.
type EmbeddingConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // OpenAI-compatible endpoints only
}

// ChatConfig selects and configures the generative model.
type ChatConfig struct {
	Provider string
	APIKey   string
	Model    string
}

// NewEmbeddingService creates an embedding service for the configured provider.
func NewEmbeddingService(ctx context.Context, cfg EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiEmbedding(ctx, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		return NewOpenAIEmbedding(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}

// NewChatModel creates a chat model for the configured provider.
// Only Gemini supports the function-calling loop today.
func NewChatModel(ctx context.Context, cfg ChatConfig) (driven.ChatModel, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiChat(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}
