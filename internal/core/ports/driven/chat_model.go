package driven

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ChatModel is the generative model boundary. One call sends the system
// instruction, the transcript so far and the tool declarations, and returns
// the model's text plus any tool-call requests.
type ChatModel interface {
	// Generate produces the next model turn for the given request.
	Generate(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)

	// Model returns the model name being used
	Model() string

	// Close releases resources held by the chat model client
	Close() error
}
