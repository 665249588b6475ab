package driven

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ToolRunner is one callable tool built from a ToolDefinition.
type ToolRunner interface {
	// Name returns the call-safe function name the model invokes the tool by.
	Name() string

	// Declaration returns the function declaration the model sees.
	Declaration() domain.ToolDeclaration

	// Execute calls the configured endpoint with the model-extracted arguments.
	// Failures are returned as a structured JSON payload, never as an error:
	// a failing tool is a conversational event, not an orchestrator fault.
	Execute(ctx context.Context, args map[string]any) string
}

// ToolRunnerFactory builds a runner for a tool definition. The orchestrator
// depends on this factory so tests can substitute fakes for the HTTP runner.
type ToolRunnerFactory func(def *domain.ToolDefinition) ToolRunner
