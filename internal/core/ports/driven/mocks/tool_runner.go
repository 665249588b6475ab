package mocks

import (
	"context"
	"sync"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockToolRunner is a scripted ToolRunner for testing the tool-calling loop.
type MockToolRunner struct {
	mu sync.Mutex

	// RunnerName is the function-call token this runner answers to
	RunnerName string

	// Result is returned by Execute when ExecuteFn is not set
	Result string

	// ExecuteFn overrides the scripted result when set
	ExecuteFn func(args map[string]any) string

	// Calls records the arguments of every Execute invocation
	Calls []map[string]any
}

// NewMockToolRunner creates a runner that returns result for every call.
func NewMockToolRunner(name, result string) *MockToolRunner {
	return &MockToolRunner{RunnerName: name, Result: result}
}

func (m *MockToolRunner) Name() string {
	return m.RunnerName
}

func (m *MockToolRunner) Declaration() domain.ToolDeclaration {
	return domain.ToolDeclaration{
		Name:        m.RunnerName,
		Description: "mock tool " + m.RunnerName,
	}
}

func (m *MockToolRunner) Execute(ctx context.Context, args map[string]any) string {
	m.mu.Lock()
	m.Calls = append(m.Calls, args)
	m.mu.Unlock()

	if m.ExecuteFn != nil {
		return m.ExecuteFn(args)
	}
	return m.Result
}
