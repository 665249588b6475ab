package mocks

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockChatModel is a scripted ChatModel for testing the conversation loop.
// Responses are consumed in order, one per Generate call; the last response
// repeats once the script runs out.
type MockChatModel struct {
	Responses []*domain.ChatResponse

	// Requests records every request sent to the model
	Requests []domain.ChatRequest

	// GenerateFn overrides the scripted behavior when set
	GenerateFn func(req domain.ChatRequest) (*domain.ChatResponse, error)

	// Err is returned by every Generate call when set
	Err error

	calls int
}

// NewMockChatModel creates a mock that replies with the given responses in order.
func NewMockChatModel(responses ...*domain.ChatResponse) *MockChatModel {
	return &MockChatModel{Responses: responses}
}

func (m *MockChatModel) Generate(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.Requests = append(m.Requests, req)

	if m.GenerateFn != nil {
		return m.GenerateFn(req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return &domain.ChatResponse{Text: "mock response"}, nil
	}

	idx := m.calls
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.calls++
	return m.Responses[idx], nil
}

func (m *MockChatModel) Model() string {
	return "mock-chat-model"
}

func (m *MockChatModel) Close() error {
	return nil
}

// Calls returns how many times Generate was invoked.
func (m *MockChatModel) Calls() int {
	return len(m.Requests)
}
