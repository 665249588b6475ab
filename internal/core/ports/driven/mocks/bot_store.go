package mocks

import (
	"context"
	"sync"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockBotStore is a mock implementation of BotStore for testing
type MockBotStore struct {
	mu   sync.RWMutex
	bots map[string]*domain.Bot
}

// NewMockBotStore creates a new MockBotStore
func NewMockBotStore(bots ...*domain.Bot) *MockBotStore {
	m := &MockBotStore{bots: make(map[string]*domain.Bot)}
	for _, bot := range bots {
		m.Add(bot)
	}
	return m
}

// Add registers a bot.
func (m *MockBotStore) Add(bot *domain.Bot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bots[bot.ID] = bot
}

func (m *MockBotStore) Get(ctx context.Context, companyID, botID string) (*domain.Bot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bot, ok := m.bots[botID]
	if !ok || bot.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return bot, nil
}
