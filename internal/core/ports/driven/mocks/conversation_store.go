package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// MockConversationStore is a mock implementation of ConversationStore for
// testing. It enforces the one-active-conversation-per-tuple invariant the
// same way the partial unique index does.
type MockConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
	messages      map[string][]*domain.Message

	// CreateErr makes Create fail when set (after the conflict check)
	CreateErr error
}

// NewMockConversationStore creates a new MockConversationStore
func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]*domain.Message),
	}
}

func (m *MockConversationStore) FindActive(ctx context.Context, companyID, botID, visitorID string, channel domain.Channel) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conv := range m.conversations {
		if conv.CompanyID == companyID && conv.BotID == botID &&
			conv.VisitorID == visitorID && conv.Channel == channel &&
			conv.Status == domain.ConversationActive {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conv.Status == domain.ConversationActive {
		for _, existing := range m.conversations {
			if existing.CompanyID == conv.CompanyID && existing.BotID == conv.BotID &&
				existing.VisitorID == conv.VisitorID && existing.Channel == conv.Channel &&
				existing.Status == domain.ConversationActive {
				return domain.ErrAlreadyExists
			}
		}
	}
	if m.CreateErr != nil {
		return m.CreateErr
	}

	copied := *conv
	m.conversations[conv.ID] = &copied
	return nil
}

func (m *MockConversationStore) Get(ctx context.Context, companyID, id string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	if !ok || conv.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (m *MockConversationStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[msg.ConversationID]
	if !ok {
		return domain.ErrNotFound
	}

	copied := *msg
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &copied)
	at := msg.CreatedAt
	conv.LastMessageAt = &at
	conv.UpdatedAt = time.Now()
	return nil
}

func (m *MockConversationStore) GetMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*domain.Message, len(msgs))
	for i, msg := range msgs {
		copied := *msg
		out[i] = &copied
	}
	return out, nil
}

func (m *MockConversationStore) List(ctx context.Context, companyID string, filter domain.ConversationFilter, page, limit int) (*domain.ConversationPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var matched []*domain.Conversation
	for _, conv := range m.conversations {
		if conv.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && conv.Status != filter.Status {
			continue
		}
		if filter.Channel != "" && conv.Channel != filter.Channel {
			continue
		}
		if filter.Visitor != "" && !strings.Contains(conv.VisitorID, filter.Visitor) {
			continue
		}
		matched = append(matched, conv)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.After(matched[j].UpdatedAt) })

	total := len(matched)
	offset := (page - 1) * limit
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]*domain.ConversationPreview, 0, end-offset)
	for _, conv := range matched[offset:end] {
		copied := *conv
		preview := &domain.ConversationPreview{Conversation: &copied}
		if msgs := m.messages[conv.ID]; len(msgs) > 0 {
			last := *msgs[len(msgs)-1]
			preview.LastMessage = &last
		}
		items = append(items, preview)
	}

	return &domain.ConversationPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
	}, nil
}

func (m *MockConversationStore) UpdateStatus(ctx context.Context, companyID, id string, status domain.ConversationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok || conv.CompanyID != companyID {
		return domain.ErrNotFound
	}
	conv.Status = status
	conv.UpdatedAt = time.Now()
	return nil
}

// MessageCount returns how many messages a conversation holds, for assertions.
func (m *MockConversationStore) MessageCount(conversationID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[conversationID])
}
