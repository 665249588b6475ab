package driven

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ConversationStore persists conversations and their append-only messages.
type ConversationStore interface {
	// FindActive returns the active conversation for the full identity tuple,
	// or domain.ErrNotFound if none exists.
	FindActive(ctx context.Context, companyID, botID, visitorID string, channel domain.Channel) (*domain.Conversation, error)

	// Create inserts a new conversation. Returns domain.ErrAlreadyExists if an
	// active conversation for the same tuple was created concurrently; callers
	// handle the conflict by re-reading.
	Create(ctx context.Context, conv *domain.Conversation) error

	// Get retrieves a conversation owned by the given company.
	Get(ctx context.Context, companyID, id string) (*domain.Conversation, error)

	// AppendMessage appends a message and bumps the conversation's last activity.
	AppendMessage(ctx context.Context, msg *domain.Message) error

	// GetMessages returns messages in ascending creation order, at most limit.
	GetMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error)

	// List returns one page of a company's conversations, newest activity
	// first, each with its most recent message attached.
	List(ctx context.Context, companyID string, filter domain.ConversationFilter, page, limit int) (*domain.ConversationPage, error)

	// UpdateStatus changes a conversation's lifecycle status.
	UpdateStatus(ctx context.Context, companyID, id string, status domain.ConversationStatus) error
}
