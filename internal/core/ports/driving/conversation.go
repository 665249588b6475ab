package driving

import (
	"context"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ConversationService resolves sessions and manages message history.
type ConversationService interface {
	// GetOrCreate finds the active conversation for the identity tuple or
	// opens a new one. Safe under concurrent first contact.
	GetOrCreate(ctx context.Context, companyID, botID, visitorID string, channel domain.Channel) (*domain.Conversation, error)

	// AddMessage appends a message. role "user" maps to inbound, anything
	// else to outbound. meta may be nil.
	AddMessage(ctx context.Context, conversationID, role, content string, meta *domain.MessageMeta) (*domain.Message, error)

	// GetHistory returns messages in ascending creation order, bounded by limit.
	GetHistory(ctx context.Context, companyID, conversationID string, limit int) ([]*domain.Message, error)

	// List returns one page of the company's conversations with previews.
	List(ctx context.Context, companyID string, filter domain.ConversationFilter, page, limit int) (*domain.ConversationPage, error)

	// UpdateStatus resolves or archives a conversation.
	UpdateStatus(ctx context.Context, companyID, conversationID string, status domain.ConversationStatus) error
}
