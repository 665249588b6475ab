package domain

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// NewMessageID creates the external-facing identifier for a message.
func NewMessageID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return fmt.Sprintf("msg_%d_%x", time.Now().UnixNano(), b)
}

// Channel is the delivery channel a conversation arrived on.
type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelWhatsApp  Channel = "whatsapp"
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
)

// Valid reports whether the channel is one of the supported delivery channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelWeb, ChannelWhatsApp, ChannelFacebook, ChannelInstagram:
		return true
	}
	return false
}

// ConversationStatus represents the lifecycle of a conversation.
// Conversations are never hard-deleted; archival is a status change.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationResolved ConversationStatus = "resolved"
	ConversationArchived ConversationStatus = "archived"
)

// Conversation is identified by the (company, bot, visitor, channel) tuple.
// At most one active conversation exists per tuple.
type Conversation struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	BotID         string             `json:"bot_id"`
	VisitorID     string             `json:"visitor_id"`
	Channel       Channel            `json:"channel"`
	Status        ConversationStatus `json:"status"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
	LastMessageAt *time.Time         `json:"last_message_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Direction indicates whether a message came from the visitor or went out to them.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// MessageType is the media type of a message. The core only produces text.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
)

// ToolCallRecord is one entry of a message's tool-usage audit log.
type ToolCallRecord struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result string         `json:"result"`
}

// MessageMeta carries the optional retrieval and tool audit payload of a message.
type MessageMeta struct {
	// RAGContext is a snapshot of the chunks used to produce the answer.
	RAGContext []RankedChunk `json:"rag_context,omitempty"`

	// ToolCalls is the aggregated tool-invocation log for the answer.
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}

// Message belongs to exactly one conversation. Messages are append-only and
// ordered by creation time.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	MessageID      string       `json:"message_id"` // external-facing identifier
	Direction      Direction    `json:"direction"`
	Content        string       `json:"content"`
	Type           MessageType  `json:"message_type"`
	Meta           *MessageMeta `json:"meta,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ConversationFilter narrows a conversation listing.
type ConversationFilter struct {
	Status  ConversationStatus // empty means all
	Channel Channel            // empty means all
	Visitor string             // substring match on visitor id
}

// ConversationPreview pairs a conversation with its most recent message.
type ConversationPreview struct {
	Conversation *Conversation `json:"conversation"`
	LastMessage  *Message      `json:"last_message,omitempty"`
}

// ConversationPage is one page of a conversation listing.
type ConversationPage struct {
	Items      []*ConversationPreview `json:"items"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalCount int                    `json:"total_count"`
}
