package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

const defaultHistoryLimit = 20

// conversationService resolves sessions and manages message history.
type conversationService struct {
	store  driven.ConversationStore
	logger *slog.Logger
}

var _ driving.ConversationService = (*conversationService)(nil)

// NewConversationService creates a conversation service backed by the given store.
func NewConversationService(store driven.ConversationStore, logger *slog.Logger) driving.ConversationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &conversationService{store: store, logger: logger}
}

func (s *conversationService) GetOrCreate(ctx context.Context, companyID, botID, visitorID string, channel domain.Channel) (*domain.Conversation, error) {
	if companyID == "" || botID == "" || visitorID == "" {
		return nil, fmt.Errorf("%w: company, bot and visitor ids are required", domain.ErrInvalidInput)
	}
	if !channel.Valid() {
		return nil, fmt.Errorf("%w: unknown channel %q", domain.ErrInvalidInput, channel)
	}

	conv, err := s.store.FindActive(ctx, companyID, botID, visitorID, channel)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find active conversation: %w", err)
	}

	now := time.Now()
	conv = &domain.Conversation{
		ID:        domain.GenerateID(),
		CompanyID: companyID,
		BotID:     botID,
		VisitorID: visitorID,
		Channel:   channel,
		Status:    domain.ConversationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.Create(ctx, conv)
	if err == nil {
		s.logger.Info("conversation opened",
			"conversation_id", conv.ID,
			"company_id", companyID,
			"bot_id", botID,
			"channel", channel)
		return conv, nil
	}

	// A concurrent first message won the insert race. Re-read the winner
	// instead of failing the caller.
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.store.FindActive(ctx, companyID, botID, visitorID, channel)
	}
	return nil, fmt.Errorf("create conversation: %w", err)
}

func (s *conversationService) AddMessage(ctx context.Context, conversationID, role, content string, meta *domain.MessageMeta) (*domain.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidInput)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: message content is empty", domain.ErrInvalidInput)
	}

	direction := domain.DirectionOutbound
	if role == "user" {
		direction = domain.DirectionInbound
	}

	msg := &domain.Message{
		ID:             domain.GenerateID(),
		ConversationID: conversationID,
		MessageID:      domain.NewMessageID(),
		Direction:      direction,
		Content:        content,
		Type:           domain.MessageTypeText,
		Meta:           meta,
		CreatedAt:      time.Now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

func (s *conversationService) GetHistory(ctx context.Context, companyID, conversationID string, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	// Ownership check before reading messages keeps cross-tenant probing out.
	if _, err := s.store.Get(ctx, companyID, conversationID); err != nil {
		return nil, err
	}
	return s.store.GetMessages(ctx, conversationID, limit)
}

func (s *conversationService) List(ctx context.Context, companyID string, filter domain.ConversationFilter, page, limit int) (*domain.ConversationPage, error) {
	if companyID == "" {
		return nil, fmt.Errorf("%w: company id is required", domain.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.store.List(ctx, companyID, filter, page, limit)
}

func (s *conversationService) UpdateStatus(ctx context.Context, companyID, conversationID string, status domain.ConversationStatus) error {
	switch status {
	case domain.ConversationActive, domain.ConversationResolved, domain.ConversationArchived:
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.store.UpdateStatus(ctx, companyID, conversationID, status)
}
