package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven/mocks"
)

// TestGetOrCreate_New verifies a first message opens an active conversation
func TestGetOrCreate_New(t *testing.T) {
	store := mocks.NewMockConversationStore()
	svc := NewConversationService(store, nil)

	conv, err := svc.GetOrCreate(context.Background(), "company-1", "bot-1", "visitor-1", domain.ChannelWeb)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if conv.Status != domain.ConversationActive {
		t.Errorf("expected active status, got %s", conv.Status)
	}
	if conv.ID == "" {
		t.Error("expected generated conversation id")
	}
}

// TestGetOrCreate_ReusesActive verifies the same tuple resolves to the same conversation
func TestGetOrCreate_ReusesActive(t *testing.T) {
	store := mocks.NewMockConversationStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)
	if err != nil {
		t.Fatalf("first GetOrCreate failed: %v", err)
	}
	second, err := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same conversation, got %s and %s", first.ID, second.ID)
	}

	// A different channel is a different conversation.
	third, err := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("third GetOrCreate failed: %v", err)
	}
	if third.ID == first.ID {
		t.Error("expected a distinct conversation per channel")
	}
}

// TestGetOrCreate_InvalidChannel verifies unknown channels are rejected
func TestGetOrCreate_InvalidChannel(t *testing.T) {
	svc := NewConversationService(mocks.NewMockConversationStore(), nil)

	_, err := svc.GetOrCreate(context.Background(), "company-1", "bot-1", "visitor-1", domain.Channel("telegraph"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// raceConversationStore simulates a concurrent first contact: the initial
// FindActive sees nothing, and the subsequent Create loses the insert race.
type raceConversationStore struct {
	*mocks.MockConversationStore
	findCalls int
}

func (r *raceConversationStore) FindActive(ctx context.Context, companyID, botID, visitorID string, channel domain.Channel) (*domain.Conversation, error) {
	r.findCalls++
	if r.findCalls == 1 {
		return nil, domain.ErrNotFound
	}
	return r.MockConversationStore.FindActive(ctx, companyID, botID, visitorID, channel)
}

func (r *raceConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	return fmt.Errorf("%w: active conversation", domain.ErrAlreadyExists)
}

// TestGetOrCreate_ConcurrentFirstContact verifies a lost insert race is
// resolved by re-reading the winner instead of failing.
func TestGetOrCreate_ConcurrentFirstContact(t *testing.T) {
	inner := mocks.NewMockConversationStore()
	ctx := context.Background()

	// The winner's conversation already exists by the time we re-read.
	winner := &domain.Conversation{
		ID:        "winner",
		CompanyID: "company-1",
		BotID:     "bot-1",
		VisitorID: "visitor-1",
		Channel:   domain.ChannelWeb,
		Status:    domain.ConversationActive,
	}
	if err := inner.Create(ctx, winner); err != nil {
		t.Fatalf("seed winner: %v", err)
	}

	svc := NewConversationService(&raceConversationStore{MockConversationStore: inner}, nil)
	conv, err := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if conv.ID != "winner" {
		t.Errorf("expected the winner's conversation, got %s", conv.ID)
	}
}

// TestAddMessage_RoleMapping verifies user maps to inbound and anything else
// to outbound.
func TestAddMessage_RoleMapping(t *testing.T) {
	store := mocks.NewMockConversationStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	conv, _ := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)

	in, err := svc.AddMessage(ctx, conv.ID, "user", "hello", nil)
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if in.Direction != domain.DirectionInbound {
		t.Errorf("expected inbound direction, got %s", in.Direction)
	}

	out, err := svc.AddMessage(ctx, conv.ID, "assistant", "hi there", nil)
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if out.Direction != domain.DirectionOutbound {
		t.Errorf("expected outbound direction, got %s", out.Direction)
	}
	if out.MessageID == "" {
		t.Error("expected external message id to be generated")
	}
}

// TestGetHistory_Ordering verifies messages come back in exact append order
func TestGetHistory_Ordering(t *testing.T) {
	store := mocks.NewMockConversationStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	conv, _ := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)
	contents := []string{"one", "two", "three", "four"}
	for _, c := range contents {
		if _, err := svc.AddMessage(ctx, conv.ID, "user", c, nil); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	history, err := svc.GetHistory(ctx, "company-1", conv.ID, 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(history))
	}
	for i, msg := range history {
		if msg.Content != contents[i] {
			t.Errorf("position %d: expected %q, got %q", i, contents[i], msg.Content)
		}
	}
}

// TestGetHistory_WrongCompany verifies cross-tenant history reads fail
func TestGetHistory_WrongCompany(t *testing.T) {
	store := mocks.NewMockConversationStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	conv, _ := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)

	_, err := svc.GetHistory(ctx, "company-2", conv.ID, 10)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong company, got %v", err)
	}
}

// TestUpdateStatus verifies lifecycle transitions and rejection of unknown states
func TestUpdateStatus(t *testing.T) {
	store := mocks.NewMockConversationStore()
	svc := NewConversationService(store, nil)
	ctx := context.Background()

	conv, _ := svc.GetOrCreate(ctx, "company-1", "bot-1", "visitor-1", domain.ChannelWeb)

	if err := svc.UpdateStatus(ctx, "company-1", conv.ID, domain.ConversationResolved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ := store.Get(ctx, "company-1", conv.ID)
	if got.Status != domain.ConversationResolved {
		t.Errorf("expected resolved, got %s", got.Status)
	}

	if err := svc.UpdateStatus(ctx, "company-1", conv.ID, domain.ConversationStatus("closed")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}
