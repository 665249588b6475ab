package services

import (
	"context"
	"errors"
	"testing"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven/mocks"
)

func validToolDefinition(name string) *domain.ToolDefinition {
	return &domain.ToolDefinition{
		CompanyID:   "company-1",
		BotID:       "bot-1",
		Name:        name,
		Description: "looks up an order",
		EndpointURL: "https://api.example.com/orders/:id",
		Method:      domain.MethodGet,
		AuthType:    domain.AuthBearer,
		Credential:  "token-123",
		Active:      true,
	}
}

// TestToolCreate verifies a valid definition is stored with generated id and timestamps
func TestToolCreate(t *testing.T) {
	store := mocks.NewMockToolStore()
	svc := NewToolService(store, nil)

	def := validToolDefinition("Order Status")
	if err := svc.Create(context.Background(), def); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if def.ID == "" {
		t.Error("expected generated id")
	}
	if def.CreatedAt.IsZero() || def.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	stored, err := store.Get(context.Background(), "company-1", def.ID)
	if err != nil {
		t.Fatalf("stored tool not found: %v", err)
	}
	if stored.FunctionName() != "order_status" {
		t.Errorf("expected normalized function name order_status, got %s", stored.FunctionName())
	}
}

// TestToolCreate_Invalid verifies write-time validation of the closed enums
func TestToolCreate_Invalid(t *testing.T) {
	svc := NewToolService(mocks.NewMockToolStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.ToolDefinition)
	}{
		{"missing name", func(d *domain.ToolDefinition) { d.Name = " " }},
		{"missing endpoint", func(d *domain.ToolDefinition) { d.EndpointURL = "" }},
		{"bad method", func(d *domain.ToolDefinition) { d.Method = "PATCH" }},
		{"bad auth type", func(d *domain.ToolDefinition) { d.AuthType = "oauth2" }},
		{"auth without credential", func(d *domain.ToolDefinition) { d.Credential = "" }},
		{"negative timeout", func(d *domain.ToolDefinition) { d.TimeoutMs = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validToolDefinition("Order Status")
			tt.mutate(def)
			if err := svc.Create(ctx, def); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

// TestToolCreate_DuplicateFunctionName verifies two names that normalize to
// the same token cannot coexist on one bot.
func TestToolCreate_DuplicateFunctionName(t *testing.T) {
	svc := NewToolService(mocks.NewMockToolStore(), nil)
	ctx := context.Background()

	if err := svc.Create(ctx, validToolDefinition("Order Status")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err := svc.Create(ctx, validToolDefinition("order   STATUS"))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The same name on a different bot is fine.
	other := validToolDefinition("Order Status")
	other.BotID = "bot-2"
	if err := svc.Create(ctx, other); err != nil {
		t.Errorf("expected cross-bot name reuse to succeed, got %v", err)
	}
}

// TestToolUpdate verifies updates keep identity and reject collisions
func TestToolUpdate(t *testing.T) {
	store := mocks.NewMockToolStore()
	svc := NewToolService(store, nil)
	ctx := context.Background()

	first := validToolDefinition("Order Status")
	if err := svc.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second := validToolDefinition("Track Shipment")
	if err := svc.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Renaming a tool onto itself is allowed.
	first.Description = "updated description"
	if err := svc.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	// Renaming onto another tool's function name is not.
	second.Name = "ORDER status"
	if err := svc.Update(ctx, second); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

// TestToolUpdate_Missing verifies updating an unknown tool fails
func TestToolUpdate_Missing(t *testing.T) {
	svc := NewToolService(mocks.NewMockToolStore(), nil)

	def := validToolDefinition("Order Status")
	def.ID = "missing"
	if err := svc.Update(context.Background(), def); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestToolDelete verifies removal
func TestToolDelete(t *testing.T) {
	store := mocks.NewMockToolStore()
	svc := NewToolService(store, nil)
	ctx := context.Background()

	def := validToolDefinition("Order Status")
	if err := svc.Create(ctx, def); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Delete(ctx, "company-1", def.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, "company-1", def.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
