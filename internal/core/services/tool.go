package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

// toolService manages tool definitions with write-time validation. Two tools
// whose names normalize to the same function token would shadow one another
// in the orchestrator's runner map, so uniqueness is enforced here.
type toolService struct {
	store  driven.ToolStore
	logger *slog.Logger
}

var _ driving.ToolService = (*toolService)(nil)

// NewToolService creates a tool service backed by the given store.
func NewToolService(store driven.ToolStore, logger *slog.Logger) driving.ToolService {
	if logger == nil {
		logger = slog.Default()
	}
	return &toolService{store: store, logger: logger}
}

func (s *toolService) Create(ctx context.Context, def *domain.ToolDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := s.checkNameUnique(ctx, def); err != nil {
		return err
	}
	if def.ID == "" {
		def.ID = domain.GenerateID()
	}
	now := time.Now()
	def.CreatedAt = now
	def.UpdatedAt = now
	if err := s.store.Save(ctx, def); err != nil {
		return fmt.Errorf("save tool: %w", err)
	}
	s.logger.Info("tool created",
		"tool_id", def.ID,
		"company_id", def.CompanyID,
		"bot_id", def.BotID,
		"function", def.FunctionName())
	return nil
}

func (s *toolService) Update(ctx context.Context, def *domain.ToolDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	existing, err := s.store.Get(ctx, def.CompanyID, def.ID)
	if err != nil {
		return err
	}
	if err := s.checkNameUnique(ctx, def); err != nil {
		return err
	}
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, def); err != nil {
		return fmt.Errorf("save tool: %w", err)
	}
	return nil
}

func (s *toolService) Get(ctx context.Context, companyID, id string) (*domain.ToolDefinition, error) {
	return s.store.Get(ctx, companyID, id)
}

func (s *toolService) List(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error) {
	return s.store.ListByBot(ctx, companyID, botID)
}

func (s *toolService) Delete(ctx context.Context, companyID, id string) error {
	return s.store.Delete(ctx, companyID, id)
}

// checkNameUnique rejects a definition whose normalized function name is
// already taken by another tool of the same bot.
func (s *toolService) checkNameUnique(ctx context.Context, def *domain.ToolDefinition) error {
	existing, err := s.store.ListByBot(ctx, def.CompanyID, def.BotID)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	name := def.FunctionName()
	for _, other := range existing {
		if other.ID != def.ID && other.FunctionName() == name {
			return fmt.Errorf("%w: tool function name %q", domain.ErrAlreadyExists, name)
		}
	}
	return nil
}
