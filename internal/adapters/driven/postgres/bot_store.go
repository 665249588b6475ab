package postgres

import (
	"context"
	"database/sql"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BotStore = (*BotStore)(nil)

// BotStore implements driven.BotStore using PostgreSQL
type BotStore struct {
	db *DB
}

// NewBotStore creates a new BotStore
func NewBotStore(db *DB) *BotStore {
	return &BotStore{db: db}
}

// Get retrieves a bot owned by the given company
func (s *BotStore) Get(ctx context.Context, companyID, botID string) (*domain.Bot, error) {
	query := `
		SELECT id, company_id, name, description, system_prompt, is_active, created_at, updated_at
		FROM bots
		WHERE id = $1 AND company_id = $2
	`

	var bot domain.Bot
	err := s.db.QueryRowContext(ctx, query, botID, companyID).Scan(
		&bot.ID,
		&bot.CompanyID,
		&bot.Name,
		&bot.Description,
		&bot.SystemPrompt,
		&bot.Active,
		&bot.CreatedAt,
		&bot.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &bot, nil
}
