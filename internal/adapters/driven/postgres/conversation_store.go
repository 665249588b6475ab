package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

// uniqueViolation is the PostgreSQL error code raised when the partial
// unique index on active conversations rejects a concurrent insert.
const uniqueViolation = "23505"

// ConversationStore implements driven.ConversationStore using PostgreSQL
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a new ConversationStore
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

const conversationColumns = `id, company_id, bot_id, visitor_id, channel, status, metadata, last_message_at, created_at, updated_at`

// FindActive returns the active conversation for the identity tuple
func (s *ConversationStore) FindActive(ctx context.Context, companyID, botID, visitorID string, channel domain.Channel) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE company_id = $1 AND bot_id = $2 AND visitor_id = $3 AND channel = $4 AND status = 'active'
	`
	return s.scanConversation(s.db.QueryRowContext(ctx, query, companyID, botID, visitorID, channel))
}

// Create inserts a new conversation. The partial unique index guarantees at
// most one active row per tuple; a conflict maps to ErrAlreadyExists so the
// caller can re-read the winner.
func (s *ConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	metadataJSON, err := json.Marshal(conv.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO conversations (` + conversationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.ExecContext(ctx, query,
		conv.ID,
		conv.CompanyID,
		conv.BotID,
		conv.VisitorID,
		conv.Channel,
		conv.Status,
		metadataJSON,
		NullTime(conv.LastMessageAt),
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrAlreadyExists
	}
	return err
}

// Get retrieves a conversation owned by the given company
func (s *ConversationStore) Get(ctx context.Context, companyID, id string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND company_id = $2`
	return s.scanConversation(s.db.QueryRowContext(ctx, query, id, companyID))
}

// AppendMessage appends a message and bumps the conversation's last activity
func (s *ConversationStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	var metaJSON []byte
	if msg.Meta != nil {
		var err error
		metaJSON, err = json.Marshal(msg.Meta)
		if err != nil {
			return err
		}
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		insert := `
			INSERT INTO messages (id, conversation_id, message_id, direction, content, message_type, meta, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, insert,
			msg.ID,
			msg.ConversationID,
			msg.MessageID,
			msg.Direction,
			msg.Content,
			msg.Type,
			metaJSON,
			msg.CreatedAt,
		)
		if err != nil {
			return err
		}

		bump := `UPDATE conversations SET last_message_at = $2, updated_at = now() WHERE id = $1`
		result, err := tx.ExecContext(ctx, bump, msg.ConversationID, msg.CreatedAt)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// GetMessages returns messages in ascending creation order, at most limit
func (s *ConversationStore) GetMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, message_id, direction, content, message_type, meta, created_at
		FROM (
			SELECT id, conversation_id, message_id, direction, content, message_type, meta, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return msgs, nil
}

// List returns one page of a company's conversations, newest activity first
func (s *ConversationStore) List(ctx context.Context, companyID string, filter domain.ConversationFilter, page, limit int) (*domain.ConversationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	where := `WHERE company_id = $1
		AND ($2 = '' OR status = $2)
		AND ($3 = '' OR channel = $3)
		AND ($4 = '' OR visitor_id ILIKE '%' || $4 || '%')`
	args := []any{companyID, string(filter.Status), string(filter.Channel), filter.Visitor}

	var total int
	countQuery := `SELECT COUNT(*) FROM conversations ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + conversationColumns + `
		FROM conversations ` + where + `
		ORDER BY updated_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ConversationPreview
	for rows.Next() {
		conv, err := scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, &domain.ConversationPreview{Conversation: conv})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, item := range items {
		last, err := s.lastMessage(ctx, item.Conversation.ID)
		if err != nil {
			return nil, err
		}
		item.LastMessage = last
	}

	return &domain.ConversationPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
	}, nil
}

// UpdateStatus changes a conversation's lifecycle status
func (s *ConversationStore) UpdateStatus(ctx context.Context, companyID, id string, status domain.ConversationStatus) error {
	query := `UPDATE conversations SET status = $3, updated_at = now() WHERE id = $1 AND company_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, companyID, status)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *ConversationStore) lastMessage(ctx context.Context, conversationID string) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, message_id, direction, content, message_type, meta, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, conversationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return msg, err
}

func (s *ConversationStore) scanConversation(row *sql.Row) (*domain.Conversation, error) {
	conv, err := scanConversationRow(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return conv, err
}

func scanConversationRow(row rowScanner) (*domain.Conversation, error) {
	var conv domain.Conversation
	var metadataJSON []byte
	var lastMessageAt sql.NullTime

	err := row.Scan(
		&conv.ID,
		&conv.CompanyID,
		&conv.BotID,
		&conv.VisitorID,
		&conv.Channel,
		&conv.Status,
		&metadataJSON,
		&lastMessageAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	conv.LastMessageAt = TimePtr(lastMessageAt)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &conv.Metadata); err != nil {
			return nil, err
		}
	}

	return &conv, nil
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var msg domain.Message
	var metaJSON []byte

	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.MessageID,
		&msg.Direction,
		&msg.Content,
		&msg.Type,
		&metaJSON,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metaJSON) > 0 {
		msg.Meta = &domain.MessageMeta{}
		if err := json.Unmarshal(metaJSON, msg.Meta); err != nil {
			return nil, err
		}
	}

	return &msg, nil
}
