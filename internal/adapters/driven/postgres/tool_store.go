package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ToolStore = (*ToolStore)(nil)

// ToolStore implements driven.ToolStore using PostgreSQL. Credentials are
// encrypted with the SecretEncryptor before they hit the credential_enc
// column and decrypted only on the execution path (ListActive).
type ToolStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewToolStore creates a new ToolStore
func NewToolStore(db *DB, encryptor *SecretEncryptor) *ToolStore {
	return &ToolStore{db: db, encryptor: encryptor}
}

const toolColumns = `id, company_id, bot_id, name, description, endpoint_url, http_method,
	headers, auth_type, credential_enc, timeout_ms, parameters, is_active, created_at, updated_at`

// Save creates or updates a tool definition
func (s *ToolStore) Save(ctx context.Context, def *domain.ToolDefinition) error {
	headersJSON, err := json.Marshal(def.Headers)
	if err != nil {
		return err
	}
	parametersJSON, err := json.Marshal(def.Parameters)
	if err != nil {
		return err
	}

	var credentialEnc []byte
	if def.Credential != "" {
		credentialEnc, err = s.encryptor.EncryptString(def.Credential)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO company_apis (` + toolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			endpoint_url = EXCLUDED.endpoint_url,
			http_method = EXCLUDED.http_method,
			headers = EXCLUDED.headers,
			auth_type = EXCLUDED.auth_type,
			credential_enc = EXCLUDED.credential_enc,
			timeout_ms = EXCLUDED.timeout_ms,
			parameters = EXCLUDED.parameters,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		def.ID,
		def.CompanyID,
		def.BotID,
		def.Name,
		def.Description,
		def.EndpointURL,
		def.Method,
		headersJSON,
		def.AuthType,
		credentialEnc,
		def.TimeoutMs,
		parametersJSON,
		def.Active,
		def.CreatedAt,
		def.UpdatedAt,
	)
	return err
}

// Get retrieves a tool definition owned by the given company.
// The credential stays encrypted; Get serves the management surface.
func (s *ToolStore) Get(ctx context.Context, companyID, id string) (*domain.ToolDefinition, error) {
	query := `SELECT ` + toolColumns + ` FROM company_apis WHERE id = $1 AND company_id = $2`

	def, err := s.scanTool(s.db.QueryRowContext(ctx, query, id, companyID), false)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return def, err
}

// ListActive returns the active definitions for a company's bot with
// credentials decrypted for execution
func (s *ToolStore) ListActive(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error) {
	query := `
		SELECT ` + toolColumns + `
		FROM company_apis
		WHERE company_id = $1 AND bot_id = $2 AND is_active = TRUE
		ORDER BY name ASC
	`
	return s.listTools(ctx, query, true, companyID, botID)
}

// ListByBot returns all definitions for a company's bot
func (s *ToolStore) ListByBot(ctx context.Context, companyID, botID string) ([]*domain.ToolDefinition, error) {
	query := `
		SELECT ` + toolColumns + `
		FROM company_apis
		WHERE company_id = $1 AND bot_id = $2
		ORDER BY name ASC
	`
	return s.listTools(ctx, query, false, companyID, botID)
}

// Delete removes a tool definition
func (s *ToolStore) Delete(ctx context.Context, companyID, id string) error {
	query := `DELETE FROM company_apis WHERE id = $1 AND company_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, companyID)
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

func (s *ToolStore) listTools(ctx context.Context, query string, decrypt bool, args ...any) ([]*domain.ToolDefinition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*domain.ToolDefinition
	for rows.Next() {
		def, err := s.scanTool(rows, decrypt)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return defs, nil
}

func (s *ToolStore) scanTool(row rowScanner, decrypt bool) (*domain.ToolDefinition, error) {
	var def domain.ToolDefinition
	var headersJSON, parametersJSON, credentialEnc []byte

	err := row.Scan(
		&def.ID,
		&def.CompanyID,
		&def.BotID,
		&def.Name,
		&def.Description,
		&def.EndpointURL,
		&def.Method,
		&headersJSON,
		&def.AuthType,
		&credentialEnc,
		&def.TimeoutMs,
		&parametersJSON,
		&def.Active,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(headersJSON) > 0 {
		if err := json.Unmarshal(headersJSON, &def.Headers); err != nil {
			return nil, err
		}
	}
	if len(parametersJSON) > 0 {
		if err := json.Unmarshal(parametersJSON, &def.Parameters); err != nil {
			return nil, err
		}
	}

	if decrypt && len(credentialEnc) > 0 {
		credential, err := s.encryptor.DecryptString(credentialEnc)
		if err != nil {
			return nil, err
		}
		def.Credential = credential
	}

	return &def, nil
}
