package domain

import "time"

// Bot is a named persona under a company with its own knowledge base, tools
// and conversations. Bot management lives in the dashboard; the core only
// reads bots to compose system instructions.
type Bot struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
