package domain

import (
	"fmt"
	"strings"
	"time"
)

// AuthType is the closed set of authentication modes a tool can use.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "api_key"
	AuthBasic  AuthType = "basic"
)

// Valid reports whether the auth type is supported.
func (a AuthType) Valid() bool {
	switch a {
	case AuthNone, AuthBearer, AuthAPIKey, AuthBasic:
		return true
	}
	return false
}

// HTTPMethod is the closed set of methods a tool endpoint can be called with.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
)

// Valid reports whether the method is supported.
func (m HTTPMethod) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

// HasBody reports whether arguments travel in the request body for this method.
func (m HTTPMethod) HasBody() bool {
	return m == MethodPost || m == MethodPut
}

// ParameterSchema is the JSON-schema-like declaration the model sees for a tool.
type ParameterSchema struct {
	Properties map[string]ParameterSpec `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

// ParameterSpec describes a single tool parameter.
type ParameterSpec struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ToolDefinition is an externally-configured HTTP API a bot can call.
// Only active definitions belonging to the requesting company and bot are
// ever exposed to the orchestrator.
type ToolDefinition struct {
	ID          string            `json:"id"`
	CompanyID   string            `json:"company_id"`
	BotID       string            `json:"bot_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	EndpointURL string            `json:"endpoint_url"`
	Method      HTTPMethod        `json:"method"`
	Headers     map[string]string `json:"headers,omitempty"`
	AuthType    AuthType          `json:"auth_type"`

	// Credential is the opaque auth material (token, key, or user:pass).
	// It is stored encrypted and never serialized.
	Credential string `json:"-"`

	TimeoutMs  int             `json:"timeout_ms"`
	Parameters ParameterSchema `json:"parameters_schema"`
	Active     bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FunctionName derives the call-safe token the model invokes the tool by:
// lower-cased, whitespace runs collapsed to underscores. It must be unique
// per bot; ToolService enforces that at write time.
func (t *ToolDefinition) FunctionName() string {
	return NormalizeToolName(t.Name)
}

// NormalizeToolName converts a human tool name to a function-call-safe token.
func NormalizeToolName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// Validate checks the closed enum tags and required fields at write time,
// so execute-time code never branches on free-form strings.
func (t *ToolDefinition) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tool name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(t.EndpointURL) == "" {
		return fmt.Errorf("%w: endpoint URL is required", ErrInvalidInput)
	}
	if !t.Method.Valid() {
		return fmt.Errorf("%w: unsupported method %q", ErrInvalidInput, t.Method)
	}
	if !t.AuthType.Valid() {
		return fmt.Errorf("%w: unsupported auth type %q", ErrInvalidInput, t.AuthType)
	}
	if t.AuthType != AuthNone && t.Credential == "" {
		return fmt.Errorf("%w: auth type %q requires a credential", ErrInvalidInput, t.AuthType)
	}
	if t.TimeoutMs < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidInput)
	}
	return nil
}

// ToolDeclaration is the function declaration shape the generative model's
// function-calling interface expects.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}
