// Package tools executes externally-configured HTTP APIs on behalf of the
// conversation orchestrator. Tool failures are data, not errors: every
// outcome is returned as a string payload the model can reason about.
package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ToolRunner = (*HTTPTool)(nil)

const (
	// maxResultLength caps the tool output fed back to the model.
	maxResultLength = 5000

	// defaultTimeout applies when the definition has no timeout configured.
	defaultTimeout = 10 * time.Second
)

// HTTPTool implements ToolRunner for one tool definition.
type HTTPTool struct {
	def    *domain.ToolDefinition
	client *http.Client
}

// NewHTTPTool creates a runner for the given definition.
func NewHTTPTool(def *domain.ToolDefinition) *HTTPTool {
	timeout := defaultTimeout
	if def.TimeoutMs > 0 {
		timeout = time.Duration(def.TimeoutMs) * time.Millisecond
	}
	return &HTTPTool{
		def:    def,
		client: &http.Client{Timeout: timeout},
	}
}

// NewRunner is the ToolRunnerFactory for HTTP tools.
func NewRunner(def *domain.ToolDefinition) driven.ToolRunner {
	return NewHTTPTool(def)
}

// Name returns the function-call token the model invokes this tool by.
func (t *HTTPTool) Name() string {
	return t.def.FunctionName()
}

// Declaration returns the function declaration exposed to the model.
func (t *HTTPTool) Declaration() domain.ToolDeclaration {
	return domain.ToolDeclaration{
		Name:        t.def.FunctionName(),
		Description: t.def.Description,
		Parameters:  t.def.Parameters,
	}
}

// Execute calls the configured endpoint with the model-provided arguments.
// The return value is always a string: the (truncated) response body on
// success, or a JSON error payload on any failure.
func (t *HTTPTool) Execute(ctx context.Context, args map[string]any) string {
	endpoint, remaining := substitutePathParams(t.def.EndpointURL, args)

	var body io.Reader
	if t.def.Method.HasBody() {
		if len(remaining) > 0 {
			payload, err := json.Marshal(remaining)
			if err != nil {
				return errorPayload(fmt.Sprintf("failed to encode arguments: %v", err), 0)
			}
			body = bytes.NewReader(payload)
		}
	} else if len(remaining) > 0 {
		endpoint = appendQueryParams(endpoint, remaining)
	}

	req, err := http.NewRequestWithContext(ctx, string(t.def.Method), endpoint, body)
	if err != nil {
		return errorPayload(fmt.Sprintf("invalid request: %v", err), 0)
	}

	if t.def.Method.HasBody() {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range t.def.Headers {
		req.Header.Set(key, value)
	}
	t.applyAuth(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return errorPayload(fmt.Sprintf("request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResultLength+1))
	if err != nil {
		return errorPayload(fmt.Sprintf("failed to read response: %v", err), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorPayload(truncate(string(respBody)), resp.StatusCode)
	}

	return truncate(string(respBody))
}

func (t *HTTPTool) applyAuth(req *http.Request) {
	switch t.def.AuthType {
	case domain.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+t.def.Credential)
	case domain.AuthAPIKey:
		req.Header.Set("X-API-Key", t.def.Credential)
	case domain.AuthBasic:
		// Credential is stored as user:pass
		encoded := base64.StdEncoding.EncodeToString([]byte(t.def.Credential))
		req.Header.Set("Authorization", "Basic "+encoded)
	}
}

// substitutePathParams replaces :key and {key} placeholders in the URL with
// matching argument values. Consumed arguments are removed from the returned
// map so they are not sent twice.
func substitutePathParams(endpoint string, args map[string]any) (string, map[string]any) {
	remaining := make(map[string]any, len(args))
	for k, v := range args {
		remaining[k] = v
	}

	for key, value := range args {
		str := fmt.Sprintf("%v", value)
		colon := ":" + key
		braced := "{" + key + "}"
		if strings.Contains(endpoint, colon) || strings.Contains(endpoint, braced) {
			endpoint = strings.ReplaceAll(endpoint, colon, url.PathEscape(str))
			endpoint = strings.ReplaceAll(endpoint, braced, url.PathEscape(str))
			delete(remaining, key)
		}
	}

	return endpoint, remaining
}

func appendQueryParams(endpoint string, args map[string]any) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}

	q := u.Query()
	for key, value := range args {
		q.Set(key, fmt.Sprintf("%v", value))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func truncate(s string) string {
	if len(s) <= maxResultLength {
		return s
	}
	return s[:maxResultLength]
}

func errorPayload(message string, status int) string {
	payload, err := json.Marshal(map[string]any{
		"error":  message,
		"status": status,
	})
	if err != nil {
		return `{"error":"tool execution failed"}`
	}
	return string(payload)
}
