package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

func newDef(endpoint string, method domain.HTTPMethod) *domain.ToolDefinition {
	return &domain.ToolDefinition{
		ID:          "tool-1",
		CompanyID:   "company-1",
		BotID:       "bot-1",
		Name:        "Check Order",
		Description: "Look up an order",
		EndpointURL: endpoint,
		Method:      method,
		AuthType:    domain.AuthNone,
		Active:      true,
	}
}

func TestHTTPTool_Name(t *testing.T) {
	tool := NewHTTPTool(newDef("http://example.com", domain.MethodGet))
	if tool.Name() != "check_order" {
		t.Errorf("expected normalized name, got %q", tool.Name())
	}
}

func TestHTTPTool_GetWithQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.URL.Query().Get("order_id"); got != "12345" {
			t.Errorf("missing query param, got %q", got)
		}
		io.WriteString(w, `{"status":"shipped"}`)
	}))
	defer server.Close()

	tool := NewHTTPTool(newDef(server.URL, domain.MethodGet))
	result := tool.Execute(context.Background(), map[string]any{"order_id": "12345"})
	if result != `{"status":"shipped"}` {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestHTTPTool_PostWithJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("missing JSON content type")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "a@b.com" {
			t.Errorf("body not forwarded: %v", body)
		}
		io.WriteString(w, "created")
	}))
	defer server.Close()

	tool := NewHTTPTool(newDef(server.URL, domain.MethodPost))
	result := tool.Execute(context.Background(), map[string]any{"email": "a@b.com"})
	if result != "created" {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestHTTPTool_PathParamSubstitution(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.RawQuery != "" {
			t.Errorf("consumed path param leaked into query: %s", r.URL.RawQuery)
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	tool := NewHTTPTool(newDef(server.URL+"/orders/:order_id", domain.MethodGet))
	tool.Execute(context.Background(), map[string]any{"order_id": "9001"})
	if gotPath != "/orders/9001" {
		t.Errorf("path param not substituted: %s", gotPath)
	}

	tool = NewHTTPTool(newDef(server.URL+"/orders/{order_id}", domain.MethodGet))
	tool.Execute(context.Background(), map[string]any{"order_id": "9002"})
	if gotPath != "/orders/9002" {
		t.Errorf("braced path param not substituted: %s", gotPath)
	}
}

func TestHTTPTool_AuthInjection(t *testing.T) {
	cases := []struct {
		auth       domain.AuthType
		credential string
		header     string
		want       string
	}{
		{domain.AuthBearer, "tok123", "Authorization", "Bearer tok123"},
		{domain.AuthAPIKey, "key456", "X-Api-Key", "key456"},
		{domain.AuthBasic, "user:pass", "Authorization", "Basic dXNlcjpwYXNz"},
	}

	for _, tc := range cases {
		t.Run(string(tc.auth), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get(tc.header); got != tc.want {
					t.Errorf("header %s = %q, want %q", tc.header, got, tc.want)
				}
				io.WriteString(w, "ok")
			}))
			defer server.Close()

			def := newDef(server.URL, domain.MethodGet)
			def.AuthType = tc.auth
			def.Credential = tc.credential

			NewHTTPTool(def).Execute(context.Background(), nil)
		})
	}
}

func TestHTTPTool_ErrorStatusReturnsJSONPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "order not found")
	}))
	defer server.Close()

	tool := NewHTTPTool(newDef(server.URL, domain.MethodGet))
	result := tool.Execute(context.Background(), nil)

	var payload struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal([]byte(result), &payload); err != nil {
		t.Fatalf("error result is not JSON: %s", result)
	}
	if payload.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", payload.Status)
	}
	if payload.Error != "order not found" {
		t.Errorf("unexpected error message: %q", payload.Error)
	}
}

func TestHTTPTool_UnreachableEndpoint(t *testing.T) {
	tool := NewHTTPTool(newDef("http://127.0.0.1:1", domain.MethodGet))
	result := tool.Execute(context.Background(), nil)

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(result), &payload); err != nil {
		t.Fatalf("error result is not JSON: %s", result)
	}
	if payload.Error == "" {
		t.Error("expected an error message")
	}
}

func TestHTTPTool_TruncatesLongResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", maxResultLength*2))
	}))
	defer server.Close()

	tool := NewHTTPTool(newDef(server.URL, domain.MethodGet))
	result := tool.Execute(context.Background(), nil)
	if len(result) != maxResultLength {
		t.Errorf("expected truncation to %d chars, got %d", maxResultLength, len(result))
	}
}

func TestHTTPTool_Declaration(t *testing.T) {
	def := newDef("http://example.com", domain.MethodGet)
	def.Parameters = domain.ParameterSchema{
		Properties: map[string]domain.ParameterSpec{
			"order_id": {Type: "string", Description: "The order id"},
		},
		Required: []string{"order_id"},
	}

	decl := NewHTTPTool(def).Declaration()
	if decl.Name != "check_order" {
		t.Errorf("unexpected declaration name: %s", decl.Name)
	}
	if len(decl.Parameters.Properties) != 1 {
		t.Errorf("parameters not carried into declaration")
	}
}
