package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/botmesh/botmesh-core/internal/adapters/driven/auth"
	"github.com/botmesh/botmesh-core/internal/core/domain"
)

func issueToken(t *testing.T, adapter *auth.Adapter, companyID string, ttl time.Duration) string {
	t.Helper()
	token, err := adapter.GenerateToken(&domain.TokenClaims{
		CompanyID: companyID,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func tenantEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := GetTenant(r.Context())
		if tenant == nil {
			writeError(w, http.StatusInternalServerError, "no tenant in context")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"company_id": tenant.CompanyID})
	})
}

// TestAuthenticate_MissingToken verifies requests without a token are rejected
func TestAuthenticate_MissingToken(t *testing.T) {
	mw := NewAuthMiddleware(auth.NewAdapter("secret"))
	handler := mw.Authenticate(tenantEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestAuthenticate_InvalidToken verifies malformed tokens are rejected
func TestAuthenticate_InvalidToken(t *testing.T) {
	mw := NewAuthMiddleware(auth.NewAdapter("secret"))
	handler := mw.Authenticate(tenantEcho())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestAuthenticate_ExpiredToken verifies expiry produces a distinct message
func TestAuthenticate_ExpiredToken(t *testing.T) {
	adapter := auth.NewAdapter("secret")
	mw := NewAuthMiddleware(adapter)
	handler := mw.Authenticate(tenantEcho())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, adapter, "company-1", -time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "token expired") {
		t.Errorf("expected token expired message, got %s", body)
	}
}

// TestAuthenticate_ValidToken verifies the tenant claims reach the handler
func TestAuthenticate_ValidToken(t *testing.T) {
	adapter := auth.NewAdapter("secret")
	mw := NewAuthMiddleware(adapter)
	handler := mw.Authenticate(tenantEcho())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, adapter, "company-1", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "company-1") {
		t.Errorf("expected tenant in response, got %s", rec.Body.String())
	}
}

// TestRecoveryMiddleware verifies panics become 500 responses
func TestRecoveryMiddleware(t *testing.T) {
	mw := NewRecoveryMiddleware(nil)
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// TestCORSMiddleware verifies preflight handling and origin allow-listing
func TestCORSMiddleware(t *testing.T) {
	mw := NewCORSMiddleware([]string{"https://dashboard.example.com"})
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Errorf("unexpected allow-origin header %q", got)
	}

	// Disallowed origin gets no CORS headers.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no allow-origin header for disallowed origin")
	}
}
