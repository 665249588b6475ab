package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the dashboard and channel-facing HTTP API. Every authenticated
// route is scoped to the JWT's company.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	chatbotService      driving.ChatbotService
	conversationService driving.ConversationService
	documentService     driving.DocumentService
	toolService         driving.ToolService

	// Infrastructure
	verifier  TokenVerifier
	taskQueue driven.TaskQueue
	db        Pinger // PostgreSQL health check
	redis     Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// ServerDeps holds the collaborators a Server needs.
type ServerDeps struct {
	ChatbotService      driving.ChatbotService
	ConversationService driving.ConversationService
	DocumentService     driving.DocumentService
	ToolService         driving.ToolService
	Verifier            TokenVerifier
	TaskQueue           driven.TaskQueue
	DB                  Pinger
	Redis               Pinger // can be nil
	Logger              *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:              http.NewServeMux(),
		version:             cfg.Version,
		logger:              logger,
		chatbotService:      deps.ChatbotService,
		conversationService: deps.ConversationService,
		documentService:     deps.DocumentService,
		toolService:         deps.ToolService,
		verifier:            deps.Verifier,
		taskQueue:           deps.TaskQueue,
		db:                  deps.DB,
		redis:               deps.Redis,
	}

	s.setupRoutes()

	logging := NewLoggingMiddleware(logger)
	recovery := NewRecoveryMiddleware(logger)
	cors := NewCORSMiddleware(cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(cors.Handler(s.router))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	auth := NewAuthMiddleware(s.verifier)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Chat endpoint
	s.router.Handle("POST /api/v1/chat",
		auth.Authenticate(http.HandlerFunc(s.handleChat)))

	// Conversation endpoints
	s.router.Handle("GET /api/v1/conversations",
		auth.Authenticate(http.HandlerFunc(s.handleListConversations)))
	s.router.Handle("GET /api/v1/conversations/{id}/messages",
		auth.Authenticate(http.HandlerFunc(s.handleGetConversationMessages)))
	s.router.Handle("PUT /api/v1/conversations/{id}/status",
		auth.Authenticate(http.HandlerFunc(s.handleUpdateConversationStatus)))

	// Document endpoints
	s.router.Handle("GET /api/v1/documents",
		auth.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/documents/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("POST /api/v1/documents/{id}/ingest",
		auth.Authenticate(http.HandlerFunc(s.handleIngestDocument)))
	s.router.Handle("POST /api/v1/documents/{id}/reingest",
		auth.Authenticate(http.HandlerFunc(s.handleReingestDocument)))
	s.router.Handle("DELETE /api/v1/documents/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleDeleteDocument)))

	// Tool endpoints
	s.router.Handle("GET /api/v1/tools",
		auth.Authenticate(http.HandlerFunc(s.handleListTools)))
	s.router.Handle("POST /api/v1/tools",
		auth.Authenticate(http.HandlerFunc(s.handleCreateTool)))
	s.router.Handle("GET /api/v1/tools/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleGetTool)))
	s.router.Handle("PUT /api/v1/tools/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleUpdateTool)))
	s.router.Handle("DELETE /api/v1/tools/{id}",
		auth.Authenticate(http.HandlerFunc(s.handleDeleteTool)))
}

// Handler exposes the middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
