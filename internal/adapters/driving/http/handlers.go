package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness of the API and its backing services
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backing service is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]Pinger{
		"database": s.db,
		"queue":    s.taskQueue,
		"redis":    s.redis,
	}
	for name, p := range checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "dependency", name, "error", err)
			writeError(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Chat endpoint

// ChatRequest is the inbound message from a channel adapter or the web widget
type ChatRequest struct {
	BotID     string `json:"bot_id" example:"bot_01"`
	VisitorID string `json:"visitor_id" example:"visitor_42"`
	Message   string `json:"message" example:"Where is my order?"`
	Channel   string `json:"channel" example:"web"`
}

// handleChat godoc
// @Summary      Send a chat message
// @Description  Runs the retrieval and tool-calling exchange and returns the bot's answer
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      ChatRequest  true  "Inbound message"
// @Success      200      {object}  domain.ChatResult
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      403      {object}  ErrorResponse  "Bot is inactive"
// @Failure      404      {object}  ErrorResponse  "Unknown bot"
// @Router       /chat [post]
// @Security     BearerAuth
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BotID == "" || req.VisitorID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "bot_id, visitor_id and message are required")
		return
	}
	channel := domain.Channel(req.Channel)
	if req.Channel == "" {
		channel = domain.ChannelWeb
	}

	result, err := s.chatbotService.Execute(r.Context(), tenant.CompanyID, req.BotID, req.VisitorID, req.Message, channel)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Conversation endpoints

// handleListConversations godoc
// @Summary      List conversations
// @Description  Returns one page of the company's conversations with previews
// @Tags         Conversations
// @Produce      json
// @Param        status   query     string  false  "Filter by status"
// @Param        channel  query     string  false  "Filter by channel"
// @Param        visitor  query     string  false  "Filter by visitor id substring"
// @Param        page     query     int     false  "Page number (1-based)"
// @Param        limit    query     int     false  "Page size"
// @Success      200      {object}  domain.ConversationPage
// @Router       /conversations [get]
// @Security     BearerAuth
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	q := r.URL.Query()

	filter := domain.ConversationFilter{
		Status:  domain.ConversationStatus(q.Get("status")),
		Channel: domain.Channel(q.Get("channel")),
		Visitor: q.Get("visitor"),
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := s.conversationService.List(r.Context(), tenant.CompanyID, filter, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetConversationMessages godoc
// @Summary      Get conversation history
// @Description  Returns a conversation's messages in creation order
// @Tags         Conversations
// @Produce      json
// @Param        id     path      string  true   "Conversation ID"
// @Param        limit  query     int     false  "Maximum number of messages"
// @Success      200    {array}   domain.Message
// @Failure      404    {object}  ErrorResponse  "Conversation not found"
// @Router       /conversations/{id}/messages [get]
// @Security     BearerAuth
func (s *Server) handleGetConversationMessages(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := s.conversationService.GetHistory(r.Context(), tenant.CompanyID, id, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// UpdateConversationStatusRequest changes a conversation's lifecycle status
type UpdateConversationStatusRequest struct {
	Status string `json:"status" example:"resolved"`
}

// handleUpdateConversationStatus godoc
// @Summary      Update conversation status
// @Description  Resolves or archives a conversation
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Conversation ID"
// @Param        request  body      UpdateConversationStatusRequest  true  "New status"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse  "Unknown status"
// @Failure      404      {object}  ErrorResponse  "Conversation not found"
// @Router       /conversations/{id}/status [put]
// @Security     BearerAuth
func (s *Server) handleUpdateConversationStatus(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")

	var req UpdateConversationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.conversationService.UpdateStatus(r.Context(), tenant.CompanyID, id, domain.ConversationStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Document endpoints

// handleListDocuments godoc
// @Summary      List documents
// @Description  Returns a bot's documents, newest first
// @Tags         Documents
// @Produce      json
// @Param        bot_id  query     string  true   "Bot ID"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {array}   domain.Document
// @Failure      400     {object}  ErrorResponse  "Missing bot_id"
// @Router       /documents [get]
// @Security     BearerAuth
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	q := r.URL.Query()

	botID := q.Get("bot_id")
	if botID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	docs, err := s.documentService.List(r.Context(), tenant.CompanyID, botID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument godoc
// @Summary      Get a document
// @Description  Returns a document with its ingestion status
// @Tags         Documents
// @Produce      json
// @Param        id      path      string  true  "Document ID"
// @Param        bot_id  query     string  true  "Bot ID"
// @Success      200     {object}  domain.Document
// @Failure      404     {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
// @Security     BearerAuth
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")
	botID := r.URL.Query().Get("bot_id")
	if botID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	doc, err := s.documentService.Get(r.Context(), tenant.CompanyID, botID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleIngestDocument godoc
// @Summary      Enqueue document ingestion
// @Description  Hands a pending document to the ingestion queue
// @Tags         Documents
// @Produce      json
// @Param        id      path      string  true  "Document ID"
// @Param        bot_id  query     string  true  "Bot ID"
// @Success      202     {object}  StatusResponse
// @Failure      404     {object}  ErrorResponse  "Document not found"
// @Failure      409     {object}  ErrorResponse  "Ingestion already running"
// @Router       /documents/{id}/ingest [post]
// @Security     BearerAuth
func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")
	botID := r.URL.Query().Get("bot_id")
	if botID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	if err := s.documentService.Enqueue(r.Context(), tenant.CompanyID, botID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleReingestDocument godoc
// @Summary      Re-ingest a document
// @Description  Re-enqueues an existing document; prior chunks are replaced when the run completes
// @Tags         Documents
// @Produce      json
// @Param        id      path      string  true  "Document ID"
// @Param        bot_id  query     string  true  "Bot ID"
// @Success      202     {object}  StatusResponse
// @Failure      404     {object}  ErrorResponse  "Document not found"
// @Failure      409     {object}  ErrorResponse  "Ingestion already running"
// @Router       /documents/{id}/reingest [post]
// @Security     BearerAuth
func (s *Server) handleReingestDocument(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")
	botID := r.URL.Query().Get("bot_id")
	if botID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	if err := s.documentService.Reingest(r.Context(), tenant.CompanyID, botID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes the document and all of its chunks
// @Tags         Documents
// @Produce      json
// @Param        id      path      string  true  "Document ID"
// @Param        bot_id  query     string  true  "Bot ID"
// @Success      200     {object}  StatusResponse
// @Failure      404     {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [delete]
// @Security     BearerAuth
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")
	botID := r.URL.Query().Get("bot_id")
	if botID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	if err := s.documentService.Delete(r.Context(), tenant.CompanyID, botID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Tool endpoints

// ToolRequest creates or updates a tool definition
type ToolRequest struct {
	BotID       string                 `json:"bot_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	EndpointURL string                 `json:"endpoint_url"`
	Method      string                 `json:"method"`
	Headers     map[string]string      `json:"headers,omitempty"`
	AuthType    string                 `json:"auth_type"`
	Credential  string                 `json:"credential,omitempty"`
	TimeoutMs   int                    `json:"timeout_ms,omitempty"`
	Parameters  domain.ParameterSchema `json:"parameters_schema"`
	Active      *bool                  `json:"is_active,omitempty"`
}

func (req *ToolRequest) toDefinition(companyID string) *domain.ToolDefinition {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &domain.ToolDefinition{
		CompanyID:   companyID,
		BotID:       req.BotID,
		Name:        req.Name,
		Description: req.Description,
		EndpointURL: req.EndpointURL,
		Method:      domain.HTTPMethod(req.Method),
		Headers:     req.Headers,
		AuthType:    domain.AuthType(req.AuthType),
		Credential:  req.Credential,
		TimeoutMs:   req.TimeoutMs,
		Parameters:  req.Parameters,
		Active:      active,
	}
}

// handleListTools godoc
// @Summary      List tools
// @Description  Returns all tool definitions for a bot
// @Tags         Tools
// @Produce      json
// @Param        bot_id  query     string  true  "Bot ID"
// @Success      200     {array}   domain.ToolDefinition
// @Failure      400     {object}  ErrorResponse  "Missing bot_id"
// @Router       /tools [get]
// @Security     BearerAuth
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	botID := r.URL.Query().Get("bot_id")
	if botID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	tools, err := s.toolService.List(r.Context(), tenant.CompanyID, botID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tools)
}

// handleCreateTool godoc
// @Summary      Create a tool
// @Description  Validates and stores a new tool definition
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Param        request  body      ToolRequest  true  "Tool definition"
// @Success      201      {object}  domain.ToolDefinition
// @Failure      400      {object}  ErrorResponse  "Validation failure"
// @Failure      409      {object}  ErrorResponse  "Function name already taken"
// @Router       /tools [post]
// @Security     BearerAuth
func (s *Server) handleCreateTool(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())

	var req ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BotID == "" {
		writeError(w, http.StatusBadRequest, "bot_id is required")
		return
	}

	def := req.toDefinition(tenant.CompanyID)
	if err := s.toolService.Create(r.Context(), def); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, def)
}

// handleGetTool godoc
// @Summary      Get a tool
// @Description  Returns one tool definition
// @Tags         Tools
// @Produce      json
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  domain.ToolDefinition
// @Failure      404  {object}  ErrorResponse  "Tool not found"
// @Router       /tools/{id} [get]
// @Security     BearerAuth
func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")

	def, err := s.toolService.Get(r.Context(), tenant.CompanyID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, def)
}

// handleUpdateTool godoc
// @Summary      Update a tool
// @Description  Validates and stores changes to an existing tool definition
// @Tags         Tools
// @Accept       json
// @Produce      json
// @Param        id       path      string       true  "Tool ID"
// @Param        request  body      ToolRequest  true  "Tool definition"
// @Success      200      {object}  domain.ToolDefinition
// @Failure      400      {object}  ErrorResponse  "Validation failure"
// @Failure      404      {object}  ErrorResponse  "Tool not found"
// @Failure      409      {object}  ErrorResponse  "Function name already taken"
// @Router       /tools/{id} [put]
// @Security     BearerAuth
func (s *Server) handleUpdateTool(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")

	var req ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	def := req.toDefinition(tenant.CompanyID)
	def.ID = id
	if err := s.toolService.Update(r.Context(), def); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, def)
}

// handleDeleteTool godoc
// @Summary      Delete a tool
// @Description  Removes a tool definition
// @Tags         Tools
// @Produce      json
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Tool not found"
// @Router       /tools/{id} [delete]
// @Security     BearerAuth
func (s *Server) handleDeleteTool(w http.ResponseWriter, r *http.Request) {
	tenant := GetTenant(r.Context())
	id := r.PathValue("id")

	if err := s.toolService.Delete(r.Context(), tenant.CompanyID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrIngestionInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
