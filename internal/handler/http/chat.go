package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/service"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/httputil"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/middleware"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/validator"
)

// maxHistoryTurns is how many of the most recent history entries a
// generate call forwards to the model.
const maxHistoryTurns = 50

// ChatHandler handles the assistant chat endpoints. Every route acts on
// the authenticated user's own chats.
type ChatHandler struct {
	service *service.ChatService
	logger  *slog.Logger
}

func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

type CreateChatRequest struct {
	Title string `json:"title"`
}

type RenameChatRequest struct {
	Title string `json:"title" validate:"required"`
}

type AddMessageRequest struct {
	ChatID  string `json:"chatId" validate:"required,uuid"`
	Role    string `json:"role" validate:"required,oneof=user model"`
	Content string `json:"content" validate:"required"`
}

type GenerateRequest struct {
	Prompt  string   `json:"prompt" validate:"required"`
	History []string `json:"history"`
}

// --- Handlers ---

// ListChats handles GET /api/v1/chats
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.service.ListChats(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, chats)
}

// CreateChat handles POST /api/v1/chats. The body is optional.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if r.ContentLength != 0 && !httputil.DecodeJSON(w, r, &req) {
		return
	}

	chat, err := h.service.CreateChat(r.Context(), middleware.UserIDFromContext(r.Context()), req.Title)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, chat)
}

// GetChat handles GET /api/v1/chats/{id}
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	chat, err := h.service.GetChat(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, chat)
}

// RenameChat handles PUT /api/v1/chats/{id}
func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req RenameChatRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	chat, err := h.service.RenameChat(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), req.Title)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, chat)
}

// DeleteChat handles DELETE /api/v1/chats/{id}
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteChat(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}

// AddMessage handles POST /api/v1/messages
func (h *ChatHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req AddMessageRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	msg, err := h.service.AddMessage(r.Context(), service.AddMessageInput{
		UserID:  middleware.UserIDFromContext(r.Context()),
		ChatID:  req.ChatID,
		Role:    req.Role,
		Content: req.Content,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, msg)
}

// Generate handles POST /api/v1/generate and answers with HTML.
func (h *ChatHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if len(req.History) > maxHistoryTurns {
		req.History = req.History[len(req.History)-maxHistoryTurns:]
	}

	text, err := h.service.Generate(r.Context(), service.GenerateInput{
		Prompt:  req.Prompt,
		History: req.History,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"response": text})
}
