package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/domain/messages"
)

type MessagesHandler struct {
	Service *messages.Service
	Env     string
}

func NewMessagesHandler(service *messages.Service, env string) *MessagesHandler {
	return &MessagesHandler{Service: service, Env: env}
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	sent, err := h.Service.Send(r.Context(), caller.BuildingID, caller.UserID, req.RecipientID, req.Body)
	if err != nil {
		h.writeMessageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sent)
}

// Conversation returns the history with one neighbor and marks their
// messages read. The caller's cached unread count is refreshed.
func (h *MessagesHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.Service.Conversation(r.Context(), caller.BuildingID, caller.UserID, pathParam(r, "id"), limit)
	if err != nil {
		h.writeMessageError(w, r, err)
		return
	}
	if history == nil {
		history = []messages.Message{}
	}

	if caller.Entry != nil {
		if unread, err := h.Service.UnreadCount(r.Context(), caller.UserID); err == nil {
			caller.Entry.UnreadCount = unread
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": history})
}

func (h *MessagesHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	unread, err := h.Service.UnreadCount(r.Context(), caller.UserID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if caller.Entry != nil {
		caller.Entry.UnreadCount = unread
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": unread})
}

func (h *MessagesHandler) writeMessageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, messages.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Message not found", err, h.Env)
	case errors.Is(err, messages.ErrRecipientInvalid), errors.Is(err, messages.ErrInvalid):
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid message", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
	}
}
