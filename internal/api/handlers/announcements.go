package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/domain/announcements"
)

type AnnouncementsHandler struct {
	Service *announcements.Service
	Env     string
}

func NewAnnouncementsHandler(service *announcements.Service, env string) *AnnouncementsHandler {
	return &AnnouncementsHandler{Service: service, Env: env}
}

func (h *AnnouncementsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Service.List(r.Context(), caller.BuildingID, limit)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if items == nil {
		items = []announcements.Announcement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *AnnouncementsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	item, err := h.Service.Get(r.Context(), caller.BuildingID, pathParam(r, "id"))
	if err != nil {
		h.writeAnnouncementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type announcementRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	Pinned   bool   `json:"pinned"`
}

func (h *AnnouncementsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req announcementRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Create(r.Context(), caller.BuildingID, caller.UserID, caller.Role, announcements.Input{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Pinned:   req.Pinned,
	})
	if err != nil {
		h.writeAnnouncementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *AnnouncementsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req announcementRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Update(r.Context(), caller.BuildingID, caller.Role, pathParam(r, "id"), announcements.Input{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
		Pinned:   req.Pinned,
	})
	if err != nil {
		h.writeAnnouncementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *AnnouncementsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.Service.Delete(r.Context(), caller.BuildingID, caller.Role, pathParam(r, "id")); err != nil {
		h.writeAnnouncementError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnnouncementsHandler) writeAnnouncementError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, announcements.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Announcement not found", err, h.Env)
	case errors.Is(err, announcements.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, announcements.ErrUnknownCategory), errors.Is(err, announcements.ErrInvalid):
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid announcement", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
	}
}
