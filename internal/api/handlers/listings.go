package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/domain/listings"
)

type ListingsHandler struct {
	Service *listings.Service
	Env     string
}

func NewListingsHandler(service *listings.Service, env string) *ListingsHandler {
	return &ListingsHandler{Service: service, Env: env}
}

func (h *ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// Closed listings stay hidden unless the board is asked for history.
	includeClosed, _ := strconv.ParseBool(r.URL.Query().Get("include_closed"))
	items, err := h.Service.List(r.Context(), caller.BuildingID, r.URL.Query().Get("category"), !includeClosed)
	if err != nil {
		if errors.Is(err, listings.ErrUnknownCategory) {
			problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Unknown category", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if items == nil {
		items = []listings.Listing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	item, err := h.Service.Get(r.Context(), caller.BuildingID, pathParam(r, "id"))
	if err != nil {
		h.writeListingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type listingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  *int   `json:"price_cents"`
	Closed      bool   `json:"closed"`
}

func (req listingRequest) input() listings.Input {
	return listings.Input{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Closed:      req.Closed,
	}
}

func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Create(r.Context(), caller.BuildingID, caller.UserID, req.input())
	if err != nil {
		h.writeListingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req listingRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.Update(r.Context(), caller.BuildingID, caller.UserID, caller.Role, pathParam(r, "id"), req.input())
	if err != nil {
		h.writeListingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.Service.Delete(r.Context(), caller.BuildingID, caller.UserID, caller.Role, pathParam(r, "id")); err != nil {
		h.writeListingError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingsHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	item, err := h.Service.ToggleLike(r.Context(), caller.BuildingID, caller.UserID, pathParam(r, "id"))
	if err != nil {
		h.writeListingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ListingsHandler) writeListingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, listings.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Listing not found", err, h.Env)
	case errors.Is(err, listings.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, listings.ErrUnknownCategory), errors.Is(err, listings.ErrInvalid):
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid listing", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
	}
}
