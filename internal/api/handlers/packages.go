package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/domain/packages"
)

type PackagesHandler struct {
	Service *packages.Service
	Env     string
}

func NewPackagesHandler(service *packages.Service, env string) *PackagesHandler {
	return &PackagesHandler{Service: service, Env: env}
}

func (h *PackagesHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	pendingOnly, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	items, err := h.Service.List(r.Context(), caller.BuildingID, caller.UserID, caller.Role, pendingOnly)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if items == nil {
		items = []packages.Package{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type arrivalRequest struct {
	RecipientID string `json:"recipient_id"`
	Carrier     string `json:"carrier"`
	Note        string `json:"note"`
}

func (h *PackagesHandler) LogArrival(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req arrivalRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	item, err := h.Service.LogArrival(r.Context(), caller.BuildingID, caller.Role, packages.ArrivalInput{
		RecipientID: req.RecipientID,
		Carrier:     req.Carrier,
		Note:        req.Note,
	})
	if err != nil {
		h.writePackageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *PackagesHandler) MarkPickedUp(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	item, err := h.Service.MarkPickedUp(r.Context(), caller.BuildingID, caller.UserID, caller.Role, pathParam(r, "id"))
	if err != nil {
		h.writePackageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *PackagesHandler) writePackageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, packages.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Package not found", err, h.Env)
	case errors.Is(err, packages.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, typeForbidden, "Forbidden", err, h.Env)
	case errors.Is(err, packages.ErrAlreadyPickedUp):
		problem.Write(w, r, http.StatusConflict, typeConflict, "Package already picked up", err, h.Env)
	case errors.Is(err, packages.ErrInvalid):
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid package", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
	}
}
