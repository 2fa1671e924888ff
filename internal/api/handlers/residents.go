package handlers

import (
	"net/http"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/domain/residents"
)

type ResidentsHandler struct {
	Service *residents.Service
	Env     string
}

func NewResidentsHandler(service *residents.Service, env string) *ResidentsHandler {
	return &ResidentsHandler{Service: service, Env: env}
}

// Directory lists the neighbors who opted into sharing contact details.
func (h *ResidentsHandler) Directory(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	items, err := h.Service.Directory(r.Context(), caller.BuildingID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if items == nil {
		items = []residents.Resident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
