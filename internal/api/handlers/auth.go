package handlers

import (
	"errors"
	"net/http"

	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/api/problem"
	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/domain/messages"
	"github.com/courtyard-app/server/internal/domain/residents"
	"github.com/courtyard-app/server/internal/session"
)

type AuthHandler struct {
	Residents *residents.Service
	Messages  *messages.Service
	Tokens    *auth.JWTManager
	Sessions  *session.Store
	Env       string
}

func NewAuthHandler(residentsService *residents.Service, messagesService *messages.Service, tokens *auth.JWTManager, sessions *session.Store, env string) *AuthHandler {
	return &AuthHandler{
		Residents: residentsService,
		Messages:  messagesService,
		Tokens:    tokens,
		Sessions:  sessions,
		Env:       env,
	}
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	BuildingCode string `json:"building_code"`
	ShareContact bool   `json:"share_contact"`
}

type authResponse struct {
	Token    string              `json:"token"`
	Resident *residents.Resident `json:"resident"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	resident, err := h.Residents.Register(r.Context(), residents.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		Unit:         req.Unit,
		BuildingCode: req.BuildingCode,
		ShareContact: req.ShareContact,
	})
	if err != nil {
		switch {
		case errors.Is(err, residents.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, typeConflict, "Email already registered", err, h.Env)
		case errors.Is(err, residents.ErrBuildingNotFound):
			problem.Write(w, r, http.StatusNotFound, typeNotFound, "Unknown building code", err, h.Env)
		default:
			problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid registration", err, h.Env)
		}
		return
	}

	h.issueSession(w, r, resident, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	resident, err := h.Residents.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, typeUnauthorized, "Invalid credentials", err, h.Env)
		return
	}

	h.issueSession(w, r, resident, http.StatusOK)
}

// issueSession mints the JWT and initializes the server-side session entry,
// so a fresh login never inherits stale cached state.
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, resident *residents.Resident, status int) {
	token, err := h.Tokens.Generate(resident.ID, resident.BuildingID, resident.Role)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}

	entry := h.Sessions.Init(resident.ID, resident.BuildingID, resident.Role)
	if unread, err := h.Messages.UnreadCount(r.Context(), resident.ID); err == nil {
		entry.UnreadCount = unread
	}

	writeJSON(w, status, authResponse{Token: token, Resident: resident})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	h.Sessions.Clear(caller.UserID)
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	Resident    *residents.Resident `json:"resident"`
	UnreadCount int                 `json:"unread_count"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	resident, err := h.Residents.Get(r.Context(), caller.UserID)
	if err != nil {
		problem.Write(w, r, http.StatusNotFound, typeNotFound, "Resident not found", err, h.Env)
		return
	}

	unread, err := h.Messages.UnreadCount(r.Context(), caller.UserID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, typeServerError, "Server error", err, h.Env)
		return
	}
	if caller.Entry != nil {
		caller.Entry.UnreadCount = unread
	}

	writeJSON(w, http.StatusOK, meResponse{Resident: resident, UnreadCount: unread})
}

type profileRequest struct {
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Phone        string `json:"phone"`
	ShareContact bool   `json:"share_contact"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller := middleware.SessionFromContext(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid request", err, h.Env)
		return
	}

	resident, err := h.Residents.UpdateProfile(r.Context(), caller.UserID, residents.ProfileInput{
		Name:         req.Name,
		Unit:         req.Unit,
		Phone:        req.Phone,
		ShareContact: req.ShareContact,
	})
	if err != nil {
		if errors.Is(err, residents.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, typeNotFound, "Resident not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusBadRequest, typeValidationError, "Invalid profile", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, resident)
}
