// Package handlers contains the HTTP endpoints of the Courtyard API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	typeValidationError = "https://courtyard.app/problems/validation-error"
	typeNotFound        = "https://courtyard.app/problems/not-found"
	typeForbidden       = "https://courtyard.app/problems/forbidden"
	typeUnauthorized    = "https://courtyard.app/problems/unauthorized"
	typeConflict        = "https://courtyard.app/problems/conflict"
	typeServerError     = "https://courtyard.app/problems/server-error"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}
