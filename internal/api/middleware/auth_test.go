package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/session"
)

func newAuthMiddleware(t *testing.T) (*auth.JWTManager, *session.Store, func(http.Handler) http.Handler) {
	t.Helper()
	tokens := auth.NewJWTManager("test-secret-test-secret", time.Hour, "courtyard")
	sessions := session.NewStore(time.Hour)
	return tokens, sessions, RequireAuth(tokens, sessions)
}

func okHandler(captured **Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tokens, _, requireAuth := newAuthMiddleware(t)
	token, err := tokens.Generate("user-1", "building-1", "resident")
	require.NoError(t, err)

	var caller *Session
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/events", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	requireAuth(okHandler(&caller)).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, caller)
	assert.Equal(t, "user-1", caller.UserID)
	assert.Equal(t, "building-1", caller.BuildingID)
	assert.Equal(t, "resident", caller.Role)
	require.NotNil(t, caller.Entry)
}

func TestRequireAuthRejectsMissingOrBadToken(t *testing.T) {
	_, _, requireAuth := newAuthMiddleware(t)

	var caller *Session
	handler := requireAuth(okHandler(&caller))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/events", nil)
	r.Header.Set("Authorization", "Bearer not.a.token")
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRecreatesExpiredCacheEntry(t *testing.T) {
	tokens, sessions, requireAuth := newAuthMiddleware(t)
	token, err := tokens.Generate("user-2", "building-1", "manager")
	require.NoError(t, err)

	// No prior Init: simulates a server restart after login.
	var caller *Session
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/packages", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	requireAuth(okHandler(&caller)).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	_, ok := sessions.Get("user-2")
	assert.True(t, ok)
}

func TestRequireManager(t *testing.T) {
	resident := &Session{UserID: "u1", BuildingID: "b1", Role: "resident"}
	manager := &Session{UserID: "u2", BuildingID: "b1", Role: "manager"}

	handler := RequireManager(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/v1/announcements", nil)
	handler.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), resident)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest("POST", "/api/v1/announcements", nil)
	handler.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), manager)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/announcements", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
