package middleware

import (
	"context"
	"net/http"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/session"
)

const sessionKey contextKey = "session"

// Session is the authenticated caller's identity plus their server-side
// cached state.
type Session struct {
	UserID     string
	BuildingID string
	Role       string
	Entry      *session.Entry
}

// RequireAuth validates the bearer token and attaches the caller's session
// to the request context. A valid token whose cache entry expired gets a
// fresh entry; the token, not the cache, is the source of truth.
func RequireAuth(tokens *auth.JWTManager, sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			entry, ok := sessions.Get(claims.Subject)
			if !ok {
				entry = sessions.Init(claims.Subject, claims.BuildingID, claims.Role)
			}

			caller := &Session{
				UserID:     claims.Subject,
				BuildingID: claims.BuildingID,
				Role:       claims.Role,
				Entry:      entry,
			}
			ctx := context.WithValue(r.Context(), sessionKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireManager rejects callers whose role cannot manage the building.
// Must run after RequireAuth.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := SessionFromContext(r.Context())
		if caller == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !auth.CanManage(caller.Role) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	if caller, ok := ctx.Value(sessionKey).(*Session); ok {
		return caller
	}
	return nil
}

// ContextWithSession attaches a session to a context (exported for testing).
func ContextWithSession(ctx context.Context, caller *Session) context.Context {
	return context.WithValue(ctx, sessionKey, caller)
}
