// Package api assembles the HTTP surface: routes, middleware stack, and
// handler wiring.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/courtyard-app/server/internal/api/handlers"
	"github.com/courtyard-app/server/internal/api/middleware"
	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/config"
	"github.com/courtyard-app/server/internal/domain/announcements"
	"github.com/courtyard-app/server/internal/domain/events"
	"github.com/courtyard-app/server/internal/domain/listings"
	"github.com/courtyard-app/server/internal/domain/messages"
	"github.com/courtyard-app/server/internal/domain/packages"
	"github.com/courtyard-app/server/internal/domain/residents"
	"github.com/courtyard-app/server/internal/metrics"
	"github.com/courtyard-app/server/internal/session"
	"github.com/courtyard-app/server/internal/storage/postgres"
)

// Dependencies are the shared singletons the router wires handlers onto.
// The caller owns their lifecycle.
type Dependencies struct {
	Pool     *pgxpool.Pool
	Repo     *postgres.Repository
	Sessions *session.Store
	Tokens   *auth.JWTManager
	Notifier announcements.Notifier
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Dependencies) http.Handler {
	repo := deps.Repo

	eventsService := events.NewService(repo.Events())
	announcementsService := announcements.NewService(repo.Announcements(), deps.Notifier, logger)
	packagesService := packages.NewService(repo.Packages())
	listingsService := listings.NewService(repo.Listings())
	residentsService := residents.NewService(repo.Residents(), logger)
	messagesService := messages.NewService(repo.Messages(), repo.Residents())

	env := cfg.Environment

	authHandler := handlers.NewAuthHandler(residentsService, messagesService, deps.Tokens, deps.Sessions, env)
	eventsHandler := handlers.NewEventsHandler(eventsService, env)
	announcementsHandler := handlers.NewAnnouncementsHandler(announcementsService, env)
	packagesHandler := handlers.NewPackagesHandler(packagesService, env)
	listingsHandler := handlers.NewListingsHandler(listingsService, env)
	residentsHandler := handlers.NewResidentsHandler(residentsService, env)
	messagesHandler := handlers.NewMessagesHandler(messagesService, env)

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Sessions)
	rateLimit := middleware.RateLimit(cfg.RateLimit)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)

	// The rate limiter keys authenticated requests by user, so it runs
	// inside RequireAuth.
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(rateLimit(h))
	}
	managerOnly := func(h http.HandlerFunc) http.Handler {
		return requireAuth(rateLimit(middleware.RequireManager(h)))
	}
	loginLimited := func(h http.HandlerFunc) http.Handler {
		return loginTier(rateLimit(h))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.Pool))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: loginLimited(authHandler.Register),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginLimited(authHandler.Login),
	}))
	mux.Handle("/api/v1/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: protected(authHandler.Logout),
	}))
	mux.Handle("/api/v1/me", methodMux(map[string]http.Handler{
		http.MethodGet:   protected(authHandler.Me),
		http.MethodPatch: protected(authHandler.UpdateProfile),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  protected(eventsHandler.List),
		http.MethodPost: protected(eventsHandler.Create),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    protected(eventsHandler.Get),
		http.MethodPut:    protected(eventsHandler.Update),
		http.MethodDelete: protected(eventsHandler.Delete),
	}))
	mux.Handle("/api/v1/events/{id}/rsvp", methodMux(map[string]http.Handler{
		http.MethodPost: protected(eventsHandler.RSVP),
	}))

	mux.Handle("/api/v1/announcements", methodMux(map[string]http.Handler{
		http.MethodGet:  protected(announcementsHandler.List),
		http.MethodPost: managerOnly(announcementsHandler.Create),
	}))
	mux.Handle("/api/v1/announcements/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    protected(announcementsHandler.Get),
		http.MethodPut:    managerOnly(announcementsHandler.Update),
		http.MethodDelete: managerOnly(announcementsHandler.Delete),
	}))

	mux.Handle("/api/v1/packages", methodMux(map[string]http.Handler{
		http.MethodGet:  protected(packagesHandler.List),
		http.MethodPost: managerOnly(packagesHandler.LogArrival),
	}))
	mux.Handle("/api/v1/packages/{id}/pickup", methodMux(map[string]http.Handler{
		http.MethodPost: protected(packagesHandler.MarkPickedUp),
	}))

	mux.Handle("/api/v1/listings", methodMux(map[string]http.Handler{
		http.MethodGet:  protected(listingsHandler.List),
		http.MethodPost: protected(listingsHandler.Create),
	}))
	mux.Handle("/api/v1/listings/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    protected(listingsHandler.Get),
		http.MethodPut:    protected(listingsHandler.Update),
		http.MethodDelete: protected(listingsHandler.Delete),
	}))
	mux.Handle("/api/v1/listings/{id}/like", methodMux(map[string]http.Handler{
		http.MethodPost: protected(listingsHandler.ToggleLike),
	}))

	mux.Handle("/api/v1/directory", methodMux(map[string]http.Handler{
		http.MethodGet: protected(residentsHandler.Directory),
	}))

	mux.Handle("/api/v1/messages", methodMux(map[string]http.Handler{
		http.MethodPost: protected(messagesHandler.Send),
	}))
	mux.Handle("/api/v1/messages/unread", methodMux(map[string]http.Handler{
		http.MethodGet: protected(messagesHandler.UnreadCount),
	}))
	mux.Handle("/api/v1/messages/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: protected(messagesHandler.Conversation),
	}))

	var handler http.Handler = mux
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
