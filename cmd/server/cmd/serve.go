package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/courtyard-app/server/internal/api"
	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/config"
	"github.com/courtyard-app/server/internal/email"
	"github.com/courtyard-app/server/internal/jobs"
	"github.com/courtyard-app/server/internal/metrics"
	"github.com/courtyard-app/server/internal/session"
	"github.com/courtyard-app/server/internal/storage/postgres"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

const sessionTTL = 30 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Courtyard HTTP server",
	Long: `Start the Courtyard HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap a manager account if MANAGER_* env vars are set
- Start River workers for announcement emails and package reminders
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting courtyard server")

	metrics.AppInfo.WithLabelValues(Version, GitCommit, BuildDate).Set(1)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapManager(bootstrapCtx, cfg, repo, logger); err != nil {
		logger.Error().Err(err).Msg("manager bootstrap failed")
	}
	bootstrapCancel()

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	sessions := session.NewStore(sessionTTL)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweepSessions(sweepCtx, sessions, logger)

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("init email service: %w", err)
	}

	var notifier *jobs.Notifier
	var riverClient *river.Client[pgx.Tx]
	if cfg.Jobs.Enabled {
		riverClient, err = startJobs(cfg, pool, repo, mailer, logger)
		if err != nil {
			return fmt.Errorf("start background jobs: %w", err)
		}
		defer stopJobs(riverClient, logger)
		notifier = jobs.NewNotifier(riverClient)
	} else {
		logger.Warn().Msg("background jobs disabled, announcement emails and package reminders will not run")
		notifier = jobs.NewNotifier(nil)
	}

	handler := api.NewRouter(cfg, logger, api.Dependencies{
		Pool:     pool,
		Repo:     repo,
		Sessions: sessions,
		Tokens:   tokens,
		Notifier: notifier,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func startJobs(cfg config.Config, pool *pgxpool.Pool, repo *postgres.Repository, mailer *email.Service, logger zerolog.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, jobs.AnnouncementNotifyWorker{
		Announcements: repo.Announcements(),
		Buildings:     repo.Residents(),
		Mailer:        mailer,
		Logger:        logger,
	}); err != nil {
		return nil, fmt.Errorf("register announcement worker: %w", err)
	}
	if err := river.AddWorkerSafely(workers, jobs.PackageReminderWorker{
		Packages:    repo.Packages(),
		Recipients:  repo.Residents(),
		Mailer:      mailer,
		RemindAfter: cfg.Jobs.PackageReminderAfter,
		Logger:      logger,
	}); err != nil {
		return nil, fmt.Errorf("register package reminder worker: %w", err)
	}

	// River logs through slog.
	slogLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	client, err := jobs.NewClient(pool, workers, slogLogger, jobs.NewPeriodicJobs(cfg.Jobs.PackageReminderEvery))
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	if err := client.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("start river workers: %w", err)
	}
	logger.Info().Msg("river background job workers started")
	return client, nil
}

func stopJobs(client *river.Client[pgx.Tx], logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("river workers shutdown error")
		return
	}
	logger.Info().Msg("river workers stopped")
}

func sweepSessions(ctx context.Context, sessions *session.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Sweep(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("swept expired sessions")
			}
		}
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
