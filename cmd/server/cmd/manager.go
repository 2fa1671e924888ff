package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/config"
	"github.com/courtyard-app/server/internal/domain/ids"
	"github.com/courtyard-app/server/internal/domain/residents"
	"github.com/courtyard-app/server/internal/storage/postgres"
)

var createManagerCmd = &cobra.Command{
	Use:   "create-manager",
	Short: "Create a building manager account",
	Long: `Create a building manager account from the MANAGER_* environment
variables (MANAGER_EMAIL, MANAGER_PASSWORD, MANAGER_NAME,
MANAGER_BUILDING_CODE).

The serve command runs the same bootstrap on startup; this command exists
for provisioning a manager without starting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg.Logging)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return fmt.Errorf("init repository: %w", err)
		}
		return bootstrapManager(ctx, cfg, repo, logger)
	},
}

// bootstrapManager creates the manager account named by the MANAGER_* env
// vars if it does not exist yet. An existing account with that email is
// left untouched.
func bootstrapManager(ctx context.Context, cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) error {
	bootstrap := cfg.ManagerBootstrap
	if bootstrap.Email == "" || bootstrap.Password == "" || bootstrap.Building == "" {
		logger.Warn().Msg("manager bootstrap env vars not fully set; skipping")
		return nil
	}

	residentsRepo := repo.Residents()

	if _, err := residentsRepo.GetByEmail(ctx, bootstrap.Email); err == nil {
		return nil
	} else if !errors.Is(err, residents.ErrNotFound) {
		return fmt.Errorf("check manager account: %w", err)
	}

	building, err := residentsRepo.GetBuildingByCode(ctx, bootstrap.Building)
	if err != nil {
		return fmt.Errorf("resolve building %q: %w", bootstrap.Building, err)
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hash manager password: %w", err)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return fmt.Errorf("mint ulid: %w", err)
	}

	name := bootstrap.Name
	if name == "" {
		name = "Building Manager"
	}

	created, err := residentsRepo.Create(ctx, residents.CreateParams{
		ULID:         ulid,
		BuildingID:   building.ID,
		Email:        bootstrap.Email,
		PasswordHash: hash,
		Name:         name,
		Role:         string(auth.RoleManager),
	})
	if err != nil {
		if errors.Is(err, residents.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("create manager account: %w", err)
	}

	// Redact the email in production logs.
	if cfg.Environment == "production" {
		logger.Info().Str("building", building.Code).Msg("bootstrapped manager account")
	} else {
		logger.Info().Str("email", bootstrap.Email).Str("building", building.Code).Str("manager", created.ULID).Msg("bootstrapped manager account")
	}
	return nil
}
