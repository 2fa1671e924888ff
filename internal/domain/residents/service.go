package residents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/domain/ids"
	"github.com/courtyard-app/server/internal/sanitize"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

type RegisterInput struct {
	Email        string `validate:"required,email"`
	Password     string `validate:"required,min=8"`
	Name         string `validate:"required,min=1,max=120"`
	Unit         string `validate:"max=20"`
	BuildingCode string `validate:"required"`
	ShareContact bool
}

// Register creates a resident account against a building join code.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Resident, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate registration: %w", err)
	}

	building, err := s.repo.GetBuildingByCode(ctx, strings.TrimSpace(input.BuildingCode))
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint ulid: %w", err)
	}

	created, err := s.repo.Create(ctx, CreateParams{
		ULID:         ulid,
		BuildingID:   building.ID,
		Email:        input.Email,
		PasswordHash: hash,
		Name:         sanitize.Text(input.Name),
		Unit:         sanitize.Text(input.Unit),
		Role:         string(auth.RoleResident),
		ShareContact: input.ShareContact,
	})
	if err != nil {
		return nil, fmt.Errorf("create resident: %w", err)
	}

	s.logger.Info().Str("resident", created.ULID).Str("building", building.Code).Msg("resident registered")
	created.PasswordHash = ""
	return created, nil
}

// Authenticate verifies email and password. Lookup failures and bad
// passwords collapse into one error so the response can't be used to probe
// for accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Resident, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	resident, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup resident: %w", err)
	}
	if !auth.VerifyPassword(resident.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return resident, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Resident, error) {
	return s.repo.GetByID(ctx, id)
}

type ProfileInput struct {
	Name         string `validate:"required,min=1,max=120"`
	Unit         string `validate:"max=20"`
	Phone        string `validate:"max=30"`
	ShareContact bool
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*Resident, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validate profile: %w", err)
	}
	return s.repo.UpdateProfile(ctx, ProfileParams{
		UserID:       userID,
		Name:         sanitize.Text(input.Name),
		Unit:         sanitize.Text(input.Unit),
		Phone:        sanitize.Text(input.Phone),
		ShareContact: input.ShareContact,
	})
}

// Directory lists neighbors who opted into contact sharing.
func (s *Service) Directory(ctx context.Context, buildingID string) ([]Resident, error) {
	return s.repo.Directory(ctx, buildingID)
}
