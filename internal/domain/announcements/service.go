package announcements

import (
	"context"
	"fmt"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/domain/ids"
	"github.com/courtyard-app/server/internal/sanitize"
	"github.com/rs/zerolog"
)

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger
}

// NewService wires the announcement service. notifier may be nil when the
// job queue is disabled.
func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func (s *Service) List(ctx context.Context, buildingID string, limit int) ([]Announcement, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, buildingID, limit)
}

func (s *Service) Get(ctx context.Context, buildingID, ulid string) (*Announcement, error) {
	return s.repo.GetByULID(ctx, buildingID, ulid)
}

type Input struct {
	Title    string
	Body     string
	Category string
	Pinned   bool
}

func (s *Service) Create(ctx context.Context, buildingID, userID, role string, input Input) (*Announcement, error) {
	if !auth.CanManage(role) {
		return nil, ErrForbidden
	}
	category, title, body, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint ulid: %w", err)
	}

	created, err := s.repo.Create(ctx, CreateParams{
		ULID:       ulid,
		BuildingID: buildingID,
		AuthorID:   userID,
		Title:      title,
		Body:       body,
		Category:   category,
		Pinned:     input.Pinned,
	})
	if err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}

	// The announcement exists either way; a queue hiccup only delays mail.
	if s.notifier != nil {
		if err := s.notifier.NotifyAnnouncement(ctx, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("announcement", created.ULID).Msg("notify enqueue failed")
		}
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, buildingID, role, ulid string, input Input) (*Announcement, error) {
	if !auth.CanManage(role) {
		return nil, ErrForbidden
	}
	category, title, body, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, UpdateParams{
		BuildingID: buildingID,
		ULID:       ulid,
		Title:      title,
		Body:       body,
		Category:   category,
		Pinned:     input.Pinned,
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, buildingID, role, ulid string) error {
	if !auth.CanManage(role) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, buildingID, ulid)
}

func (s *Service) normalize(input Input) (Category, string, string, error) {
	category, err := ParseCategory(input.Category)
	if err != nil {
		return "", "", "", err
	}
	title := sanitize.Text(input.Title)
	if title == "" {
		return "", "", "", fmt.Errorf("%w: title is required", ErrInvalid)
	}
	return category, title, sanitize.HTML(input.Body), nil
}
