package events

import (
	"context"
	"fmt"
	"time"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/compensate"
	"github.com/courtyard-app/server/internal/domain/ids"
	"github.com/courtyard-app/server/internal/sanitize"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, buildingID string, pagination Pagination) (ListResult, error) {
	return s.repo.List(ctx, buildingID, pagination)
}

// Calendar returns the occurrences for a building inside the requested
// window (or the default sliding window), recurring events expanded.
func (s *Service) Calendar(ctx context.Context, buildingID string, filters Filters) ([]Occurrence, error) {
	from, to := filters.Window(s.now())
	stored, err := s.repo.ListForWindow(ctx, buildingID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events for window: %w", err)
	}
	if !filters.Expand {
		occurrences := make([]Occurrence, 0, len(stored))
		for _, event := range stored {
			occurrences = append(occurrences, Occurrence{Event: event})
		}
		return occurrences, nil
	}
	return ExpandAll(stored, from, to), nil
}

func (s *Service) Get(ctx context.Context, buildingID, ulid string) (*Event, error) {
	return s.repo.GetByULID(ctx, buildingID, ulid)
}

// CreateInput mirrors the event form: a repeat keyword plus an optional
// end date instead of a raw rule. The rule is derived from the keyword and
// the event's start date, the same pathway the mobile form used.
type CreateInput struct {
	Title         string
	Description   string
	Location      string
	StartTime     time.Time
	EndTime       *time.Time
	Repeat        string
	RecurrenceEnd *time.Time
}

func (s *Service) Create(ctx context.Context, buildingID, userID string, input CreateInput) (*Event, error) {
	params, err := s.buildParams(buildingID, userID, input)
	if err != nil {
		return nil, err
	}
	params.ULID, err = ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint ulid: %w", err)
	}
	created, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, buildingID, userID, role, ulid string, input CreateInput) (*Event, error) {
	existing, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return nil, err
	}
	if existing.CreatedBy != userID && !auth.CanManage(role) {
		return nil, ErrForbidden
	}

	params, err := s.buildParams(buildingID, userID, input)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, UpdateParams{
		BuildingID:    buildingID,
		ULID:          ulid,
		Title:         params.Title,
		Description:   params.Description,
		Location:      params.Location,
		StartTime:     params.StartTime,
		EndTime:       params.EndTime,
		Recurrence:    params.Recurrence,
		RecurrenceEnd: params.RecurrenceEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, buildingID, userID, role, ulid string) error {
	existing, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID && !auth.CanManage(role) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, buildingID, ulid)
}

// RSVP records going/not-going for a resident and returns the event with
// its going count already adjusted. The count is updated optimistically and
// rolled back if persistence fails.
func (s *Service) RSVP(ctx context.Context, buildingID, userID, ulid string, going bool) (*Event, error) {
	event, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return nil, err
	}

	wasGoing, found, err := s.repo.GetRSVP(ctx, event.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("load rsvp: %w", err)
	}

	delta := 0
	switch {
	case going && (!found || !wasGoing):
		delta = 1
	case !going && found && wasGoing:
		delta = -1
	}

	err = compensate.Run(ctx, compensate.Op{
		Apply:   func() { event.GoingCount += delta },
		Attempt: func(ctx context.Context) error { return s.repo.SetRSVP(ctx, event.ID, userID, going) },
		Revert:  func() { event.GoingCount -= delta },
	})
	if err != nil {
		return nil, fmt.Errorf("set rsvp: %w", err)
	}
	return event, nil
}

func (s *Service) buildParams(buildingID, userID string, input CreateInput) (CreateParams, error) {
	title := sanitize.Text(input.Title)
	if title == "" {
		return CreateParams{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if input.StartTime.IsZero() {
		return CreateParams{}, fmt.Errorf("%w: start_time is required", ErrInvalid)
	}
	if input.EndTime != nil && input.EndTime.Before(input.StartTime) {
		return CreateParams{}, fmt.Errorf("%w: end_time before start_time", ErrInvalid)
	}

	var rule *Rule
	if input.Repeat != "" && input.Repeat != "none" {
		rule = NewRule(input.Repeat, input.StartTime.Format("2006-01-02"))
		if rule == nil {
			return CreateParams{}, fmt.Errorf("%w: unknown repeat value %q", ErrInvalid, input.Repeat)
		}
	}

	return CreateParams{
		BuildingID:    buildingID,
		CreatedBy:     userID,
		Title:         title,
		Description:   sanitize.HTML(input.Description),
		Location:      sanitize.Text(input.Location),
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Recurrence:    rule,
		RecurrenceEnd: input.RecurrenceEnd,
	}, nil
}
