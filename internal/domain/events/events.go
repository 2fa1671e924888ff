// Package events holds the community-event domain: the event model, the
// recurrence rules residents attach to events, and the expansion of those
// rules into concrete calendar occurrences.
package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrForbidden = errors.New("event does not belong to caller")
	ErrInvalid   = errors.New("invalid event")
)

type Event struct {
	ID            string     `json:"-"`
	ULID          string     `json:"id"`
	BuildingID    string     `json:"building_id"`
	CreatedBy     string     `json:"created_by"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Location      string     `json:"location,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Recurrence    *Rule      `json:"recurrence_rule,omitempty"`
	RecurrenceEnd *time.Time `json:"recurrence_end,omitempty"`
	GoingCount    int        `json:"going_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CreateParams struct {
	ULID          string
	BuildingID    string
	CreatedBy     string
	Title         string
	Description   string
	Location      string
	StartTime     time.Time
	EndTime       *time.Time
	Recurrence    *Rule
	RecurrenceEnd *time.Time
}

type UpdateParams struct {
	BuildingID    string
	ULID          string
	Title         string
	Description   string
	Location      string
	StartTime     time.Time
	EndTime       *time.Time
	Recurrence    *Rule
	RecurrenceEnd *time.Time
}

type ListResult struct {
	Events     []Event
	NextCursor string
}

type Repository interface {
	List(ctx context.Context, buildingID string, pagination Pagination) (ListResult, error)
	// ListForWindow returns events that can produce occurrences inside
	// [from, to]: non-recurring events starting in the window plus every
	// recurring event anchored on or before its end.
	ListForWindow(ctx context.Context, buildingID string, from, to time.Time) ([]Event, error)
	GetByULID(ctx context.Context, buildingID, ulid string) (*Event, error)
	Create(ctx context.Context, params CreateParams) (*Event, error)
	Update(ctx context.Context, params UpdateParams) (*Event, error)
	Delete(ctx context.Context, buildingID, ulid string) error
	GetRSVP(ctx context.Context, eventID, userID string) (going bool, found bool, err error)
	SetRSVP(ctx context.Context, eventID, userID string, going bool) error
}
