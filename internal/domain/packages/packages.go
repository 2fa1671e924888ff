// Package packages tracks deliveries through the package room: a manager
// logs an arrival, the recipient (or a manager) marks it picked up.
package packages

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("package not found")
	ErrForbidden       = errors.New("not allowed to modify package")
	ErrAlreadyPickedUp = errors.New("package already picked up")
	ErrInvalid         = errors.New("invalid package")
)

// Status is the two-state lifecycle: arrived, then picked_up. There is no
// way back.
type Status string

const (
	StatusArrived  Status = "arrived"
	StatusPickedUp Status = "picked_up"
)

type Package struct {
	ID          string     `json:"-"`
	ULID        string     `json:"id"`
	BuildingID  string     `json:"building_id"`
	RecipientID string     `json:"recipient_id"`
	Carrier     string     `json:"carrier,omitempty"`
	Note        string     `json:"note,omitempty"`
	Status      Status     `json:"status"`
	ArrivedAt   time.Time  `json:"arrived_at"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
}

type CreateParams struct {
	ULID        string
	BuildingID  string
	RecipientID string
	Carrier     string
	Note        string
	ArrivedAt   time.Time
}

type Repository interface {
	ListForBuilding(ctx context.Context, buildingID string, pendingOnly bool) ([]Package, error)
	ListForRecipient(ctx context.Context, buildingID, recipientID string) ([]Package, error)
	// ListPendingSince returns arrived packages whose arrival predates the
	// cutoff, across all buildings. Used by the reminder job.
	ListPendingSince(ctx context.Context, cutoff time.Time) ([]Package, error)
	GetByULID(ctx context.Context, buildingID, ulid string) (*Package, error)
	Create(ctx context.Context, params CreateParams) (*Package, error)
	// MarkPickedUp transitions arrived -> picked_up; returns
	// ErrAlreadyPickedUp when the row is already terminal.
	MarkPickedUp(ctx context.Context, buildingID, ulid string, at time.Time) (*Package, error)
}
