// Package residents manages resident accounts, authentication against the
// building roster, and the opt-in neighbor directory.
package residents

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("resident not found")
	ErrBuildingNotFound   = errors.New("building not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Resident struct {
	ID           string    `json:"-"`
	ULID         string    `json:"id"`
	BuildingID   string    `json:"building_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	ShareContact bool      `json:"share_contact"`
	CreatedAt    time.Time `json:"created_at"`
}

type Building struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type CreateParams struct {
	ULID         string
	BuildingID   string
	Email        string
	PasswordHash string
	Name         string
	Unit         string
	Role         string
	ShareContact bool
}

type ProfileParams struct {
	UserID       string
	Name         string
	Unit         string
	Phone        string
	ShareContact bool
}

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Resident, error)
	GetByID(ctx context.Context, id string) (*Resident, error)
	Create(ctx context.Context, params CreateParams) (*Resident, error)
	UpdateProfile(ctx context.Context, params ProfileParams) (*Resident, error)
	// Directory returns residents of the building who opted into sharing
	// contact details, ordered by unit.
	Directory(ctx context.Context, buildingID string) ([]Resident, error)
	// ListEmails returns the notification addresses for every resident of
	// the building. Used by the announcement fan-out job.
	ListEmails(ctx context.Context, buildingID string) ([]string, error)
	GetBuildingByCode(ctx context.Context, code string) (*Building, error)
}
