// Package announcements covers manager-authored building announcements and
// their notification fan-out.
package announcements

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("announcement not found")
	ErrForbidden       = errors.New("announcements are manager-only")
	ErrUnknownCategory = errors.New("unknown announcement category")
	ErrInvalid         = errors.New("invalid announcement")
)

// Category is the closed set of announcement kinds. API payloads carry the
// string key; anything outside the set is rejected at the boundary instead
// of being stored raw.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryMaintenance Category = "maintenance"
	CategorySafety      Category = "safety"
	CategorySocial      Category = "social"
)

// ParseCategory maps an API category key onto the enum. The empty string
// maps to general; unmapped keys are an error.
func ParseCategory(value string) (Category, error) {
	switch Category(value) {
	case "":
		return CategoryGeneral, nil
	case CategoryGeneral, CategoryMaintenance, CategorySafety, CategorySocial:
		return Category(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, value)
	}
}

type Announcement struct {
	ID         string    `json:"-"`
	ULID       string    `json:"id"`
	BuildingID string    `json:"building_id"`
	AuthorID   string    `json:"author_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   Category  `json:"category"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateParams struct {
	ULID       string
	BuildingID string
	AuthorID   string
	Title      string
	Body       string
	Category   Category
	Pinned     bool
}

type UpdateParams struct {
	BuildingID string
	ULID       string
	Title      string
	Body       string
	Category   Category
	Pinned     bool
}

// Repository lists pinned announcements first, newest first within each
// group.
type Repository interface {
	List(ctx context.Context, buildingID string, limit int) ([]Announcement, error)
	GetByULID(ctx context.Context, buildingID, ulid string) (*Announcement, error)
	Create(ctx context.Context, params CreateParams) (*Announcement, error)
	Update(ctx context.Context, params UpdateParams) (*Announcement, error)
	Delete(ctx context.Context, buildingID, ulid string) error
}

// Notifier enqueues the email fan-out for a new announcement. The queue
// implementation lives in internal/jobs.
type Notifier interface {
	NotifyAnnouncement(ctx context.Context, announcementID string) error
}
