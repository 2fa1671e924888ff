// Package listings is the bulletin board: resident-posted classifieds with
// per-resident likes.
package listings

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("listing not found")
	ErrForbidden       = errors.New("listing does not belong to caller")
	ErrUnknownCategory = errors.New("unknown listing category")
	ErrInvalid         = errors.New("invalid listing")
)

// Category is the closed set of board sections; unmapped API keys are
// rejected at the boundary.
type Category string

const (
	CategoryForSale  Category = "for_sale"
	CategoryFree     Category = "free"
	CategoryWanted   Category = "wanted"
	CategoryServices Category = "services"
)

func ParseCategory(value string) (Category, error) {
	switch Category(value) {
	case CategoryForSale, CategoryFree, CategoryWanted, CategoryServices:
		return Category(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, value)
	}
}

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

type Listing struct {
	ID          string    `json:"-"`
	ULID        string    `json:"id"`
	BuildingID  string    `json:"building_id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	PriceCents  *int      `json:"price_cents,omitempty"`
	Status      Status    `json:"status"`
	LikeCount   int       `json:"like_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateParams struct {
	ULID        string
	BuildingID  string
	SellerID    string
	Title       string
	Description string
	Category    Category
	PriceCents  *int
}

type UpdateParams struct {
	BuildingID  string
	ULID        string
	Title       string
	Description string
	Category    Category
	PriceCents  *int
	Status      Status
}

type Repository interface {
	List(ctx context.Context, buildingID string, category *Category, activeOnly bool) ([]Listing, error)
	GetByULID(ctx context.Context, buildingID, ulid string) (*Listing, error)
	Create(ctx context.Context, params CreateParams) (*Listing, error)
	Update(ctx context.Context, params UpdateParams) (*Listing, error)
	Delete(ctx context.Context, buildingID, ulid string) error
	GetLike(ctx context.Context, listingID, userID string) (bool, error)
	SetLike(ctx context.Context, listingID, userID string, liked bool) error
}
