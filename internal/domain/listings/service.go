package listings

import (
	"context"
	"fmt"

	"github.com/courtyard-app/server/internal/auth"
	"github.com/courtyard-app/server/internal/compensate"
	"github.com/courtyard-app/server/internal/domain/ids"
	"github.com/courtyard-app/server/internal/sanitize"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, buildingID, categoryKey string, activeOnly bool) ([]Listing, error) {
	var category *Category
	if categoryKey != "" {
		parsed, err := ParseCategory(categoryKey)
		if err != nil {
			return nil, err
		}
		category = &parsed
	}
	return s.repo.List(ctx, buildingID, category, activeOnly)
}

func (s *Service) Get(ctx context.Context, buildingID, ulid string) (*Listing, error) {
	return s.repo.GetByULID(ctx, buildingID, ulid)
}

type Input struct {
	Title       string
	Description string
	Category    string
	PriceCents  *int
	Closed      bool
}

func (s *Service) Create(ctx context.Context, buildingID, userID string, input Input) (*Listing, error) {
	category, title, description, err := normalize(input)
	if err != nil {
		return nil, err
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint ulid: %w", err)
	}

	created, err := s.repo.Create(ctx, CreateParams{
		ULID:        ulid,
		BuildingID:  buildingID,
		SellerID:    userID,
		Title:       title,
		Description: description,
		Category:    category,
		PriceCents:  input.PriceCents,
	})
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, buildingID, userID, role, ulid string, input Input) (*Listing, error) {
	existing, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != userID && !auth.CanManage(role) {
		return nil, ErrForbidden
	}

	category, title, description, err := normalize(input)
	if err != nil {
		return nil, err
	}
	status := StatusActive
	if input.Closed {
		status = StatusClosed
	}

	return s.repo.Update(ctx, UpdateParams{
		BuildingID:  buildingID,
		ULID:        ulid,
		Title:       title,
		Description: description,
		Category:    category,
		PriceCents:  input.PriceCents,
		Status:      status,
	})
}

func (s *Service) Delete(ctx context.Context, buildingID, userID, role, ulid string) error {
	existing, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return err
	}
	if existing.SellerID != userID && !auth.CanManage(role) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, buildingID, ulid)
}

// ToggleLike flips the caller's like and returns the listing with the count
// already adjusted. The adjustment is optimistic: a failed write reverts
// the count before the error surfaces.
func (s *Service) ToggleLike(ctx context.Context, buildingID, userID, ulid string) (*Listing, error) {
	listing, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return nil, err
	}

	liked, err := s.repo.GetLike(ctx, listing.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("load like: %w", err)
	}

	delta := 1
	if liked {
		delta = -1
	}

	err = compensate.Run(ctx, compensate.Op{
		Apply:   func() { listing.LikeCount += delta },
		Attempt: func(ctx context.Context) error { return s.repo.SetLike(ctx, listing.ID, userID, !liked) },
		Revert:  func() { listing.LikeCount -= delta },
	})
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return listing, nil
}

func normalize(input Input) (Category, string, string, error) {
	category, err := ParseCategory(input.Category)
	if err != nil {
		return "", "", "", err
	}
	title := sanitize.Text(input.Title)
	if title == "" {
		return "", "", "", fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if input.PriceCents != nil && *input.PriceCents < 0 {
		return "", "", "", fmt.Errorf("%w: price cannot be negative", ErrInvalid)
	}
	return category, title, sanitize.HTML(input.Description), nil
}
