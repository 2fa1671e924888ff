package packages

import (
	"context"
	"fmt"
	"time"

	"github.com/courtyard-app/server/internal/auth"
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

// List returns the building-wide log for managers and the caller's own
// packages for residents.
func (s *Service) List(ctx context.Context, buildingID, userID, role string, pendingOnly bool) ([]Package, error) {
	if auth.CanManage(role) {
		return s.repo.ListForBuilding(ctx, buildingID, pendingOnly)
	}
	return s.repo.ListForRecipient(ctx, buildingID, userID)
}

type ArrivalInput struct {
	RecipientID string
	Carrier     string
	Note        string
}

func (s *Service) LogArrival(ctx context.Context, buildingID, role string, input ArrivalInput) (*Package, error) {
	if !auth.CanManage(role) {
		return nil, ErrForbidden
	}
	if input.RecipientID == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalid)
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint ulid: %w", err)
	}

	created, err := s.repo.Create(ctx, CreateParams{
		ULID:        ulid,
		BuildingID:  buildingID,
		RecipientID: input.RecipientID,
		Carrier:     sanitize.Text(input.Carrier),
		Note:        sanitize.Text(input.Note),
		ArrivedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("log package arrival: %w", err)
	}
	return created, nil
}

// MarkPickedUp lets the recipient or a manager close out a package.
func (s *Service) MarkPickedUp(ctx context.Context, buildingID, userID, role, ulid string) (*Package, error) {
	existing, err := s.repo.GetByULID(ctx, buildingID, ulid)
	if err != nil {
		return nil, err
	}
	if existing.RecipientID != userID && !auth.CanManage(role) {
		return nil, ErrForbidden
	}
	if existing.Status == StatusPickedUp {
		return nil, ErrAlreadyPickedUp
	}
	return s.repo.MarkPickedUp(ctx, buildingID, ulid, s.now())
}
