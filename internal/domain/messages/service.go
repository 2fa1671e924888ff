package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/courtyard-app/server/internal/domain/ids"
	"github.com/courtyard-app/server/internal/sanitize"
)

type Service struct {
	repo      Repository
	residents RecipientChecker
	now       func() time.Time
}

func NewService(repo Repository, residents RecipientChecker) *Service {
	return &Service{repo: repo, residents: residents, now: time.Now}
}

func (s *Service) Send(ctx context.Context, buildingID, senderID, recipientID, body string) (*Message, error) {
	body = sanitize.HTML(body)
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", ErrInvalid)
	}
	if recipientID == "" || recipientID == senderID {
		return nil, fmt.Errorf("%w: bad recipient", ErrInvalid)
	}

	ok, err := s.residents.IsResidentOfBuilding(ctx, recipientID, buildingID)
	if err != nil {
		return nil, fmt.Errorf("check recipient: %w", err)
	}
	if !ok {
		return nil, ErrRecipientInvalid
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint ulid: %w", err)
	}

	created, err := s.repo.Create(ctx, CreateParams{
		ULID:        ulid,
		BuildingID:  buildingID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return created, nil
}

// Conversation returns the history with a neighbor and marks their
// messages to the caller as read.
func (s *Service) Conversation(ctx context.Context, buildingID, userID, otherID string, limit int) ([]Message, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	history, err := s.repo.Conversation(ctx, buildingID, userID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if err := s.repo.MarkRead(ctx, userID, otherID, s.now()); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return history, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
