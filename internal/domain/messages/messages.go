// Package messages implements resident-to-resident messaging inside one
// building.
package messages

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("message not found")
	ErrRecipientInvalid = errors.New("recipient is not a resident of this building")
	ErrInvalid          = errors.New("invalid message")
)

type Message struct {
	ID          string     `json:"-"`
	ULID        string     `json:"id"`
	BuildingID  string     `json:"building_id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateParams struct {
	ULID        string
	BuildingID  string
	SenderID    string
	RecipientID string
	Body        string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Message, error)
	// Conversation returns the two-way history between two residents,
	// oldest first, capped at limit.
	Conversation(ctx context.Context, buildingID, userID, otherID string, limit int) ([]Message, error)
	// MarkRead stamps every unread message from otherID to userID.
	MarkRead(ctx context.Context, userID, otherID string, at time.Time) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// RecipientChecker verifies the recipient belongs to the sender's building.
// Implemented by the residents repository.
type RecipientChecker interface {
	IsResidentOfBuilding(ctx context.Context, userID, buildingID string) (bool, error)
}
