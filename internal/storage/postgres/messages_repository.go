package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtyard-app/server/internal/domain/messages"
)

var _ messages.Repository = (*MessageRepository)(nil)

type MessageRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *MessageRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const messageColumns = `
id, ulid, building_id, sender_id, recipient_id, body, read_at, created_at`

func scanMessage(row pgx.Row) (*messages.Message, error) {
	var (
		m         messages.Message
		readAt    pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&m.ID, &m.ULID, &m.BuildingID, &m.SenderID, &m.RecipientID,
		&m.Body, &readAt, &createdAt,
	); err != nil {
		return nil, err
	}
	m.ReadAt = timeOrNil(readAt)
	m.CreatedAt = createdAt.Time
	return &m, nil
}

func (r *MessageRepository) Create(ctx context.Context, params messages.CreateParams) (*messages.Message, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO messages (ulid, building_id, sender_id, recipient_id, body)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+messageColumns,
		params.ULID, params.BuildingID, params.SenderID, params.RecipientID, params.Body)

	m, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) Conversation(ctx context.Context, buildingID, userID, otherID string, limit int) ([]messages.Message, error) {
	queryer := r.queryer()
	if limit <= 0 {
		limit = 100
	}

	// Newest `limit` rows, returned oldest first.
	rows, err := queryer.Query(ctx, `
SELECT `+messageColumns+` FROM (
    SELECT `+messageColumns+`
      FROM messages
     WHERE building_id = $1
       AND ((sender_id = $2 AND recipient_id = $3)
         OR (sender_id = $3 AND recipient_id = $2))
     ORDER BY created_at DESC
     LIMIT $4
) recent
 ORDER BY created_at`, buildingID, userID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	defer rows.Close()

	var out []messages.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation: %w", err)
	}
	return out, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, userID, otherID string, at time.Time) error {
	queryer := r.queryer()
	_, err := queryer.Exec(ctx, `
UPDATE messages SET read_at = $3
 WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`,
		userID, otherID, at)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *MessageRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	queryer := r.queryer()
	var count int
	err := queryer.QueryRow(ctx, `
SELECT count(*) FROM messages WHERE recipient_id = $1 AND read_at IS NULL`, userID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
