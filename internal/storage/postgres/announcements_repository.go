package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtyard-app/server/internal/domain/announcements"
)

var _ announcements.Repository = (*AnnouncementRepository)(nil)

type AnnouncementRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *AnnouncementRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const announcementColumns = `
id, ulid, building_id, author_id, title, body, category, pinned, created_at, updated_at`

func scanAnnouncement(row pgx.Row) (*announcements.Announcement, error) {
	var (
		a         announcements.Announcement
		category  string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&a.ID, &a.ULID, &a.BuildingID, &a.AuthorID,
		&a.Title, &a.Body, &category, &a.Pinned,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	a.Category = announcements.Category(category)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	return &a, nil
}

func (r *AnnouncementRepository) List(ctx context.Context, buildingID string, limit int) ([]announcements.Announcement, error) {
	queryer := r.queryer()
	if limit <= 0 {
		limit = 50
	}

	rows, err := queryer.Query(ctx, `
SELECT `+announcementColumns+`
  FROM announcements
 WHERE building_id = $1
 ORDER BY pinned DESC, created_at DESC
 LIMIT $2`, buildingID, limit)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []announcements.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}
	return out, nil
}

func (r *AnnouncementRepository) GetByULID(ctx context.Context, buildingID, ulid string) (*announcements.Announcement, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+announcementColumns+`
  FROM announcements
 WHERE building_id = $1 AND ulid = $2`, buildingID, strings.ToUpper(ulid))

	a, err := scanAnnouncement(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, announcements.ErrNotFound
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return a, nil
}

// GetForNotify loads by row ID for the email fan-out job.
func (r *AnnouncementRepository) GetForNotify(ctx context.Context, announcementID string) (*announcements.Announcement, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+announcementColumns+`
  FROM announcements
 WHERE id = $1`, announcementID)

	a, err := scanAnnouncement(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, announcements.ErrNotFound
		}
		return nil, fmt.Errorf("get announcement for notify: %w", err)
	}
	return a, nil
}

func (r *AnnouncementRepository) Create(ctx context.Context, params announcements.CreateParams) (*announcements.Announcement, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO announcements (ulid, building_id, author_id, title, body, category, pinned)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+announcementColumns,
		params.ULID, params.BuildingID, params.AuthorID,
		params.Title, params.Body, string(params.Category), params.Pinned)

	a, err := scanAnnouncement(row)
	if err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return a, nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, params announcements.UpdateParams) (*announcements.Announcement, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
UPDATE announcements SET
    title = $3, body = $4, category = $5, pinned = $6, updated_at = now()
 WHERE building_id = $1 AND ulid = $2
RETURNING `+announcementColumns,
		params.BuildingID, strings.ToUpper(params.ULID),
		params.Title, params.Body, string(params.Category), params.Pinned)

	a, err := scanAnnouncement(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, announcements.ErrNotFound
		}
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return a, nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, buildingID, ulid string) error {
	queryer := r.queryer()
	tag, err := queryer.Exec(ctx, `
DELETE FROM announcements WHERE building_id = $1 AND ulid = $2`, buildingID, strings.ToUpper(ulid))
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return announcements.ErrNotFound
	}
	return nil
}
