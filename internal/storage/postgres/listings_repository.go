package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtyard-app/server/internal/domain/listings"
)

var _ listings.Repository = (*ListingRepository)(nil)

type ListingRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *ListingRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const listingColumns = `
id, ulid, building_id, seller_id, title, description, category, price_cents,
status, like_count, created_at, updated_at`

func scanListing(row pgx.Row) (*listings.Listing, error) {
	var (
		l           listings.Listing
		description *string
		category    string
		status      string
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&l.ID, &l.ULID, &l.BuildingID, &l.SellerID,
		&l.Title, &description, &category, &l.PriceCents,
		&status, &l.LikeCount, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	l.Description = derefString(description)
	l.Category = listings.Category(category)
	l.Status = listings.Status(status)
	l.CreatedAt = createdAt.Time
	l.UpdatedAt = updatedAt.Time
	return &l, nil
}

func (r *ListingRepository) List(ctx context.Context, buildingID string, category *listings.Category, activeOnly bool) ([]listings.Listing, error) {
	queryer := r.queryer()

	query := `
SELECT ` + listingColumns + `
  FROM listings
 WHERE building_id = $1`
	args := []any{buildingID}
	if category != nil {
		args = append(args, string(*category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if activeOnly {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := queryer.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []listings.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

func (r *ListingRepository) GetByULID(ctx context.Context, buildingID, ulid string) (*listings.Listing, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+listingColumns+`
  FROM listings
 WHERE building_id = $1 AND ulid = $2`, buildingID, strings.ToUpper(ulid))

	l, err := scanListing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, listings.ErrNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) Create(ctx context.Context, params listings.CreateParams) (*listings.Listing, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO listings (ulid, building_id, seller_id, title, description, category, price_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+listingColumns,
		params.ULID, params.BuildingID, params.SellerID,
		params.Title, textOrNil(params.Description), string(params.Category), params.PriceCents)

	l, err := scanListing(row)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) Update(ctx context.Context, params listings.UpdateParams) (*listings.Listing, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
UPDATE listings SET
    title = $3, description = $4, category = $5, price_cents = $6,
    status = $7, updated_at = now()
 WHERE building_id = $1 AND ulid = $2
RETURNING `+listingColumns,
		params.BuildingID, strings.ToUpper(params.ULID),
		params.Title, textOrNil(params.Description), string(params.Category),
		params.PriceCents, string(params.Status))

	l, err := scanListing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, listings.ErrNotFound
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) Delete(ctx context.Context, buildingID, ulid string) error {
	queryer := r.queryer()
	tag, err := queryer.Exec(ctx, `
DELETE FROM listings WHERE building_id = $1 AND ulid = $2`, buildingID, strings.ToUpper(ulid))
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return listings.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) GetLike(ctx context.Context, listingID, userID string) (bool, error) {
	queryer := r.queryer()
	var exists bool
	err := queryer.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM listing_likes WHERE listing_id = $1 AND resident_id = $2)`,
		listingID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("get like: %w", err)
	}
	return exists, nil
}

// SetLike inserts or removes the like row and refreshes the denormalized
// like_count in one transaction.
func (r *ListingRepository) SetLike(ctx context.Context, listingID, userID string, liked bool) error {
	run := func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if liked {
			_, err = tx.Exec(ctx, `
INSERT INTO listing_likes (listing_id, resident_id)
VALUES ($1, $2)
ON CONFLICT (listing_id, resident_id) DO NOTHING`, listingID, userID)
		} else {
			_, err = tx.Exec(ctx, `
DELETE FROM listing_likes WHERE listing_id = $1 AND resident_id = $2`, listingID, userID)
		}
		if err != nil {
			return fmt.Errorf("set like: %w", err)
		}

		_, err = tx.Exec(ctx, `
UPDATE listings SET like_count = (
    SELECT count(*) FROM listing_likes WHERE listing_id = $1
) WHERE id = $1`, listingID)
		if err != nil {
			return fmt.Errorf("refresh like count: %w", err)
		}
		return nil
	}

	if r.tx != nil {
		return run(ctx, r.tx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin like tx: %w", err)
	}
	if err := run(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit like tx: %w", err)
	}
	return nil
}
