package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtyard-app/server/internal/domain/packages"
)

var _ packages.Repository = (*PackageRepository)(nil)

type PackageRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *PackageRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const packageColumns = `
id, ulid, building_id, recipient_id, carrier, note, status, arrived_at, picked_up_at`

func scanPackage(row pgx.Row) (*packages.Package, error) {
	var (
		p          packages.Package
		carrier    *string
		note       *string
		status     string
		arrivedAt  pgtype.Timestamptz
		pickedUpAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&p.ID, &p.ULID, &p.BuildingID, &p.RecipientID,
		&carrier, &note, &status, &arrivedAt, &pickedUpAt,
	); err != nil {
		return nil, err
	}
	p.Carrier = derefString(carrier)
	p.Note = derefString(note)
	p.Status = packages.Status(status)
	p.ArrivedAt = arrivedAt.Time
	p.PickedUpAt = timeOrNil(pickedUpAt)
	return &p, nil
}

func (r *PackageRepository) collect(rows pgx.Rows) ([]packages.Package, error) {
	defer rows.Close()
	var out []packages.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packages: %w", err)
	}
	return out, nil
}

func (r *PackageRepository) ListForBuilding(ctx context.Context, buildingID string, pendingOnly bool) ([]packages.Package, error) {
	queryer := r.queryer()
	query := `
SELECT ` + packageColumns + `
  FROM packages
 WHERE building_id = $1`
	if pendingOnly {
		query += ` AND status = 'arrived'`
	}
	query += ` ORDER BY arrived_at DESC`

	rows, err := queryer.Query(ctx, query, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return r.collect(rows)
}

func (r *PackageRepository) ListForRecipient(ctx context.Context, buildingID, recipientID string) ([]packages.Package, error) {
	queryer := r.queryer()
	rows, err := queryer.Query(ctx, `
SELECT `+packageColumns+`
  FROM packages
 WHERE building_id = $1 AND recipient_id = $2
 ORDER BY arrived_at DESC`, buildingID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list packages for recipient: %w", err)
	}
	return r.collect(rows)
}

func (r *PackageRepository) ListPendingSince(ctx context.Context, cutoff time.Time) ([]packages.Package, error) {
	queryer := r.queryer()
	rows, err := queryer.Query(ctx, `
SELECT `+packageColumns+`
  FROM packages
 WHERE status = 'arrived' AND arrived_at < $1
 ORDER BY arrived_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list pending packages: %w", err)
	}
	return r.collect(rows)
}

func (r *PackageRepository) GetByULID(ctx context.Context, buildingID, ulid string) (*packages.Package, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+packageColumns+`
  FROM packages
 WHERE building_id = $1 AND ulid = $2`, buildingID, strings.ToUpper(ulid))

	p, err := scanPackage(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, packages.ErrNotFound
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

func (r *PackageRepository) Create(ctx context.Context, params packages.CreateParams) (*packages.Package, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO packages (ulid, building_id, recipient_id, carrier, note, status, arrived_at)
VALUES ($1, $2, $3, $4, $5, 'arrived', $6)
RETURNING `+packageColumns,
		params.ULID, params.BuildingID, params.RecipientID,
		textOrNil(params.Carrier), textOrNil(params.Note), params.ArrivedAt)

	p, err := scanPackage(row)
	if err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	return p, nil
}

func (r *PackageRepository) MarkPickedUp(ctx context.Context, buildingID, ulid string, at time.Time) (*packages.Package, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
UPDATE packages SET status = 'picked_up', picked_up_at = $3
 WHERE building_id = $1 AND ulid = $2 AND status = 'arrived'
RETURNING `+packageColumns,
		buildingID, strings.ToUpper(ulid), at)

	p, err := scanPackage(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Either missing or already terminal; disambiguate for the caller.
			existing, getErr := r.GetByULID(ctx, buildingID, ulid)
			if getErr != nil {
				return nil, getErr
			}
			if existing.Status == packages.StatusPickedUp {
				return nil, packages.ErrAlreadyPickedUp
			}
			return nil, packages.ErrNotFound
		}
		return nil, fmt.Errorf("mark package picked up: %w", err)
	}
	return p, nil
}
