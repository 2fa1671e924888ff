package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtyard-app/server/internal/domain/residents"
)

var _ residents.Repository = (*ResidentRepository)(nil)

type ResidentRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *ResidentRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const residentColumns = `
id, ulid, building_id, email, password_hash, name, unit, phone, role, share_contact, created_at`

func scanResident(row pgx.Row) (*residents.Resident, error) {
	var (
		res       residents.Resident
		unit      *string
		phone     *string
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&res.ID, &res.ULID, &res.BuildingID, &res.Email, &res.PasswordHash,
		&res.Name, &unit, &phone, &res.Role, &res.ShareContact, &createdAt,
	); err != nil {
		return nil, err
	}
	res.Unit = derefString(unit)
	res.Phone = derefString(phone)
	res.CreatedAt = createdAt.Time
	return &res, nil
}

func (r *ResidentRepository) GetByEmail(ctx context.Context, email string) (*residents.Resident, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+residentColumns+`
  FROM residents
 WHERE email = $1`, strings.ToLower(email))

	res, err := scanResident(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, residents.ErrNotFound
		}
		return nil, fmt.Errorf("get resident by email: %w", err)
	}
	return res, nil
}

func (r *ResidentRepository) GetByID(ctx context.Context, id string) (*residents.Resident, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+residentColumns+`
  FROM residents
 WHERE id = $1`, id)

	res, err := scanResident(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, residents.ErrNotFound
		}
		return nil, fmt.Errorf("get resident: %w", err)
	}
	return res, nil
}

func (r *ResidentRepository) Create(ctx context.Context, params residents.CreateParams) (*residents.Resident, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
INSERT INTO residents (ulid, building_id, email, password_hash, name, unit, role, share_contact)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+residentColumns,
		params.ULID, params.BuildingID, strings.ToLower(params.Email),
		params.PasswordHash, params.Name, textOrNil(params.Unit),
		params.Role, params.ShareContact)

	res, err := scanResident(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, residents.ErrEmailTaken
		}
		return nil, fmt.Errorf("create resident: %w", err)
	}
	return res, nil
}

func (r *ResidentRepository) UpdateProfile(ctx context.Context, params residents.ProfileParams) (*residents.Resident, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
UPDATE residents SET
    name = $2, unit = $3, phone = $4, share_contact = $5
 WHERE id = $1
RETURNING `+residentColumns,
		params.UserID, params.Name, textOrNil(params.Unit),
		textOrNil(params.Phone), params.ShareContact)

	res, err := scanResident(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, residents.ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return res, nil
}

func (r *ResidentRepository) Directory(ctx context.Context, buildingID string) ([]residents.Resident, error) {
	queryer := r.queryer()
	rows, err := queryer.Query(ctx, `
SELECT `+residentColumns+`
  FROM residents
 WHERE building_id = $1 AND share_contact
 ORDER BY unit NULLS LAST, name`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	defer rows.Close()

	var out []residents.Resident
	for rows.Next() {
		res, err := scanResident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resident: %w", err)
		}
		res.PasswordHash = ""
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory: %w", err)
	}
	return out, nil
}

func (r *ResidentRepository) ListEmails(ctx context.Context, buildingID string) ([]string, error) {
	queryer := r.queryer()
	rows, err := queryer.Query(ctx, `
SELECT email FROM residents WHERE building_id = $1 ORDER BY email`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emails: %w", err)
	}
	return out, nil
}

func (r *ResidentRepository) GetBuildingByCode(ctx context.Context, code string) (*residents.Building, error) {
	queryer := r.queryer()
	var building residents.Building
	err := queryer.QueryRow(ctx, `
SELECT id, code, name FROM buildings WHERE code = $1`, strings.ToUpper(strings.TrimSpace(code))).
		Scan(&building.ID, &building.Code, &building.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, residents.ErrBuildingNotFound
		}
		return nil, fmt.Errorf("get building by code: %w", err)
	}
	return &building, nil
}

// BuildingName resolves a building's display name for notification mail.
func (r *ResidentRepository) BuildingName(ctx context.Context, buildingID string) (string, error) {
	queryer := r.queryer()
	var name string
	err := queryer.QueryRow(ctx, `
SELECT name FROM buildings WHERE id = $1`, buildingID).Scan(&name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", residents.ErrBuildingNotFound
		}
		return "", fmt.Errorf("get building name: %w", err)
	}
	return name, nil
}

// IsResidentOfBuilding backs the messaging recipient check.
func (r *ResidentRepository) IsResidentOfBuilding(ctx context.Context, userID, buildingID string) (bool, error) {
	queryer := r.queryer()
	var exists bool
	err := queryer.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM residents WHERE id = $1 AND building_id = $2)`,
		userID, buildingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check residency: %w", err)
	}
	return exists, nil
}
