package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtyard-app/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const eventColumns = `
e.id, e.ulid, e.building_id, e.created_by, e.title, e.description, e.location,
e.start_time, e.end_time,
e.recur_freq, e.recur_interval, e.recur_week, e.recur_dow, e.recur_day,
e.recurrence_end, e.going_count, e.created_at, e.updated_at`

type eventRow struct {
	ID            string
	ULID          string
	BuildingID    string
	CreatedBy     string
	Title         string
	Description   *string
	Location      *string
	StartTime     pgtype.Timestamptz
	EndTime       pgtype.Timestamptz
	RecurFreq     *string
	RecurInterval *int
	RecurWeek     *int
	RecurDow      *int
	RecurDay      *int
	RecurrenceEnd pgtype.Timestamptz
	GoingCount    int
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var data eventRow
	if err := row.Scan(
		&data.ID,
		&data.ULID,
		&data.BuildingID,
		&data.CreatedBy,
		&data.Title,
		&data.Description,
		&data.Location,
		&data.StartTime,
		&data.EndTime,
		&data.RecurFreq,
		&data.RecurInterval,
		&data.RecurWeek,
		&data.RecurDow,
		&data.RecurDay,
		&data.RecurrenceEnd,
		&data.GoingCount,
		&data.CreatedAt,
		&data.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return data.toDomain(), nil
}

func (row eventRow) toDomain() *events.Event {
	event := &events.Event{
		ID:          row.ID,
		ULID:        row.ULID,
		BuildingID:  row.BuildingID,
		CreatedBy:   row.CreatedBy,
		Title:       row.Title,
		Description: derefString(row.Description),
		Location:    derefString(row.Location),
		StartTime:   row.StartTime.Time,
		EndTime:     timeOrNil(row.EndTime),
		GoingCount:  row.GoingCount,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	event.RecurrenceEnd = timeOrNil(row.RecurrenceEnd)
	if row.RecurFreq != nil {
		rule := &events.Rule{Freq: events.Frequency(*row.RecurFreq)}
		if row.RecurInterval != nil {
			rule.Interval = *row.RecurInterval
		}
		if row.RecurWeek != nil {
			rule.Week = *row.RecurWeek
		}
		if row.RecurDow != nil {
			rule.Weekday = time.Weekday(*row.RecurDow)
		}
		if row.RecurDay != nil {
			rule.Day = *row.RecurDay
		}
		event.Recurrence = rule
	}
	return event
}

// ruleColumns flattens a recurrence rule into its nullable columns.
func ruleColumns(rule *events.Rule) (freq *string, interval, week, dow, day *int) {
	if rule == nil {
		return nil, nil, nil, nil, nil
	}
	f := string(rule.Freq)
	freq = &f
	switch rule.Freq {
	case events.FreqWeekly:
		i := rule.Interval
		interval = &i
	case events.FreqMonthlyByWeekday:
		w := rule.Week
		week = &w
		d := int(rule.Weekday)
		dow = &d
	case events.FreqMonthlyByDate:
		d := rule.Day
		day = &d
	}
	return freq, interval, week, dow, day
}

func (r *EventRepository) List(ctx context.Context, buildingID string, pagination events.Pagination) (events.ListResult, error) {
	queryer := r.queryer()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT ` + eventColumns + `
  FROM events e
 WHERE e.building_id = $1`
	args := []any{buildingID}

	if after := strings.TrimSpace(pagination.After); after != "" {
		query += `
   AND (e.start_time, e.ulid) > (
       SELECT e2.start_time, e2.ulid FROM events e2
        WHERE e2.building_id = $1 AND e2.ulid = $2)`
		args = append(args, after)
	}
	query += fmt.Sprintf(`
 ORDER BY e.start_time, e.ulid
 LIMIT %d`, limit+1)

	rows, err := queryer.Query(ctx, query, args...)
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var result events.ListResult
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return events.ListResult{}, fmt.Errorf("scan event: %w", err)
		}
		result.Events = append(result.Events, *event)
	}
	if err := rows.Err(); err != nil {
		return events.ListResult{}, fmt.Errorf("iterate events: %w", err)
	}

	if len(result.Events) > limit {
		result.Events = result.Events[:limit]
		result.NextCursor = result.Events[limit-1].ULID
	}
	return result, nil
}

func (r *EventRepository) ListForWindow(ctx context.Context, buildingID string, from, to time.Time) ([]events.Event, error) {
	queryer := r.queryer()

	// Recurring events anchored before the window end can still generate
	// occurrences inside it, so they are fetched regardless of start_time.
	rows, err := queryer.Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.building_id = $1
   AND (
        (e.recur_freq IS NULL AND e.start_time BETWEEN $2 AND $3)
     OR (e.recur_freq IS NOT NULL AND e.start_time <= $3
         AND (e.recurrence_end IS NULL OR e.recurrence_end >= $2))
   )
 ORDER BY e.start_time`, buildingID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events for window: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (r *EventRepository) GetByULID(ctx context.Context, buildingID, ulid string) (*events.Event, error) {
	queryer := r.queryer()
	row := queryer.QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events e
 WHERE e.building_id = $1 AND e.ulid = $2`, buildingID, strings.ToUpper(ulid))

	event, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	queryer := r.queryer()
	freq, interval, week, dow, day := ruleColumns(params.Recurrence)

	row := queryer.QueryRow(ctx, `
INSERT INTO events (
    ulid, building_id, created_by, title, description, location,
    start_time, end_time,
    recur_freq, recur_interval, recur_week, recur_dow, recur_day,
    recurrence_end
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+strings.ReplaceAll(eventColumns, "e.", ""),
		params.ULID, params.BuildingID, params.CreatedBy,
		params.Title, textOrNil(params.Description), textOrNil(params.Location),
		params.StartTime, params.EndTime,
		freq, interval, week, dow, day,
		params.RecurrenceEnd)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, params events.UpdateParams) (*events.Event, error) {
	queryer := r.queryer()
	freq, interval, week, dow, day := ruleColumns(params.Recurrence)

	row := queryer.QueryRow(ctx, `
UPDATE events SET
    title = $3, description = $4, location = $5,
    start_time = $6, end_time = $7,
    recur_freq = $8, recur_interval = $9, recur_week = $10, recur_dow = $11, recur_day = $12,
    recurrence_end = $13,
    updated_at = now()
 WHERE building_id = $1 AND ulid = $2
RETURNING `+strings.ReplaceAll(eventColumns, "e.", ""),
		params.BuildingID, strings.ToUpper(params.ULID),
		params.Title, textOrNil(params.Description), textOrNil(params.Location),
		params.StartTime, params.EndTime,
		freq, interval, week, dow, day,
		params.RecurrenceEnd)

	event, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, buildingID, ulid string) error {
	queryer := r.queryer()
	tag, err := queryer.Exec(ctx, `
DELETE FROM events WHERE building_id = $1 AND ulid = $2`, buildingID, strings.ToUpper(ulid))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) GetRSVP(ctx context.Context, eventID, userID string) (bool, bool, error) {
	queryer := r.queryer()
	var going bool
	err := queryer.QueryRow(ctx, `
SELECT going FROM event_rsvps WHERE event_id = $1 AND resident_id = $2`,
		eventID, userID).Scan(&going)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, false, nil
		}
		return false, false, fmt.Errorf("get rsvp: %w", err)
	}
	return going, true, nil
}

// SetRSVP upserts the row and recomputes the denormalized going_count in
// the same transaction.
func (r *EventRepository) SetRSVP(ctx context.Context, eventID, userID string, going bool) error {
	run := func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO event_rsvps (event_id, resident_id, going)
VALUES ($1, $2, $3)
ON CONFLICT (event_id, resident_id) DO UPDATE SET going = $3, updated_at = now()`,
			eventID, userID, going)
		if err != nil {
			return fmt.Errorf("upsert rsvp: %w", err)
		}

		_, err = tx.Exec(ctx, `
UPDATE events SET going_count = (
    SELECT count(*) FROM event_rsvps WHERE event_id = $1 AND going
) WHERE id = $1`, eventID)
		if err != nil {
			return fmt.Errorf("refresh going count: %w", err)
		}
		return nil
	}

	if r.tx != nil {
		return run(ctx, r.tx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rsvp tx: %w", err)
	}
	if err := run(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rsvp tx: %w", err)
	}
	return nil
}
