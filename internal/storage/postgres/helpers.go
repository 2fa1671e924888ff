package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// derefString safely dereferences a string pointer, returning empty string if nil
func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func textOrNil(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func timeOrNil(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	value := ts.Time
	return &value
}
