package events

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// calendarWindowMonths is the default sliding window either side of today
// when a calendar request does not pin its own range.
const calendarWindowMonths = 6

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Filters are the query options on the events list endpoint. From/To bound
// the calendar window; Expand switches the response from stored events to
// generated occurrences.
type Filters struct {
	From   *time.Time
	To     *time.Time
	Expand bool
}

type Pagination struct {
	Limit int
	After string
}

func ParseFilters(values url.Values) (Filters, Pagination, error) {
	filters := Filters{}
	pagination := Pagination{Limit: 50}

	from, err := parseDate("from", values.Get("from"))
	if err != nil {
		return filters, pagination, err
	}
	to, err := parseDate("to", values.Get("to"))
	if err != nil {
		return filters, pagination, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filters, pagination, FilterError{Field: "to", Message: "must be on or after from"}
	}
	filters.From = from
	filters.To = to

	if raw := strings.TrimSpace(values.Get("expand")); raw != "" {
		expand, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, pagination, FilterError{Field: "expand", Message: "must be true or false"}
		}
		filters.Expand = expand
	}

	limit, err := parseLimit(values)
	if err != nil {
		return filters, pagination, err
	}
	pagination.Limit = limit
	pagination.After = strings.TrimSpace(values.Get("after"))

	return filters, pagination, nil
}

// Window resolves the effective calendar range, defaulting to six months
// back and six months ahead of now.
func (f Filters) Window(now time.Time) (time.Time, time.Time) {
	from := now.AddDate(0, -calendarWindowMonths, 0)
	to := now.AddDate(0, calendarWindowMonths, 0)
	if f.From != nil {
		from = *f.From
	}
	if f.To != nil {
		to = *f.To
	}
	return from, to
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, FilterError{Field: field, Message: "must be a YYYY-MM-DD date"}
	}
	return &parsed, nil
}

func parseLimit(values url.Values) (int, error) {
	limit := 50
	rawLimit := strings.TrimSpace(values.Get("limit"))
	if rawLimit == "" {
		return limit, nil
	}
	parsed, err := strconv.Atoi(rawLimit)
	if err != nil {
		return 0, FilterError{Field: "limit", Message: "must be a number"}
	}
	if parsed < 1 || parsed > 200 {
		return 0, FilterError{Field: "limit", Message: "must be between 1 and 200"}
	}
	return parsed, nil
}
