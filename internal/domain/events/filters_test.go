package events

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFiltersDefaults(t *testing.T) {
	filters, pagination, err := ParseFilters(url.Values{})
	require.NoError(t, err)

	assert.Nil(t, filters.From)
	assert.Nil(t, filters.To)
	assert.False(t, filters.Expand)
	assert.Equal(t, 50, pagination.Limit)
}

func TestParseFiltersWindowAndExpand(t *testing.T) {
	values := url.Values{}
	values.Set("from", "2026-01-01")
	values.Set("to", "2026-06-30")
	values.Set("expand", "true")
	values.Set("limit", "20")

	filters, pagination, err := ParseFilters(values)
	require.NoError(t, err)

	require.NotNil(t, filters.From)
	assert.Equal(t, date(2026, time.January, 1), *filters.From)
	require.NotNil(t, filters.To)
	assert.Equal(t, date(2026, time.June, 30), *filters.To)
	assert.True(t, filters.Expand)
	assert.Equal(t, 20, pagination.Limit)
}

func TestParseFiltersErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{"bad from", "from", "January 1", "from"},
		{"bad to", "to", "2026-1", "to"},
		{"bad expand", "expand", "maybe", "expand"},
		{"bad limit", "limit", "lots", "limit"},
		{"limit too big", "limit", "500", "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			values.Set(tt.key, tt.value)
			_, _, err := ParseFilters(values)
			require.Error(t, err)

			var filterErr FilterError
			require.ErrorAs(t, err, &filterErr)
			assert.Equal(t, tt.field, filterErr.Field)
		})
	}
}

func TestParseFiltersRejectsReversedWindow(t *testing.T) {
	values := url.Values{}
	values.Set("from", "2026-06-30")
	values.Set("to", "2026-01-01")

	_, _, err := ParseFilters(values)
	require.Error(t, err)
}

func TestWindowDefaultsToSixMonthsEitherSide(t *testing.T) {
	now := date(2026, time.March, 15)
	from, to := Filters{}.Window(now)

	assert.Equal(t, date(2025, time.September, 15), from)
	assert.Equal(t, date(2026, time.September, 15), to)
}

func TestWindowUsesExplicitBounds(t *testing.T) {
	explicitFrom := date(2026, time.January, 1)
	explicitTo := date(2026, time.February, 1)
	from, to := Filters{From: &explicitFrom, To: &explicitTo}.Window(date(2026, time.June, 1))

	assert.Equal(t, explicitFrom, from)
	assert.Equal(t, explicitTo, to)
}
