package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleWeekly(t *testing.T) {
	rule := NewRule("weekly", "2026-01-05")
	require.NotNil(t, rule)
	assert.Equal(t, FreqWeekly, rule.Freq)
	assert.Equal(t, 1, rule.Interval, "form-built weekly rules are always interval 1")
}

func TestNewRuleMonthlyByWeekday(t *testing.T) {
	tests := []struct {
		name    string
		anchor  string
		week    int
		weekday time.Weekday
	}{
		{"first saturday", "2026-01-03", 1, time.Saturday},
		{"first day of month", "2026-01-01", 1, time.Thursday},
		{"seventh is still week one", "2026-02-07", 1, time.Saturday},
		{"eighth starts week two", "2026-02-08", 2, time.Sunday},
		{"mid month", "2026-01-15", 3, time.Thursday},
		{"thirty-first", "2026-01-31", 5, time.Saturday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := NewRule("monthly_by_dow", tt.anchor)
			require.NotNil(t, rule)
			assert.Equal(t, FreqMonthlyByWeekday, rule.Freq)
			assert.Equal(t, tt.week, rule.Week)
			assert.Equal(t, tt.weekday, rule.Weekday)
		})
	}
}

func TestNewRuleMonthlyByDate(t *testing.T) {
	rule := NewRule("monthly_by_date", "2026-01-31")
	require.NotNil(t, rule)
	assert.Equal(t, FreqMonthlyByDate, rule.Freq)
	assert.Equal(t, 31, rule.Day)
}

func TestNewRuleYearly(t *testing.T) {
	rule := NewRule("yearly", "2024-02-29")
	require.NotNil(t, rule)
	assert.Equal(t, FreqYearly, rule.Freq)
}

func TestNewRuleRejectsBadInput(t *testing.T) {
	assert.Nil(t, NewRule("daily", "2026-01-05"))
	assert.Nil(t, NewRule("", "2026-01-05"))
	assert.Nil(t, NewRule("weekly", "not-a-date"))
	assert.Nil(t, NewRule("weekly", "2026-13-40"))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		rule *Rule
		want string
	}{
		{"nil rule", nil, ""},
		{"weekly", &Rule{Freq: FreqWeekly, Interval: 1}, "Repeats every week"},
		{"weekly ignores interval", &Rule{Freq: FreqWeekly, Interval: 3}, "Repeats every week"},
		{"first saturday", &Rule{Freq: FreqMonthlyByWeekday, Week: 1, Weekday: time.Saturday}, "Repeats every 1st Saturday of the month"},
		{"third sunday", &Rule{Freq: FreqMonthlyByWeekday, Week: 3, Weekday: time.Sunday}, "Repeats every 3rd Sunday of the month"},
		{"fifth friday", &Rule{Freq: FreqMonthlyByWeekday, Week: 5, Weekday: time.Friday}, "Repeats every 5th Friday of the month"},
		{"monthly 1st", &Rule{Freq: FreqMonthlyByDate, Day: 1}, "Repeats monthly on the 1st"},
		{"monthly 2nd", &Rule{Freq: FreqMonthlyByDate, Day: 2}, "Repeats monthly on the 2nd"},
		{"monthly 3rd", &Rule{Freq: FreqMonthlyByDate, Day: 3}, "Repeats monthly on the 3rd"},
		{"monthly 11th", &Rule{Freq: FreqMonthlyByDate, Day: 11}, "Repeats monthly on the 11th"},
		{"monthly 12th", &Rule{Freq: FreqMonthlyByDate, Day: 12}, "Repeats monthly on the 12th"},
		{"monthly 13th", &Rule{Freq: FreqMonthlyByDate, Day: 13}, "Repeats monthly on the 13th"},
		{"monthly 21st", &Rule{Freq: FreqMonthlyByDate, Day: 21}, "Repeats monthly on the 21st"},
		{"monthly 22nd", &Rule{Freq: FreqMonthlyByDate, Day: 22}, "Repeats monthly on the 22nd"},
		{"monthly 31st", &Rule{Freq: FreqMonthlyByDate, Day: 31}, "Repeats monthly on the 31st"},
		{"yearly", &Rule{Freq: FreqYearly}, "Repeats every year"},
		{"unknown freq", &Rule{Freq: Frequency("hourly")}, ""},
		{"week out of range", &Rule{Freq: FreqMonthlyByWeekday, Week: 6, Weekday: time.Monday}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Describe())
		})
	}
}

func TestRuleJSONOmitsIrrelevantFields(t *testing.T) {
	payload, err := json.Marshal(Rule{Freq: FreqWeekly, Interval: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"freq":"weekly","interval":2}`, string(payload))

	payload, err = json.Marshal(Rule{Freq: FreqYearly})
	require.NoError(t, err)
	assert.JSONEq(t, `{"freq":"yearly"}`, string(payload))
}

func TestRuleJSONKeepsSundayWeekday(t *testing.T) {
	// Sunday is weekday zero; omitempty must not swallow it.
	payload, err := json.Marshal(Rule{Freq: FreqMonthlyByWeekday, Week: 2, Weekday: time.Sunday})
	require.NoError(t, err)
	assert.JSONEq(t, `{"freq":"monthly_by_dow","week":2,"dow":0}`, string(payload))

	var parsed Rule
	require.NoError(t, json.Unmarshal(payload, &parsed))
	assert.Equal(t, time.Sunday, parsed.Weekday)
	assert.Equal(t, 2, parsed.Week)
}
