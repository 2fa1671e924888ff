package events

import (
	"sort"
	"time"
)

// defaultHorizonDays bounds expansion when a recurring event has no
// explicit recurrence end.
const defaultHorizonDays = 365

// Occurrence is one concrete calendar instance derived from an event.
// Generated occurrences carry the original event's content with the
// instance's own start and end times; SourceEventID points back at the
// stored series so clients can route edits to it.
type Occurrence struct {
	Event
	Generated     bool   `json:"generated,omitempty"`
	SourceEventID string `json:"source_event_id,omitempty"`
}

// Expand produces the occurrences of one event inside [rangeStart,
// rangeEnd]. Both boundaries are inclusive: the window is widened to the
// start of rangeStart's day and the end of rangeEnd's day. Generation also
// never runs past the event's recurrence end (inclusive, end of day) or,
// absent one, 365 days after the event's start.
//
// Events without a rule, or with no usable start time, pass through as a
// single unmarked occurrence. The same single passthrough is returned when
// a rule yields nothing inside the window, so callers can receive one
// "occurrence" dated outside the range they asked for. That fallback
// predates this implementation and is kept for compatibility; see
// DESIGN.md before changing it.
func Expand(event Event, rangeStart, rangeEnd time.Time) []Occurrence {
	if event.Recurrence == nil || event.StartTime.IsZero() {
		return []Occurrence{{Event: event}}
	}

	loc := event.StartTime.Location()
	windowStart := startOfDay(rangeStart.In(loc))
	limit := endOfDay(rangeEnd.In(loc))

	horizon := endOfDay(event.StartTime.AddDate(0, 0, defaultHorizonDays))
	if event.RecurrenceEnd != nil {
		horizon = endOfDay(event.RecurrenceEnd.In(loc))
	}
	if horizon.Before(limit) {
		limit = horizon
	}

	seriesStart := startOfDay(event.StartTime)
	earliest := windowStart
	if seriesStart.After(earliest) {
		earliest = seriesStart
	}

	var occurrences []Occurrence
	emit := func(day time.Time) {
		occurrences = append(occurrences, occurrenceOn(event, day))
	}

	rule := event.Recurrence
	switch rule.Freq {
	case FreqWeekly:
		interval := rule.Interval
		if interval < 1 {
			interval = 1
		}
		for cursor := seriesStart; !cursor.After(limit); cursor = cursor.AddDate(0, 0, 7*interval) {
			if !cursor.Before(windowStart) {
				emit(cursor)
			}
		}

	case FreqMonthlyByWeekday:
		for month := firstOfMonth(seriesStart); !month.After(limit); month = month.AddDate(0, 1, 0) {
			day := nthWeekdayOfMonth(month, rule.Week, rule.Weekday)
			if day.IsZero() {
				continue // month has no Nth such weekday
			}
			if day.Before(earliest) || day.After(limit) {
				continue
			}
			emit(day)
		}

	case FreqMonthlyByDate:
		if rule.Day >= 1 {
			for month := firstOfMonth(seriesStart); !month.After(limit); month = month.AddDate(0, 1, 0) {
				dayOfMonth := rule.Day
				if last := daysInMonth(month); dayOfMonth > last {
					dayOfMonth = last // clamp, never skip the month
				}
				day := month.AddDate(0, 0, dayOfMonth-1)
				if day.Before(earliest) || day.After(limit) {
					continue
				}
				emit(day)
			}
		}

	case FreqYearly:
		anchorDay := event.StartTime.Day()
		for month := firstOfMonth(seriesStart); !month.After(limit); month = month.AddDate(1, 0, 0) {
			dayOfMonth := anchorDay
			if last := daysInMonth(month); dayOfMonth > last {
				dayOfMonth = last // Feb 29 anchors land on Feb 28
			}
			day := month.AddDate(0, 0, dayOfMonth-1)
			if day.Before(earliest) || day.After(limit) {
				continue
			}
			emit(day)
		}
	}

	if len(occurrences) == 0 {
		return []Occurrence{{Event: event}}
	}
	return occurrences
}

// ExpandAll expands every event and returns the combined occurrences
// sorted ascending by start time. Coinciding occurrences from distinct
// events are all kept.
func ExpandAll(list []Event, rangeStart, rangeEnd time.Time) []Occurrence {
	var combined []Occurrence
	for _, event := range list {
		combined = append(combined, Expand(event, rangeStart, rangeEnd)...)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].StartTime.Before(combined[j].StartTime)
	})
	return combined
}

// occurrenceOn copies the event onto a concrete day, keeping the original
// time of day and duration.
func occurrenceOn(event Event, day time.Time) Occurrence {
	instance := event
	start := time.Date(day.Year(), day.Month(), day.Day(),
		event.StartTime.Hour(), event.StartTime.Minute(), event.StartTime.Second(),
		event.StartTime.Nanosecond(), event.StartTime.Location())
	instance.StartTime = start
	if event.EndTime != nil {
		end := start.Add(event.EndTime.Sub(event.StartTime))
		instance.EndTime = &end
	}
	return Occurrence{Event: instance, Generated: true, SourceEventID: event.ULID}
}

// nthWeekdayOfMonth returns the week-th weekday of the month holding
// firstDay, or the zero time when the month has no such day (a fifth
// Tuesday, say).
func nthWeekdayOfMonth(firstDay time.Time, week int, weekday time.Weekday) time.Time {
	if week < 1 || week > 5 {
		return time.Time{}
	}
	offset := (int(weekday) - int(firstDay.Weekday()) + 7) % 7
	dayOfMonth := 1 + offset + (week-1)*7
	if dayOfMonth > daysInMonth(firstDay) {
		return time.Time{}
	}
	return firstDay.AddDate(0, 0, dayOfMonth-1)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
