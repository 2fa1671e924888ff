package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type Frequency string

const (
	FreqWeekly           Frequency = "weekly"
	FreqMonthlyByWeekday Frequency = "monthly_by_dow"
	FreqMonthlyByDate    Frequency = "monthly_by_date"
	FreqYearly           Frequency = "yearly"
)

// Rule describes how an event repeats. Only the fields relevant to Freq are
// meaningful: Interval for weekly, Week/Weekday for monthly_by_dow, Day for
// monthly_by_date. Yearly carries no parameters; the anchor date supplies
// month and day.
type Rule struct {
	Freq     Frequency
	Interval int
	Week     int // 1..5, nth occurrence of Weekday in the month
	Weekday  time.Weekday
	Day      int // 1..31, clamped to shorter months at expansion time
}

// NewRule builds a rule from a frequency keyword and an anchor date in
// YYYY-MM-DD form, the two inputs the event form collects. Unknown keywords
// and malformed dates yield nil; callers treat nil as "does not repeat".
//
// The weekly interval is fixed to 1 here: the form has no interval field,
// so multi-week cadences only enter through stored rules.
func NewRule(freq, anchor string) *Rule {
	anchorDate, err := time.Parse("2006-01-02", anchor)
	if err != nil {
		return nil
	}

	switch Frequency(freq) {
	case FreqWeekly:
		return &Rule{Freq: FreqWeekly, Interval: 1}
	case FreqMonthlyByWeekday:
		return &Rule{
			Freq:    FreqMonthlyByWeekday,
			Week:    (anchorDate.Day()-1)/7 + 1,
			Weekday: anchorDate.Weekday(),
		}
	case FreqMonthlyByDate:
		return &Rule{Freq: FreqMonthlyByDate, Day: anchorDate.Day()}
	case FreqYearly:
		return &Rule{Freq: FreqYearly}
	default:
		return nil
	}
}

var weekdayNames = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

var weekOrdinals = [...]string{"1st", "2nd", "3rd", "4th", "5th"}

// Describe renders the rule as the sentence shown under the event form.
// It returns "" for a nil or unrecognized rule.
//
// Weekly rules always read "Repeats every week" even when Interval > 1;
// the text has never reflected the interval and clients rely on the exact
// wording, so the quirk stays until product revisits it.
func (r *Rule) Describe() string {
	if r == nil {
		return ""
	}

	switch r.Freq {
	case FreqWeekly:
		return "Repeats every week"
	case FreqMonthlyByWeekday:
		if r.Week < 1 || r.Week > 5 || r.Weekday < time.Sunday || r.Weekday > time.Saturday {
			return ""
		}
		return fmt.Sprintf("Repeats every %s %s of the month",
			weekOrdinals[r.Week-1], weekdayNames[r.Weekday])
	case FreqMonthlyByDate:
		if r.Day < 1 {
			return ""
		}
		return fmt.Sprintf("Repeats monthly on the %d%s", r.Day, ordinalSuffix(r.Day))
	case FreqYearly:
		return "Repeats every year"
	default:
		return ""
	}
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

type ruleJSON struct {
	Freq     string `json:"freq"`
	Interval int    `json:"interval,omitempty"`
	Week     int    `json:"week,omitempty"`
	Weekday  *int   `json:"dow,omitempty"`
	Day      int    `json:"day,omitempty"`
}

// MarshalJSON emits only the fields relevant to the rule's frequency, so a
// weekly rule never serializes a meaningless "dow":0.
func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Freq: string(r.Freq)}
	switch r.Freq {
	case FreqWeekly:
		out.Interval = r.Interval
	case FreqMonthlyByWeekday:
		out.Week = r.Week
		dow := int(r.Weekday)
		out.Weekday = &dow
	case FreqMonthlyByDate:
		out.Day = r.Day
	}
	return json.Marshal(out)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Freq = Frequency(in.Freq)
	r.Interval = in.Interval
	r.Week = in.Week
	if in.Weekday != nil {
		r.Weekday = time.Weekday(*in.Weekday)
	}
	r.Day = in.Day
	return nil
}
