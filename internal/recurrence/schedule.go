package recurrence

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form used in storage and on the wire.
const DateLayout = "2006-01-02"

// DayOf normalizes a timestamp to its calendar day at midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Both are
// normalized to midnight first, so partial days never round oddly.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)) / (24 * time.Hour))
}

// Schedule is the effective scheduling rule for one assignment: a
// recurrence spec bounded by the assignment's start and optional inclusive
// end date. Dates outside the bounds are never due regardless of the spec.
type Schedule struct {
	Spec  Spec
	Start time.Time
	End   *time.Time
}

// Validate checks both the bounds and the embedded spec.
func (s Schedule) Validate() error {
	if s.End != nil && DayOf(*s.End).Before(DayOf(s.Start)) {
		return fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidSpec, s.End.Format(DateLayout), s.Start.Format(DateLayout))
	}
	return s.Spec.Validate()
}

// IsDue reports whether a task is due on the given date. The bounds check
// short-circuits before the spec is consulted.
func (s Schedule) IsDue(date time.Time) (bool, error) {
	day := DayOf(date)
	if day.Before(DayOf(s.Start)) {
		return false, nil
	}
	if s.End != nil && day.After(DayOf(*s.End)) {
		return false, nil
	}
	return s.Spec.IsDue(day)
}

// DueDates returns the ascending due dates in [from, to], both inclusive,
// by testing each calendar day. The per-day scan is the reference
// semantics; ranges here are days to weeks, so no stride shortcut.
func (s Schedule) DueDates(from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	for day := DayOf(from); !day.After(DayOf(to)); day = day.AddDate(0, 0, 1) {
		due, err := s.IsDue(day)
		if err != nil {
			return nil, err
		}
		if due {
			dates = append(dates, day)
		}
	}
	return dates, nil
}
