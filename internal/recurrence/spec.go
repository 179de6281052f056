package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSpec is returned by Validate for specs that must be rejected at
// assignment create/update time.
var ErrInvalidSpec = errors.New("invalid recurrence spec")

// ErrMalformedSpec is returned by IsDue when an unvalidated spec slips
// through to evaluation.
var ErrMalformedSpec = errors.New("malformed recurrence spec")

type Kind string

const (
	Daily      Kind = "daily"
	Weekday    Kind = "weekday"
	Weekend    Kind = "weekend"
	Monday     Kind = "monday"
	Tuesday    Kind = "tuesday"
	Wednesday  Kind = "wednesday"
	Thursday   Kind = "thursday"
	Friday     Kind = "friday"
	Saturday   Kind = "saturday"
	Sunday     Kind = "sunday"
	WeeklyDays Kind = "weekly_days"
	EveryNDays Kind = "every_n_days"
)

var singleWeekdays = map[Kind]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

var allKinds = map[Kind]bool{
	Daily: true, Weekday: true, Weekend: true,
	Monday: true, Tuesday: true, Wednesday: true, Thursday: true,
	Friday: true, Saturday: true, Sunday: true,
	WeeklyDays: true, EveryNDays: true,
}

// ParseKind parses a recurrence kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !allKinds[k] {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s)
	}
	return k, nil
}

// Spec is one recurrence rule. Days is only meaningful for WeeklyDays
// (weekday integers as time.Weekday, Sunday=0); Start and IntervalDays only
// for EveryNDays.
type Spec struct {
	Kind         Kind
	Days         []time.Weekday
	Start        time.Time
	IntervalDays int
}

// Validate checks the required-field rules for the spec's kind. It wraps
// ErrInvalidSpec so callers can classify the failure.
func (s Spec) Validate() error {
	if !allKinds[s.Kind] {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s.Kind)
	}
	switch s.Kind {
	case WeeklyDays:
		if len(s.Days) == 0 {
			return fmt.Errorf("%w: weekly_days requires a non-empty day set", ErrInvalidSpec)
		}
		for _, d := range s.Days {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidSpec, d)
			}
		}
	case EveryNDays:
		if s.Start.IsZero() {
			return fmt.Errorf("%w: every_n_days requires a start date", ErrInvalidSpec)
		}
		if s.IntervalDays < 1 {
			return fmt.Errorf("%w: every_n_days interval must be >= 1, got %d", ErrInvalidSpec, s.IntervalDays)
		}
	}
	return nil
}

// IsDue reports whether the spec makes a task due on the given calendar
// date. The date's time-of-day portion is ignored. IsDue assumes the spec
// passed Validate; a malformed spec yields ErrMalformedSpec.
func (s Spec) IsDue(date time.Time) (bool, error) {
	day := DayOf(date)

	switch s.Kind {
	case Daily:
		return true, nil
	case Weekday:
		wd := day.Weekday()
		return wd >= time.Monday && wd <= time.Friday, nil
	case Weekend:
		wd := day.Weekday()
		return wd == time.Saturday || wd == time.Sunday, nil
	case WeeklyDays:
		if len(s.Days) == 0 {
			return false, fmt.Errorf("%w: weekly_days with empty day set", ErrMalformedSpec)
		}
		wd := day.Weekday()
		for _, d := range s.Days {
			if d == wd {
				return true, nil
			}
		}
		return false, nil
	case EveryNDays:
		if s.Start.IsZero() || s.IntervalDays < 1 {
			return false, fmt.Errorf("%w: every_n_days missing start or interval", ErrMalformedSpec)
		}
		start := DayOf(s.Start)
		if day.Before(start) {
			return false, nil
		}
		return DaysBetween(start, day)%s.IntervalDays == 0, nil
	}

	if wd, ok := singleWeekdays[s.Kind]; ok {
		return day.Weekday() == wd, nil
	}
	return false, fmt.Errorf("%w: unknown kind %q", ErrMalformedSpec, s.Kind)
}

// String renders the spec in its storage form: the bare kind for simple
// rules, "weekly_days:1,3" for day sets, "every_n_days:2026-01-01:3" for
// interval rules.
func (s Spec) String() string {
	switch s.Kind {
	case WeeklyDays:
		days := make([]int, len(s.Days))
		for i, d := range s.Days {
			days[i] = int(d)
		}
		sort.Ints(days)
		parts := make([]string, len(days))
		for i, d := range days {
			parts[i] = strconv.Itoa(d)
		}
		return string(WeeklyDays) + ":" + strings.Join(parts, ",")
	case EveryNDays:
		return fmt.Sprintf("%s:%s:%d", EveryNDays, s.Start.Format(DateLayout), s.IntervalDays)
	default:
		return string(s.Kind)
	}
}

// ParseSpec parses the storage form produced by String.
func ParseSpec(raw string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	kind, err := ParseKind(parts[0])
	if err != nil {
		return Spec{}, err
	}

	switch kind {
	case WeeklyDays:
		if len(parts) != 2 {
			return Spec{}, fmt.Errorf("%w: weekly_days needs a day list", ErrInvalidSpec)
		}
		var days []time.Weekday
		for _, p := range strings.Split(parts[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return Spec{}, fmt.Errorf("%w: bad weekday %q", ErrInvalidSpec, p)
			}
			days = append(days, time.Weekday(n))
		}
		s := Spec{Kind: WeeklyDays, Days: days}
		return s, s.Validate()
	case EveryNDays:
		if len(parts) != 3 {
			return Spec{}, fmt.Errorf("%w: every_n_days needs start and interval", ErrInvalidSpec)
		}
		start, err := time.Parse(DateLayout, parts[1])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: bad start date %q", ErrInvalidSpec, parts[1])
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: bad interval %q", ErrInvalidSpec, parts[2])
		}
		s := Spec{Kind: EveryNDays, Start: start, IntervalDays: n}
		return s, s.Validate()
	default:
		if len(parts) != 1 {
			return Spec{}, fmt.Errorf("%w: kind %q takes no parameters", ErrInvalidSpec, kind)
		}
		return Spec{Kind: kind}, nil
	}
}

// Describe returns a human-readable description of the rule.
func (s Spec) Describe() string {
	switch s.Kind {
	case Daily:
		return "Every day"
	case Weekday:
		return "Monday through Friday"
	case Weekend:
		return "Saturdays and Sundays"
	case WeeklyDays:
		days := append([]time.Weekday(nil), s.Days...)
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = d.String()[:3]
		}
		return "Weekly on " + strings.Join(names, ", ")
	case EveryNDays:
		if s.IntervalDays == 1 {
			return "Every day from " + s.Start.Format(DateLayout)
		}
		return fmt.Sprintf("Every %d days from %s", s.IntervalDays, s.Start.Format(DateLayout))
	}
	if wd, ok := singleWeekdays[s.Kind]; ok {
		return "Every " + wd.String()
	}
	return ""
}
