package taskday

import (
	"fmt"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
)

// Window is the evaluation-window policy: the weekday/time range in which
// a child may self-evaluate and submit. A nil *Window means no window is
// configured, which permits everything.
type Window struct {
	Timezone  string
	StartTime string // HH:MM
	EndTime   string // HH:MM
	DaysMask  [7]bool // Sunday-first
}

// WindowFromModel converts a stored window config. Nil in, nil out.
func WindowFromModel(w *model.EvaluationWindow) *Window {
	if w == nil {
		return nil
	}
	return &Window{
		Timezone:  w.Timezone,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		DaysMask:  w.DaysMask,
	}
}

// Validate rejects configs that could never be saved deliberately. A start
// after the end would be a window crossing midnight; those are rejected
// here rather than wrapped at evaluation time.
func (w *Window) Validate() error {
	if _, err := time.LoadLocation(w.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", recurrence.ErrInvalidSpec, w.Timezone)
	}
	start, err := parseMinuteOfDay(w.StartTime)
	if err != nil {
		return err
	}
	end, err := parseMinuteOfDay(w.EndTime)
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("%w: window start %s is after end %s", recurrence.ErrInvalidSpec, w.StartTime, w.EndTime)
	}
	return nil
}

// IsWithin reports whether now falls inside the window. The instant is
// resolved into the window's timezone; the day mask is checked first, then
// the inclusive minute range. A window whose start is after its end never
// permits anything.
func (w *Window) IsWithin(now time.Time) bool {
	if w == nil {
		return true
	}

	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	if !w.DaysMask[int(local.Weekday())] {
		return false
	}

	start, err := parseMinuteOfDay(w.StartTime)
	if err != nil {
		return false
	}
	end, err := parseMinuteOfDay(w.EndTime)
	if err != nil {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	return minute >= start && minute <= end
}

// ClosesWithin reports whether the window is open at now but will close
// within lead. The reminder loop uses this to nudge children who have not
// submitted before the window shuts.
func (w *Window) ClosesWithin(now time.Time, lead time.Duration) bool {
	if w == nil {
		return false
	}
	if !w.IsWithin(now) {
		return false
	}

	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	end, err := parseMinuteOfDay(w.EndTime)
	if err != nil {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return end-minute <= int(lead.Minutes())
}

func parseMinuteOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("%w: bad time %q", recurrence.ErrInvalidSpec, hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// AllDay is the permissive default used when a group has no window row.
func AllDay() Window {
	return Window{
		Timezone:  "UTC",
		StartTime: "00:00",
		EndTime:   "23:59",
		DaysMask:  [7]bool{true, true, true, true, true, true, true},
	}
}
