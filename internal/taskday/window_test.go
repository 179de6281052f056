package taskday

import (
	"testing"
	"time"
)

func allDays() [7]bool {
	return [7]bool{true, true, true, true, true, true, true}
}

func utcWindow(start, end string) *Window {
	return &Window{Timezone: "UTC", StartTime: start, EndTime: end, DaysMask: allDays()}
}

func TestNilWindowAlwaysPermits(t *testing.T) {
	var w *Window
	if !w.IsWithin(time.Date(2024, 3, 4, 3, 0, 0, 0, time.UTC)) {
		t.Error("no configured window must permit everything")
	}
}

func TestWindowBoundaries(t *testing.T) {
	w := utcWindow("08:00", "20:00")
	tests := []struct {
		hour, min int
		want      bool
	}{
		{7, 59, false},
		{8, 0, true},
		{12, 0, true},
		{19, 59, true},
		{20, 0, true}, // end minute inclusive
		{20, 1, false},
	}
	for _, tt := range tests {
		now := time.Date(2024, 3, 4, tt.hour, tt.min, 30, 0, time.UTC)
		if got := w.IsWithin(now); got != tt.want {
			t.Errorf("%02d:%02d -> %v, want %v", tt.hour, tt.min, got, tt.want)
		}
	}
}

func TestWindowDayMask(t *testing.T) {
	w := utcWindow("00:00", "23:59")
	// Weekdays only, Sunday-first mask.
	w.DaysMask = [7]bool{false, true, true, true, true, true, false}

	monday := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	if !w.IsWithin(monday) {
		t.Error("Monday should be permitted")
	}
	if w.IsWithin(saturday) || w.IsWithin(sunday) {
		t.Error("weekend should be blocked by the mask")
	}
}

func TestWindowTimezoneResolution(t *testing.T) {
	w := &Window{Timezone: "Europe/Paris", StartTime: "17:00", EndTime: "20:00", DaysMask: allDays()}

	// 16:30 UTC in winter is 17:30 in Paris: inside the window.
	if !w.IsWithin(time.Date(2024, 1, 10, 16, 30, 0, 0, time.UTC)) {
		t.Error("16:30 UTC should be within a 17:00 Paris window")
	}
	// 16:30 UTC is 16:30 local when probed from UTC config.
	if utcWindow("17:00", "20:00").IsWithin(time.Date(2024, 1, 10, 16, 30, 0, 0, time.UTC)) {
		t.Error("same instant must be outside the UTC window")
	}
	// Weekday must also resolve in the window's zone: 23:30 UTC Sunday is
	// Monday 00:30 in Paris.
	lateSunday := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	mondayOnly := &Window{
		Timezone: "Europe/Paris", StartTime: "00:00", EndTime: "23:59",
		DaysMask: [7]bool{false, true, false, false, false, false, false},
	}
	if !mondayOnly.IsWithin(lateSunday) {
		t.Error("weekday should be computed in the window's timezone")
	}
}

func TestWindowCrossingMidnightNeverPermits(t *testing.T) {
	w := utcWindow("22:00", "06:00")
	probes := []time.Time{
		time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 3, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	for _, now := range probes {
		if w.IsWithin(now) {
			t.Errorf("start>end window must never permit, but %v passed", now)
		}
	}
}

func TestWindowValidate(t *testing.T) {
	tests := []struct {
		name string
		w    Window
		ok   bool
	}{
		{"valid", *utcWindow("08:00", "20:00"), true},
		{"all day", AllDay(), true},
		{"crosses midnight", *utcWindow("22:00", "06:00"), false},
		{"bad start", *utcWindow("8am", "20:00"), false},
		{"bad end", *utcWindow("08:00", "24:30"), false},
		{"bad timezone", Window{Timezone: "Mars/Olympus", StartTime: "08:00", EndTime: "20:00", DaysMask: allDays()}, false},
	}
	for _, tt := range tests {
		err := tt.w.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestWindowBadTimezoneFallsBackToUTC(t *testing.T) {
	w := &Window{Timezone: "Nowhere/Atlantis", StartTime: "08:00", EndTime: "20:00", DaysMask: allDays()}
	if !w.IsWithin(time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)) {
		t.Error("unresolvable zone should evaluate in UTC rather than block")
	}
}
