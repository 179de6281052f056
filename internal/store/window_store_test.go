package store

import (
	"testing"

	"github.com/mootify/routinestars/internal/model"
)

func TestWindowResolvePrecedence(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWindowStore(db)
	child := mustCreateChild(t, db, "Milo")

	// No rows: unrestricted.
	w, err := ws.Resolve(testGroupID, child.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if w != nil {
		t.Fatalf("expected nil window, got %+v", w)
	}

	// Group default applies to everyone.
	_, err = ws.Upsert(model.EvaluationWindow{
		GroupID: testGroupID, Timezone: "Europe/Paris",
		StartTime: "17:00", EndTime: "20:00",
		DaysMask: [7]bool{true, true, true, true, true, true, true},
	})
	if err != nil {
		t.Fatalf("upsert default: %v", err)
	}
	w, _ = ws.Resolve(testGroupID, child.ID)
	if w == nil || w.ChildID != nil || w.StartTime != "17:00" {
		t.Fatalf("resolved = %+v, want group default", w)
	}

	// Per-child row wins over the default.
	_, err = ws.Upsert(model.EvaluationWindow{
		GroupID: testGroupID, ChildID: &child.ID, Timezone: "Europe/Paris",
		StartTime: "16:00", EndTime: "19:00",
		DaysMask: [7]bool{false, true, true, true, true, true, false},
	})
	if err != nil {
		t.Fatalf("upsert child window: %v", err)
	}
	w, _ = ws.Resolve(testGroupID, child.ID)
	if w == nil || w.ChildID == nil || w.StartTime != "16:00" {
		t.Fatalf("resolved = %+v, want child override", w)
	}
	if w.DaysMask[0] || !w.DaysMask[1] {
		t.Errorf("days_mask = %v", w.DaysMask)
	}

	// Other children still get the default.
	other := mustCreateChild(t, db, "Nora")
	w, _ = ws.Resolve(testGroupID, other.ID)
	if w == nil || w.ChildID != nil {
		t.Fatalf("resolved = %+v, want group default for other child", w)
	}
}

func TestWindowUpsertUpdatesInPlace(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWindowStore(db)

	first, err := ws.Upsert(model.EvaluationWindow{
		GroupID: testGroupID, Timezone: "UTC", StartTime: "08:00", EndTime: "20:00",
		DaysMask: [7]bool{true, true, true, true, true, true, true},
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := ws.Upsert(model.EvaluationWindow{
		GroupID: testGroupID, Timezone: "UTC", StartTime: "09:00", EndTime: "21:00",
		DaysMask: [7]bool{true, true, true, true, true, true, true},
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: %d vs %d", second.ID, first.ID)
	}
	if second.StartTime != "09:00" {
		t.Errorf("start_time = %q, want 09:00", second.StartTime)
	}
}

func TestWindowDeleteRestoresDefault(t *testing.T) {
	db := setupTestDB(t)
	ws := NewWindowStore(db)
	child := mustCreateChild(t, db, "Milo")

	allWeek := [7]bool{true, true, true, true, true, true, true}
	if _, err := ws.Upsert(model.EvaluationWindow{GroupID: testGroupID, Timezone: "UTC", StartTime: "08:00", EndTime: "20:00", DaysMask: allWeek}); err != nil {
		t.Fatalf("upsert default: %v", err)
	}
	if _, err := ws.Upsert(model.EvaluationWindow{GroupID: testGroupID, ChildID: &child.ID, Timezone: "UTC", StartTime: "10:00", EndTime: "18:00", DaysMask: allWeek}); err != nil {
		t.Fatalf("upsert child: %v", err)
	}

	if err := ws.Delete(testGroupID, &child.ID); err != nil {
		t.Fatalf("delete child window: %v", err)
	}
	w, _ := ws.Resolve(testGroupID, child.ID)
	if w == nil || w.ChildID != nil {
		t.Fatalf("resolved = %+v, want group default after delete", w)
	}
}

func TestDaysMaskCodec(t *testing.T) {
	mask := [7]bool{true, false, true, false, true, false, true}
	got, err := parseDaysMask(formatDaysMask(mask))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != mask {
		t.Errorf("round trip = %v, want %v", got, mask)
	}

	if _, err := parseDaysMask("101"); err == nil {
		t.Error("short mask should error")
	}
}
