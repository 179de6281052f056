package store

import (
	"testing"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/taskday"
)

func TestApplySubmissionLocksInstances(t *testing.T) {
	db := setupTestDB(t)
	is := NewInstanceStore(db)
	ss := NewSubmissionStore(db)
	child := mustCreateChild(t, db, "Milo")
	tmpl := mustCreateTemplate(t, db, "Make bed", "daily", 10)
	a := mustCreateAssignment(t, db, child.ID, tmpl.ID, date(2026, 1, 1))

	day := date(2026, 2, 2)
	if err := is.CreateFromSpecs([]taskday.InstanceSpec{specFor(a, tmpl, day)}); err != nil {
		t.Fatalf("create instances: %v", err)
	}
	instances, _ := is.ListByChildDate(child.ID, day)
	evaluated, _ := taskday.SelfEvaluate(instances[0], 90, time.Now())
	if err := is.SaveEvaluation(evaluated); err != nil {
		t.Fatalf("save evaluation: %v", err)
	}
	instances, _ = is.ListByChildDate(child.ID, day)

	now := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)
	res, dec := taskday.Submit(child.ID, day, instances, nil, true, now)
	if !dec.Allowed {
		t.Fatalf("submit rejected: %+v", dec)
	}

	sub, err := ss.Apply(res)
	if err != nil {
		t.Fatalf("apply submission: %v", err)
	}
	if sub == nil || !sub.Date.Equal(day) {
		t.Fatalf("submission = %+v", sub)
	}
	// The returned row is the inserted one, fetched back by its ID.
	stored, _ := ss.GetByChildDate(child.ID, day)
	if sub.ID == 0 || stored == nil || stored.ID != sub.ID {
		t.Errorf("returned submission id = %d, stored = %+v", sub.ID, stored)
	}

	locked, _ := is.ListByChildDate(child.ID, day)
	if locked[0].Status != model.StatusSubmitted {
		t.Errorf("status = %q, want submitted", locked[0].Status)
	}
	if locked[0].LockedAt == nil {
		t.Error("locked_at should be set")
	}

	// The unique constraint rejects a second row for the same day.
	if _, err := ss.Apply(res); err == nil {
		t.Error("second apply for the same (child, date) should fail")
	}
}

func TestApplyValidationAwardsPoints(t *testing.T) {
	db := setupTestDB(t)
	is := NewInstanceStore(db)
	ss := NewSubmissionStore(db)
	child := mustCreateChild(t, db, "Milo")
	tmpl := mustCreateTemplate(t, db, "Homework", "daily", 20)
	a := mustCreateAssignment(t, db, child.ID, tmpl.ID, date(2026, 1, 1))

	day := date(2026, 2, 2)
	if err := is.CreateFromSpecs([]taskday.InstanceSpec{specFor(a, tmpl, day)}); err != nil {
		t.Fatalf("create instances: %v", err)
	}
	instances, _ := is.ListByChildDate(child.ID, day)
	evaluated, _ := taskday.SelfEvaluate(instances[0], 100, time.Now())
	if err := is.SaveEvaluation(evaluated); err != nil {
		t.Fatalf("save evaluation: %v", err)
	}
	instances, _ = is.ListByChildDate(child.ID, day)

	res, _ := taskday.Submit(child.ID, day, instances, nil, true, time.Now())
	sub, err := ss.Apply(res)
	if err != nil {
		t.Fatalf("apply submission: %v", err)
	}

	pending, err := ss.ListPendingValidation(testGroupID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != sub.ID {
		t.Fatalf("pending = %+v", pending)
	}

	submitted, _ := is.ListByChildDate(child.ID, day)
	vres, dec := taskday.ValidateDay(submitted, sub, map[int64]int{submitted[0].ID: 50}, time.Now())
	if !dec.Allowed {
		t.Fatalf("validate rejected: %+v", dec)
	}
	if err := ss.ApplyValidation(sub.ID, vres, "Good effort", time.Now()); err != nil {
		t.Fatalf("apply validation: %v", err)
	}

	got, _ := ss.GetByChildDate(child.ID, day)
	if got.ValidatedAt == nil {
		t.Error("validated_at should be set")
	}
	if got.PointsAwarded != 10 {
		t.Errorf("points_awarded = %d, want 10 (20 pts at 50%%)", got.PointsAwarded)
	}
	if got.ParentComment != "Good effort" {
		t.Errorf("parent_comment = %q", got.ParentComment)
	}

	validated, _ := is.ListByChildDate(child.ID, day)
	if validated[0].Status != model.StatusValidated {
		t.Errorf("status = %q, want validated", validated[0].Status)
	}
	if validated[0].ValidationScore == nil || *validated[0].ValidationScore != 50 {
		t.Errorf("validation_score = %v, want 50", validated[0].ValidationScore)
	}

	pending, _ = ss.ListPendingValidation(testGroupID)
	if len(pending) != 0 {
		t.Errorf("pending after validation = %+v", pending)
	}
}

func TestRecentDatesAndCount(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubmissionStore(db)
	child := mustCreateChild(t, db, "Milo")

	for _, day := range []time.Time{date(2026, 2, 1), date(2026, 2, 2), date(2026, 2, 3)} {
		res := &taskday.SubmitResult{Submission: model.DailySubmission{
			ChildID: child.ID, Date: day, SubmittedAt: time.Now(),
		}}
		if _, err := ss.Apply(res); err != nil {
			t.Fatalf("apply %v: %v", day, err)
		}
	}

	n, err := ss.CountByChild(child.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	dates, err := ss.RecentDates(child.ID, 2)
	if err != nil {
		t.Fatalf("recent dates: %v", err)
	}
	if len(dates) != 2 || !dates[0].Equal(date(2026, 2, 3)) || !dates[1].Equal(date(2026, 2, 2)) {
		t.Errorf("dates = %v, want newest first", dates)
	}
}
