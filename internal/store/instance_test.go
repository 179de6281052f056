package store

import (
	"testing"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/taskday"
)

func specFor(a *model.Assignment, tmpl *model.TaskTemplate, day time.Time) taskday.InstanceSpec {
	return taskday.InstanceSpec{
		AssignmentID: a.ID, ChildID: a.ChildID, Date: day,
		Title: tmpl.Title, Icon: tmpl.Icon, Points: tmpl.Points, CategoryID: tmpl.CategoryID,
	}
}

func TestCreateFromSpecsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	is := NewInstanceStore(db)
	child := mustCreateChild(t, db, "Milo")
	tmpl := mustCreateTemplate(t, db, "Make bed", "daily", 5)
	a := mustCreateAssignment(t, db, child.ID, tmpl.ID, date(2026, 1, 1))

	day := date(2026, 2, 2)
	specs := []taskday.InstanceSpec{specFor(a, tmpl, day)}

	if err := is.CreateFromSpecs(specs); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// Re-running the same batch must not duplicate the day.
	if err := is.CreateFromSpecs(specs); err != nil {
		t.Fatalf("second create: %v", err)
	}

	instances, err := is.ListByChildDate(child.ID, day)
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(instances))
	}

	inst := instances[0]
	if inst.Title != "Make bed" || inst.Points != 5 {
		t.Errorf("snapshot = %+v", inst)
	}
	if inst.Status != model.StatusAssigned {
		t.Errorf("status = %q, want assigned", inst.Status)
	}
	if !inst.Date.Equal(day) {
		t.Errorf("date = %v, want %v", inst.Date, day)
	}
}

func TestSnapshotSurvivesTemplateEdit(t *testing.T) {
	db := setupTestDB(t)
	is := NewInstanceStore(db)
	ts := NewTaskStore(db)
	child := mustCreateChild(t, db, "Milo")
	tmpl := mustCreateTemplate(t, db, "Read", "daily", 15)
	a := mustCreateAssignment(t, db, child.ID, tmpl.ID, date(2026, 1, 1))

	day := date(2026, 2, 2)
	if err := is.CreateFromSpecs([]taskday.InstanceSpec{specFor(a, tmpl, day)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tmpl.Points = 50
	tmpl.Title = "Read a lot"
	if _, err := ts.UpdateTemplate(*tmpl); err != nil {
		t.Fatalf("update template: %v", err)
	}

	instances, _ := is.ListByChildDate(child.ID, day)
	if instances[0].Points != 15 || instances[0].Title != "Read" {
		t.Errorf("instance should keep its snapshot, got %+v", instances[0])
	}
}

func TestSaveEvaluation(t *testing.T) {
	db := setupTestDB(t)
	is := NewInstanceStore(db)
	child := mustCreateChild(t, db, "Milo")
	tmpl := mustCreateTemplate(t, db, "Homework", "weekday", 20)
	a := mustCreateAssignment(t, db, child.ID, tmpl.ID, date(2026, 1, 1))

	day := date(2026, 2, 2)
	if err := is.CreateFromSpecs([]taskday.InstanceSpec{specFor(a, tmpl, day)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	instances, _ := is.ListByChildDate(child.ID, day)

	updated, dec := taskday.SelfEvaluate(instances[0], 80, time.Now())
	if !dec.Allowed {
		t.Fatalf("evaluate rejected: %+v", dec)
	}
	if err := is.SaveEvaluation(updated); err != nil {
		t.Fatalf("save evaluation: %v", err)
	}

	got, err := is.GetByID(updated.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.SelfScore == nil || *got.SelfScore != 80 {
		t.Errorf("self_score = %v, want 80", got.SelfScore)
	}
	if got.Status != model.StatusSelfEvaluated {
		t.Errorf("status = %q, want self_evaluated", got.Status)
	}
}
