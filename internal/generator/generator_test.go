package generator

import (
	"log/slog"
	"testing"
	"time"

	"github.com/mootify/routinestars/internal/database"
	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/store"
)

func setup(t *testing.T) (*Generator, *store.ChildStore, *store.TaskStore, *store.AssignmentStore, *store.InstanceStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	children := store.NewChildStore(db)
	tasks := store.NewTaskStore(db)
	assignments := store.NewAssignmentStore(db)
	instances := store.NewInstanceStore(db)
	g := New(children, assignments, tasks, instances, slog.Default())
	return g, children, tasks, assignments, instances
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDayCreatesOnce(t *testing.T) {
	g, children, tasks, assignments, _ := setup(t)

	child, _ := children.Create(1, "Milo", "#fa0", "🦊")
	tmpl, _ := tasks.CreateTemplate(model.TaskTemplate{
		GroupID: 1, Title: "Make bed", Points: 5, Recurrence: "daily", Active: true,
	})
	if _, err := assignments.Create(model.Assignment{
		ChildID: child.ID, TemplateID: tmpl.ID, StartDate: date(2026, 1, 1), Active: true,
	}); err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	day := date(2026, 2, 2)
	first, anomalies, err := g.GenerateDay(child, day)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(anomalies) != 0 {
		t.Fatalf("anomalies: %+v", anomalies)
	}
	if len(first) != 1 {
		t.Fatalf("got %d instances, want 1", len(first))
	}

	second, _, err := g.GenerateDay(child, day)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("regeneration duplicated the day: %d instances", len(second))
	}
	if second[0].ID != first[0].ID {
		t.Errorf("instance replaced instead of kept: %d vs %d", second[0].ID, first[0].ID)
	}
}

func TestGenerateDayReportsAnomalies(t *testing.T) {
	g, children, tasks, assignments, _ := setup(t)

	child, _ := children.Create(1, "Milo", "#fa0", "🦊")
	good, _ := tasks.CreateTemplate(model.TaskTemplate{
		GroupID: 1, Title: "Read", Points: 15, Recurrence: "daily", Active: true,
	})
	dead, _ := tasks.CreateTemplate(model.TaskTemplate{
		GroupID: 1, Title: "Old chore", Points: 5, Recurrence: "daily", Active: true,
	})
	if _, err := assignments.Create(model.Assignment{
		ChildID: child.ID, TemplateID: good.ID, StartDate: date(2026, 1, 1), Active: true,
	}); err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if _, err := assignments.Create(model.Assignment{
		ChildID: child.ID, TemplateID: dead.ID, StartDate: date(2026, 1, 1), Active: true,
	}); err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if err := tasks.DeactivateTemplate(dead.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	instances, anomalies, err := g.GenerateDay(child, date(2026, 2, 2))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(instances) != 1 {
		t.Errorf("batch should continue past the anomaly, got %d instances", len(instances))
	}
	if len(anomalies) != 1 {
		t.Errorf("got %d anomalies, want 1", len(anomalies))
	}
}

func TestGenerateGroupCoversAllChildren(t *testing.T) {
	g, children, tasks, assignments, instances := setup(t)

	milo, _ := children.Create(1, "Milo", "#fa0", "🦊")
	nora, _ := children.Create(1, "Nora", "#0af", "🦉")
	tmpl, _ := tasks.CreateTemplate(model.TaskTemplate{
		GroupID: 1, Title: "Tidy up", Points: 5, Recurrence: "daily", Active: true,
	})
	for _, c := range []*model.Child{milo, nora} {
		if _, err := assignments.Create(model.Assignment{
			ChildID: c.ID, TemplateID: tmpl.ID, StartDate: date(2026, 1, 1), Active: true,
		}); err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}

	day := date(2026, 2, 2)
	created := g.GenerateGroup(1, day)
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	for _, c := range []*model.Child{milo, nora} {
		got, _ := instances.ListByChildDate(c.ID, day)
		if len(got) != 1 {
			t.Errorf("child %d has %d instances, want 1", c.ID, len(got))
		}
	}
}
