package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mootify/routinestars/internal/database"
	"github.com/mootify/routinestars/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// The init migration seeds group 1.
const testGroupID = int64(1)

func mustCreateChild(t *testing.T, db *sql.DB, name string) *model.Child {
	t.Helper()
	child, err := NewChildStore(db).Create(testGroupID, name, "#fa0", "🦊")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return child
}

func mustCreateTemplate(t *testing.T, db *sql.DB, title, rec string, points int) *model.TaskTemplate {
	t.Helper()
	tmpl, err := NewTaskStore(db).CreateTemplate(model.TaskTemplate{
		GroupID: testGroupID, Title: title, Points: points, Recurrence: rec, Active: true,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tmpl
}

func mustCreateAssignment(t *testing.T, db *sql.DB, childID, templateID int64, start time.Time) *model.Assignment {
	t.Helper()
	a, err := NewAssignmentStore(db).Create(model.Assignment{
		ChildID: childID, TemplateID: templateID, StartDate: start, Active: true,
	})
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
