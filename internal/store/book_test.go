package store

import (
	"testing"
	"time"
)

func TestBookProgress(t *testing.T) {
	db := setupTestDB(t)
	bs := NewBookStore(db)
	child := mustCreateChild(t, db, "Milo")

	book, err := bs.Create(child.ID, "The Hobbit", "Tolkien", 300, 50)
	if err != nil {
		t.Fatalf("create book: %v", err)
	}

	if _, err := bs.LogReading(book.ID, date(2026, 2, 1), 30); err != nil {
		t.Fatalf("log reading: %v", err)
	}
	if _, err := bs.LogReading(book.ID, date(2026, 2, 2), 45); err != nil {
		t.Fatalf("log reading: %v", err)
	}

	books, err := bs.ListByChild(child.ID)
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("got %d books, want 1", len(books))
	}
	if books[0].PagesRead != 75 {
		t.Errorf("pages_read = %d, want 75", books[0].PagesRead)
	}
	if books[0].Percent != 25 {
		t.Errorf("percent = %v, want 25", books[0].Percent)
	}

	logs, err := bs.ListLogs(book.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 2 || !logs[0].Date.Equal(date(2026, 2, 2)) {
		t.Errorf("logs = %+v, want newest first", logs)
	}
}

func TestBookFinishOnce(t *testing.T) {
	db := setupTestDB(t)
	bs := NewBookStore(db)
	child := mustCreateChild(t, db, "Milo")

	book, err := bs.Create(child.ID, "Matilda", "Dahl", 240, 30)
	if err != nil {
		t.Fatalf("create book: %v", err)
	}

	first, err := bs.Finish(book.ID, time.Now())
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !first {
		t.Error("first finish should report true")
	}

	again, err := bs.Finish(book.ID, time.Now())
	if err != nil {
		t.Fatalf("finish again: %v", err)
	}
	if again {
		t.Error("second finish must be a no-op")
	}

	n, err := bs.CountFinished(child.ID)
	if err != nil {
		t.Fatalf("count finished: %v", err)
	}
	if n != 1 {
		t.Errorf("finished = %d, want 1", n)
	}
}
