package store

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestChildCRUD(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChildStore(db)

	child, err := cs.Create(testGroupID, "Milo", "#1e90ff", "🐯")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.Name != "Milo" || child.AvatarEmoji != "🐯" {
		t.Errorf("child = %+v", child)
	}
	if child.SortOrder != 0 {
		t.Errorf("sort_order = %d, want 0", child.SortOrder)
	}

	second, err := cs.Create(testGroupID, "Nora", "#ff6347", "🦉")
	if err != nil {
		t.Fatalf("create second child: %v", err)
	}
	if second.SortOrder != 1 {
		t.Errorf("second sort_order = %d, want 1", second.SortOrder)
	}

	updated, err := cs.Update(child.ID, "Milo R.", "#000", "🐼")
	if err != nil {
		t.Fatalf("update child: %v", err)
	}
	if updated.Name != "Milo R." || updated.AvatarEmoji != "🐼" {
		t.Errorf("updated = %+v", updated)
	}

	list, err := cs.List(testGroupID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d children, want 2", len(list))
	}

	if err := cs.UpdateSortOrder([]int64{second.ID, child.ID}); err != nil {
		t.Fatalf("update sort order: %v", err)
	}
	list, _ = cs.List(testGroupID)
	if list[0].ID != second.ID {
		t.Errorf("first child = %d, want %d after reorder", list[0].ID, second.ID)
	}

	if err := cs.Delete(child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	got, err := cs.GetByID(child.ID)
	if err != nil {
		t.Fatalf("get deleted child: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestChildPIN(t *testing.T) {
	db := setupTestDB(t)
	cs := NewChildStore(db)
	child := mustCreateChild(t, db, "Milo")

	if child.HasPIN {
		t.Error("new child should have no PIN")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	if err := cs.SetPIN(child.ID, string(hash)); err != nil {
		t.Fatalf("set pin: %v", err)
	}

	got, _ := cs.GetByID(child.ID)
	if !got.HasPIN {
		t.Error("HasPIN should report true after SetPIN")
	}

	stored, err := cs.GetPINHash(child.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("1234")) != nil {
		t.Error("stored hash should verify against the PIN")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("9999")) == nil {
		t.Error("wrong PIN should not verify")
	}

	if err := cs.ClearPIN(child.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	got, _ = cs.GetByID(child.ID)
	if got.HasPIN {
		t.Error("HasPIN should report false after ClearPIN")
	}
}
