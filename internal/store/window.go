package store

import (
	"database/sql"
	"fmt"

	"github.com/mootify/routinestars/internal/model"
)

type WindowStore struct {
	db *sql.DB
}

func NewWindowStore(db *sql.DB) *WindowStore {
	return &WindowStore{db: db}
}

const windowCols = `id, group_id, child_id, timezone, start_time, end_time, days_mask, created_at, updated_at`

func scanWindow(scanner interface{ Scan(...any) error }) (*model.EvaluationWindow, error) {
	var w model.EvaluationWindow
	var childID sql.NullInt64
	var mask string

	err := scanner.Scan(&w.ID, &w.GroupID, &childID, &w.Timezone, &w.StartTime, &w.EndTime, &mask, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if childID.Valid {
		w.ChildID = &childID.Int64
	}
	if w.DaysMask, err = parseDaysMask(mask); err != nil {
		return nil, err
	}
	return &w, nil
}

// Resolve returns the window governing a child: the per-child row when one
// exists, otherwise the group default, otherwise nil (no restriction).
func (s *WindowStore) Resolve(groupID, childID int64) (*model.EvaluationWindow, error) {
	w, err := s.getRow(groupID, &childID)
	if err != nil {
		return nil, err
	}
	if w != nil {
		return w, nil
	}
	return s.getRow(groupID, nil)
}

func (s *WindowStore) GetDefault(groupID int64) (*model.EvaluationWindow, error) {
	return s.getRow(groupID, nil)
}

func (s *WindowStore) GetByChild(groupID, childID int64) (*model.EvaluationWindow, error) {
	return s.getRow(groupID, &childID)
}

func (s *WindowStore) getRow(groupID int64, childID *int64) (*model.EvaluationWindow, error) {
	var row *sql.Row
	if childID == nil {
		row = s.db.QueryRow(`SELECT `+windowCols+` FROM evaluation_windows WHERE group_id = ? AND child_id IS NULL`, groupID)
	} else {
		row = s.db.QueryRow(`SELECT `+windowCols+` FROM evaluation_windows WHERE group_id = ? AND child_id = ?`, groupID, *childID)
	}
	w, err := scanWindow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get window: %w", err)
	}
	return w, nil
}

// Upsert creates or replaces the window row for (group, child). A NULL
// child is the group default, which SQLite's UNIQUE treats as distinct, so
// the lookup-then-write happens explicitly.
func (s *WindowStore) Upsert(w model.EvaluationWindow) (*model.EvaluationWindow, error) {
	existing, err := s.getRow(w.GroupID, w.ChildID)
	if err != nil {
		return nil, err
	}

	mask := formatDaysMask(w.DaysMask)
	if existing != nil {
		_, err = s.db.Exec(
			`UPDATE evaluation_windows SET timezone = ?, start_time = ?, end_time = ?, days_mask = ?, updated_at = datetime('now') WHERE id = ?`,
			w.Timezone, w.StartTime, w.EndTime, mask, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("update window: %w", err)
		}
	} else {
		_, err = s.db.Exec(
			`INSERT INTO evaluation_windows (group_id, child_id, timezone, start_time, end_time, days_mask) VALUES (?, ?, ?, ?, ?, ?)`,
			w.GroupID, w.ChildID, w.Timezone, w.StartTime, w.EndTime, mask,
		)
		if err != nil {
			return nil, fmt.Errorf("insert window: %w", err)
		}
	}
	return s.getRow(w.GroupID, w.ChildID)
}

func (s *WindowStore) Delete(groupID int64, childID *int64) error {
	var err error
	if childID == nil {
		_, err = s.db.Exec(`DELETE FROM evaluation_windows WHERE group_id = ? AND child_id IS NULL`, groupID)
	} else {
		_, err = s.db.Exec(`DELETE FROM evaluation_windows WHERE group_id = ? AND child_id = ?`, groupID, *childID)
	}
	if err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	return nil
}

// days_mask is seven '0'/'1' characters, Sunday first.

func formatDaysMask(mask [7]bool) string {
	b := make([]byte, 7)
	for i, on := range mask {
		if on {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func parseDaysMask(s string) ([7]bool, error) {
	var mask [7]bool
	if len(s) != 7 {
		return mask, fmt.Errorf("days_mask %q: want 7 characters", s)
	}
	for i := 0; i < 7; i++ {
		mask[i] = s[i] == '1'
	}
	return mask, nil
}
