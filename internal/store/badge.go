package store

import (
	"database/sql"
	"fmt"

	"github.com/mootify/routinestars/internal/model"
)

type BadgeStore struct {
	db *sql.DB
}

func NewBadgeStore(db *sql.DB) *BadgeStore {
	return &BadgeStore{db: db}
}

// Award grants a badge once per (child, kind). Reports whether this call
// created the badge.
func (s *BadgeStore) Award(childID int64, kind model.BadgeKind) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO badges (child_id, kind) VALUES (?, ?)`,
		childID, string(kind),
	)
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *BadgeStore) ListByChild(childID int64) ([]model.Badge, error) {
	rows, err := s.db.Query(
		`SELECT id, child_id, kind, earned_at FROM badges WHERE child_id = ? ORDER BY earned_at`, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var badges []model.Badge
	for rows.Next() {
		var b model.Badge
		var kind string
		if err := rows.Scan(&b.ID, &b.ChildID, &kind, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		b.Kind = model.BadgeKind(kind)
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (s *BadgeStore) Has(childID int64, kind model.BadgeKind) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM badges WHERE child_id = ? AND kind = ?`, childID, string(kind),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check badge: %w", err)
	}
	return n > 0, nil
}
