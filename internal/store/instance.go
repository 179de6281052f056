package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/taskday"
)

type InstanceStore struct {
	db *sql.DB
}

func NewInstanceStore(db *sql.DB) *InstanceStore {
	return &InstanceStore{db: db}
}

const instanceCols = `id, assignment_id, child_id, date, title, icon, points, category_id, status, self_score, validation_score, parent_comment, locked_at, created_at, updated_at`

func scanInstance(scanner interface{ Scan(...any) error }) (*model.TaskInstance, error) {
	var t model.TaskInstance
	var date string
	var categoryID sql.NullInt64
	var selfScore, validationScore sql.NullInt64
	var lockedAt sql.NullTime
	var status string

	err := scanner.Scan(
		&t.ID, &t.AssignmentID, &t.ChildID, &date, &t.Title, &t.Icon, &t.Points,
		&categoryID, &status, &selfScore, &validationScore, &t.ParentComment,
		&lockedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if selfScore.Valid {
		v := int(selfScore.Int64)
		t.SelfScore = &v
	}
	if validationScore.Valid {
		v := int(validationScore.Int64)
		t.ValidationScore = &v
	}
	if lockedAt.Valid {
		t.LockedAt = &lockedAt.Time
	}
	t.Status = model.InstanceStatus(status)
	return &t, nil
}

// CreateFromSpecs inserts the day builder's output. INSERT OR IGNORE rides
// the UNIQUE(assignment_id, date) constraint, so a concurrent generator run
// cannot duplicate a day.
func (s *InstanceStore) CreateFromSpecs(specs []taskday.InstanceSpec) error {
	if len(specs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO task_instances (assignment_id, child_id, date, title, icon, points, category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, spec := range specs {
		_, err := stmt.Exec(
			spec.AssignmentID, spec.ChildID, dateString(spec.Date),
			spec.Title, spec.Icon, spec.Points, spec.CategoryID,
		)
		if err != nil {
			return fmt.Errorf("insert instance for assignment %d: %w", spec.AssignmentID, err)
		}
	}
	return tx.Commit()
}

func (s *InstanceStore) GetByID(id int64) (*model.TaskInstance, error) {
	row := s.db.QueryRow(`SELECT `+instanceCols+` FROM task_instances WHERE id = ?`, id)
	t, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return t, nil
}

func (s *InstanceStore) ListByChildDate(childID int64, date time.Time) ([]model.TaskInstance, error) {
	rows, err := s.db.Query(
		`SELECT `+instanceCols+` FROM task_instances WHERE child_id = ? AND date = ? ORDER BY id`,
		childID, dateString(date),
	)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()
	return collectInstances(rows)
}

// SaveEvaluation persists a self-evaluated instance produced by the
// day-workflow rules.
func (s *InstanceStore) SaveEvaluation(inst model.TaskInstance) error {
	_, err := s.db.Exec(
		`UPDATE task_instances SET self_score = ?, status = ?, updated_at = ? WHERE id = ?`,
		inst.SelfScore, string(inst.Status), inst.UpdatedAt.UTC(), inst.ID,
	)
	if err != nil {
		return fmt.Errorf("save evaluation: %w", err)
	}
	return nil
}

func collectInstances(rows *sql.Rows) ([]model.TaskInstance, error) {
	var instances []model.TaskInstance
	for rows.Next() {
		t, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, *t)
	}
	return instances, rows.Err()
}
