package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/taskday"
)

type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

const submissionCols = `id, child_id, date, submitted_at, validated_at, parent_comment, points_awarded`

func scanSubmission(scanner interface{ Scan(...any) error }) (*model.DailySubmission, error) {
	var sub model.DailySubmission
	var date string
	var validatedAt sql.NullTime

	err := scanner.Scan(&sub.ID, &sub.ChildID, &date, &sub.SubmittedAt, &validatedAt, &sub.ParentComment, &sub.PointsAwarded)
	if err != nil {
		return nil, err
	}
	if sub.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if validatedAt.Valid {
		sub.ValidatedAt = &validatedAt.Time
	}
	return &sub, nil
}

func (s *SubmissionStore) GetByChildDate(childID int64, date time.Time) (*model.DailySubmission, error) {
	row := s.db.QueryRow(
		`SELECT `+submissionCols+` FROM daily_submissions WHERE child_id = ? AND date = ?`,
		childID, dateString(date),
	)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// Apply persists a submission atomically: the submission row plus the lock
// on every instance of the day. The UNIQUE(child_id, date) constraint turns
// a concurrent double-submit into an error instead of a second row.
func (s *SubmissionStore) Apply(res *taskday.SubmitResult) (*model.DailySubmission, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO daily_submissions (child_id, date, submitted_at) VALUES (?, ?, ?)`,
		res.Submission.ChildID, dateString(res.Submission.Date), res.Submission.SubmittedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, instID := range res.LockInstanceIDs {
		_, err := tx.Exec(
			`UPDATE task_instances SET status = ?, locked_at = ?, updated_at = ? WHERE id = ?`,
			string(model.StatusSubmitted), res.Submission.SubmittedAt.UTC(), res.Submission.SubmittedAt.UTC(), instID,
		)
		if err != nil {
			return nil, fmt.Errorf("lock instance %d: %w", instID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.getByID(id)
}

func (s *SubmissionStore) getByID(id int64) (*model.DailySubmission, error) {
	row := s.db.QueryRow(`SELECT `+submissionCols+` FROM daily_submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// ApplyValidation persists a parent validation atomically: per-instance
// scores and statuses plus the submission's validation stamp and points.
func (s *SubmissionStore) ApplyValidation(submissionID int64, res *taskday.ValidateResult, comment string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, inst := range res.Instances {
		_, err := tx.Exec(
			`UPDATE task_instances SET validation_score = ?, status = ?, updated_at = ? WHERE id = ?`,
			inst.ValidationScore, string(inst.Status), now.UTC(), inst.ID,
		)
		if err != nil {
			return fmt.Errorf("validate instance %d: %w", inst.ID, err)
		}
	}

	_, err = tx.Exec(
		`UPDATE daily_submissions SET validated_at = ?, parent_comment = ?, points_awarded = ? WHERE id = ?`,
		now.UTC(), comment, res.TotalPoints, submissionID,
	)
	if err != nil {
		return fmt.Errorf("stamp submission: %w", err)
	}
	return tx.Commit()
}

func (s *SubmissionStore) ListByChild(childID int64, limit int) ([]model.DailySubmission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionCols+` FROM daily_submissions WHERE child_id = ? ORDER BY date DESC LIMIT ?`,
		childID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.DailySubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListPendingValidation returns submitted-but-unvalidated days across the
// group, newest first, for the parent review queue.
func (s *SubmissionStore) ListPendingValidation(groupID int64) ([]model.DailySubmission, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.child_id, s.date, s.submitted_at, s.validated_at, s.parent_comment, s.points_awarded
		 FROM daily_submissions s
		 JOIN children c ON c.id = s.child_id
		 WHERE c.group_id = ? AND s.validated_at IS NULL
		 ORDER BY s.date DESC, s.child_id`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	defer rows.Close()

	var subs []model.DailySubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *SubmissionStore) CountByChild(childID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_submissions WHERE child_id = ?`, childID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// RecentDates returns the child's submission dates, newest first, for
// streak checks.
func (s *SubmissionStore) RecentDates(childID int64, limit int) ([]time.Time, error) {
	rows, err := s.db.Query(
		`SELECT date FROM daily_submissions WHERE child_id = ? ORDER BY date DESC LIMIT ?`,
		childID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent submission dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		date, err := time.ParseInLocation(recurrence.DateLayout, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse date: %w", err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}
