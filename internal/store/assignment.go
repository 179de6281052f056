package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentCols = `id, child_id, template_id, start_date, end_date, active, recurrence, recurrence_days, interval_start, interval_days, created_at, updated_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var startDate string
	var endDate, intervalStart sql.NullString
	var days string
	var active int

	err := scanner.Scan(
		&a.ID, &a.ChildID, &a.TemplateID, &startDate, &endDate, &active,
		&a.Recurrence, &days, &intervalStart, &a.IntervalDays, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.StartDate, err = parseDate(startDate); err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}
	if a.EndDate, err = parseDatePtr(endDate); err != nil {
		return nil, fmt.Errorf("end_date: %w", err)
	}
	if a.IntervalStart, err = parseDatePtr(intervalStart); err != nil {
		return nil, fmt.Errorf("interval_start: %w", err)
	}
	if a.RecurrenceDays, err = parseDayList(days); err != nil {
		return nil, fmt.Errorf("recurrence_days: %w", err)
	}
	a.Active = active != 0
	return &a, nil
}

func (s *AssignmentStore) Create(a model.Assignment) (*model.Assignment, error) {
	result, err := s.db.Exec(
		`INSERT INTO assignments (child_id, template_id, start_date, end_date, active, recurrence, recurrence_days, interval_start, interval_days)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ChildID, a.TemplateID, dateString(a.StartDate), dateStringPtr(a.EndDate),
		boolToInt(a.Active), a.Recurrence, formatDayList(a.RecurrenceDays),
		dateStringPtr(a.IntervalStart), a.IntervalDays,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AssignmentStore) GetByID(id int64) (*model.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) ListByChild(childID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT `+assignmentCols+` FROM assignments WHERE child_id = ? ORDER BY id`, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListByGroup returns every assignment of the group's children, the batch the
// nightly generator walks.
func (s *AssignmentStore) ListByGroup(groupID int64) ([]model.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.child_id, a.template_id, a.start_date, a.end_date, a.active, a.recurrence, a.recurrence_days, a.interval_start, a.interval_days, a.created_at, a.updated_at
		 FROM assignments a
		 JOIN children c ON c.id = a.child_id
		 WHERE c.group_id = ?
		 ORDER BY a.child_id, a.id`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list group assignments: %w", err)
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func (s *AssignmentStore) Update(a model.Assignment) (*model.Assignment, error) {
	_, err := s.db.Exec(
		`UPDATE assignments
		 SET start_date = ?, end_date = ?, active = ?, recurrence = ?, recurrence_days = ?, interval_start = ?, interval_days = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		dateString(a.StartDate), dateStringPtr(a.EndDate), boolToInt(a.Active),
		a.Recurrence, formatDayList(a.RecurrenceDays), dateStringPtr(a.IntervalStart), a.IntervalDays, a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	return s.GetByID(a.ID)
}

func (s *AssignmentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

func collectAssignments(rows *sql.Rows) ([]model.Assignment, error) {
	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// --- date and day-list codecs ---

func dateString(t time.Time) string {
	return recurrence.DayOf(t).Format(recurrence.DateLayout)
}

func dateStringPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateString(*t)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(recurrence.DateLayout, s, time.UTC)
}

func parseDatePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDayList(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func parseDayList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad day %q: %w", p, err)
		}
		days[i] = d
	}
	return days, nil
}
