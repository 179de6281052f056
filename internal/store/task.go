package store

import (
	"database/sql"
	"fmt"

	"github.com/mootify/routinestars/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// --- Category methods ---

const categoryCols = `id, group_id, name, icon, sort_order, created_at, updated_at`

func scanCategory(scanner interface{ Scan(...any) error }) (*model.TaskCategory, error) {
	var c model.TaskCategory
	err := scanner.Scan(&c.ID, &c.GroupID, &c.Name, &c.Icon, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *TaskStore) ListCategories(groupID int64) ([]model.TaskCategory, error) {
	rows, err := s.db.Query(
		`SELECT `+categoryCols+` FROM task_categories WHERE group_id = ? ORDER BY sort_order, name`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.TaskCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

func (s *TaskStore) GetCategoryByID(id int64) (*model.TaskCategory, error) {
	row := s.db.QueryRow(`SELECT `+categoryCols+` FROM task_categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *TaskStore) CreateCategory(groupID int64, name, icon string, sortOrder int) (*model.TaskCategory, error) {
	result, err := s.db.Exec(
		`INSERT INTO task_categories (group_id, name, icon, sort_order) VALUES (?, ?, ?, ?)`,
		groupID, name, icon, sortOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCategoryByID(id)
}

func (s *TaskStore) UpdateCategory(id int64, name, icon string, sortOrder int) (*model.TaskCategory, error) {
	_, err := s.db.Exec(
		`UPDATE task_categories SET name = ?, icon = ?, sort_order = ?, updated_at = datetime('now') WHERE id = ?`,
		name, icon, sortOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetCategoryByID(id)
}

func (s *TaskStore) DeleteCategory(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// --- Template methods ---

const templateCols = `id, group_id, category_id, title, icon, points, recurrence, description, active, created_at, updated_at`

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	var categoryID sql.NullInt64
	var active int

	err := scanner.Scan(
		&t.ID, &t.GroupID, &categoryID, &t.Title, &t.Icon, &t.Points,
		&t.Recurrence, &t.Description, &active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	t.Active = active != 0
	return &t, nil
}

func (s *TaskStore) ListTemplates(groupID int64) ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM task_templates WHERE group_id = ? ORDER BY active DESC, title`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

// TemplatesByID loads every template of the group keyed by id, the shape the
// day builder wants.
func (s *TaskStore) TemplatesByID(groupID int64) (map[int64]model.TaskTemplate, error) {
	templates, err := s.ListTemplates(groupID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.TaskTemplate, len(templates))
	for _, t := range templates {
		byID[t.ID] = t
	}
	return byID, nil
}

func (s *TaskStore) GetTemplateByID(id int64) (*model.TaskTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM task_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TaskStore) CreateTemplate(t model.TaskTemplate) (*model.TaskTemplate, error) {
	result, err := s.db.Exec(
		`INSERT INTO task_templates (group_id, category_id, title, icon, points, recurrence, description, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.GroupID, t.CategoryID, t.Title, t.Icon, t.Points, t.Recurrence, t.Description, boolToInt(t.Active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTemplateByID(id)
}

func (s *TaskStore) UpdateTemplate(t model.TaskTemplate) (*model.TaskTemplate, error) {
	_, err := s.db.Exec(
		`UPDATE task_templates
		 SET category_id = ?, title = ?, icon = ?, points = ?, recurrence = ?, description = ?, active = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		t.CategoryID, t.Title, t.Icon, t.Points, t.Recurrence, t.Description, boolToInt(t.Active), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetTemplateByID(t.ID)
}

// DeactivateTemplate soft-deletes: existing instances keep their snapshot and
// the day builder reports assignments still pointing at it.
func (s *TaskStore) DeactivateTemplate(id int64) error {
	_, err := s.db.Exec(
		`UPDATE task_templates SET active = 0, updated_at = datetime('now') WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	return nil
}

func (s *TaskStore) DeleteTemplate(id int64) error {
	_, err := s.db.Exec(`DELETE FROM task_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func collectTemplates(rows *sql.Rows) ([]model.TaskTemplate, error) {
	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
