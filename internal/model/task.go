package model

import "time"

type TaskCategory struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskTemplate is a reusable task definition. Assignments bind it to a
// child; daily instances snapshot its fields at creation time.
type TaskTemplate struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	CategoryID  *int64    `json:"category_id"`
	Title       string    `json:"title"`
	Icon        string    `json:"icon"`
	Points      int       `json:"points"`
	Recurrence  string    `json:"recurrence"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
