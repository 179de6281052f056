package model

import "time"

type InstanceStatus string

const (
	StatusAssigned      InstanceStatus = "assigned"
	StatusSelfEvaluated InstanceStatus = "self_evaluated"
	StatusSubmitted     InstanceStatus = "submitted"
	StatusValidated     InstanceStatus = "validated"
)

// TaskInstance is one day's materialized occurrence of an assignment.
// Title, icon, points and category are snapshots of the template at
// creation time; later template edits do not rewrite existing instances.
type TaskInstance struct {
	ID              int64          `json:"id"`
	AssignmentID    int64          `json:"assignment_id"`
	ChildID         int64          `json:"child_id"`
	Date            time.Time      `json:"date"`
	Title           string         `json:"title"`
	Icon            string         `json:"icon"`
	Points          int            `json:"points"`
	CategoryID      *int64         `json:"category_id"`
	Status          InstanceStatus `json:"status"`
	SelfScore       *int           `json:"self_score"`
	ValidationScore *int           `json:"validation_score"`
	ParentComment   string         `json:"parent_comment,omitempty"`
	LockedAt        *time.Time     `json:"locked_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Locked reports whether the child can no longer modify the instance.
func (t TaskInstance) Locked() bool {
	return t.Status == StatusSubmitted || t.Status == StatusValidated
}
