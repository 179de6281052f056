package model

import "time"

// EvaluationWindow is the permitted time-of-day range for self-evaluation
// and submission. One default row per group; an optional per-child row
// overrides it. DaysMask is Sunday-first.
type EvaluationWindow struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"group_id"`
	ChildID   *int64    `json:"child_id"`
	Timezone  string    `json:"timezone"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	DaysMask  [7]bool   `json:"days_mask"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
