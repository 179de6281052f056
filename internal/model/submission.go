package model

import "time"

// DailySubmission marks a (child, date) pair as locked in by the child.
// At most one exists per child per date.
type DailySubmission struct {
	ID            int64      `json:"id"`
	ChildID       int64      `json:"child_id"`
	Date          time.Time  `json:"date"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ValidatedAt   *time.Time `json:"validated_at"`
	ParentComment string     `json:"parent_comment,omitempty"`
	PointsAwarded int        `json:"points_awarded"`
}
