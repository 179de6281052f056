package model

import "time"

type BadgeKind string

const (
	BadgeFirstSubmission BadgeKind = "first_submission"
	BadgeWeekStreak      BadgeKind = "week_streak"
	BadgePoints100       BadgeKind = "points_100"
	BadgePoints500       BadgeKind = "points_500"
	BadgeFirstBook       BadgeKind = "first_book"
)

// Badge is a one-time achievement earned by a child. The (child, kind)
// pair is unique; awarding an already-held badge is a no-op.
type Badge struct {
	ID       int64     `json:"id"`
	ChildID  int64     `json:"child_id"`
	Kind     BadgeKind `json:"kind"`
	EarnedAt time.Time `json:"earned_at"`
}
