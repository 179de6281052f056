package websocket

import (
	"time"

	"github.com/mootify/routinestars/internal/recurrence"
)

// Domain events broadcast to the kiosk and parent dashboards. Every write
// that changes what a screen shows emits one of these.

func InstancesGenerated(childID int64, date time.Time, count int) Message {
	return NewMessage("task_instances", "generated", childID, map[string]any{
		"date":  date.Format(recurrence.DateLayout),
		"count": count,
	})
}

func InstanceEvaluated(instanceID, childID int64, score int) Message {
	return NewMessage("task_instance", "evaluated", instanceID, map[string]any{
		"child_id": childID,
		"score":    score,
	})
}

func DaySubmitted(childID int64, date time.Time) Message {
	return NewMessage("task_day", "submitted", childID, map[string]any{
		"date": date.Format(recurrence.DateLayout),
	})
}

func DayValidated(childID int64, date time.Time, points int) Message {
	return NewMessage("task_day", "validated", childID, map[string]any{
		"date":   date.Format(recurrence.DateLayout),
		"points": points,
	})
}

func RewardRedeemed(rewardID, childID int64, pointsSpent int) Message {
	return NewMessage("reward", "redeemed", rewardID, map[string]any{
		"child_id":     childID,
		"points_spent": pointsSpent,
	})
}

func BadgeEarned(childID int64, kind string) Message {
	return NewMessage("badge", "earned", childID, map[string]any{
		"kind": kind,
	})
}

func BookFinished(bookID, childID int64) Message {
	return NewMessage("book", "finished", bookID, map[string]any{
		"child_id": childID,
	})
}
