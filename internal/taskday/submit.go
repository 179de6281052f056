package taskday

import (
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
)

// SubmitResult is what the persistence layer must apply atomically: the
// submission row plus the instances to flip to submitted/locked.
type SubmitResult struct {
	Submission      model.DailySubmission
	LockInstanceIDs []int64
}

// CanSubmit checks the submission gate for a (child, date). Rules run in
// order; the first failure is the reported reason.
func CanSubmit(instances []model.TaskInstance, existing *model.DailySubmission, windowOpen bool) Decision {
	if existing != nil {
		return deny(ReasonAlreadySubmitted)
	}
	if !windowOpen {
		return deny(ReasonOutsideWindow)
	}

	var pending []int64
	for _, inst := range instances {
		if inst.SelfScore == nil {
			pending = append(pending, inst.ID)
		}
	}
	if len(pending) > 0 {
		d := deny(ReasonIncompleteEvaluations)
		d.Pending = pending
		return d
	}

	// Double-submission guard: no instance may already be locked.
	for _, inst := range instances {
		if inst.Locked() {
			return deny(ReasonAlreadyLocked)
		}
	}
	return allow()
}

// Submit runs the gate and, when allowed, produces the submission record
// and the instance IDs to lock. It performs no persistence; the caller
// must apply the result in one transaction.
func Submit(
	childID int64,
	date time.Time,
	instances []model.TaskInstance,
	existing *model.DailySubmission,
	windowOpen bool,
	now time.Time,
) (*SubmitResult, Decision) {
	if d := CanSubmit(instances, existing, windowOpen); !d.Allowed {
		return nil, d
	}

	ids := make([]int64, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	return &SubmitResult{
		Submission: model.DailySubmission{
			ChildID:     childID,
			Date:        recurrence.DayOf(date),
			SubmittedAt: now,
		},
		LockInstanceIDs: ids,
	}, allow()
}
