package taskday

import (
	"time"

	"github.com/mootify/routinestars/internal/model"
)

// SelfEvaluate applies a child's score to an instance. Re-evaluating
// before submission overwrites the prior score; once the instance is
// submitted or validated it is immutable to the child.
func SelfEvaluate(inst model.TaskInstance, score int, now time.Time) (model.TaskInstance, Decision) {
	if inst.Locked() {
		return inst, deny(ReasonInstanceLocked)
	}
	if score < 0 || score > 100 {
		return inst, deny(ReasonInvalidScore)
	}

	inst.SelfScore = &score
	inst.Status = model.StatusSelfEvaluated
	inst.UpdatedAt = now
	return inst, allow()
}
