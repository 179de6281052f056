package taskday

import (
	"time"

	"github.com/mootify/routinestars/internal/model"
)

// ValidateResult is what the persistence layer applies atomically after a
// parent validates a submitted day: the updated instances plus the points
// total to write on the submission.
type ValidateResult struct {
	Instances   []model.TaskInstance
	TotalPoints int
}

// ValidateDay applies parent validation to a submitted day. Overrides maps
// instance ID to the parent's score; instances without an override keep the
// child's self score. Each instance earns its snapshot points scaled by the
// validation score.
func ValidateDay(
	instances []model.TaskInstance,
	submission *model.DailySubmission,
	overrides map[int64]int,
	now time.Time,
) (*ValidateResult, Decision) {
	if submission == nil {
		return nil, deny(ReasonNotSubmitted)
	}
	if submission.ValidatedAt != nil {
		return nil, deny(ReasonAlreadyValidated)
	}
	for _, score := range overrides {
		if score < 0 || score > 100 {
			return nil, deny(ReasonInvalidScore)
		}
	}

	res := &ValidateResult{Instances: make([]model.TaskInstance, 0, len(instances))}
	for _, inst := range instances {
		score := 0
		if inst.SelfScore != nil {
			score = *inst.SelfScore
		}
		if override, ok := overrides[inst.ID]; ok {
			score = override
		}

		inst.ValidationScore = &score
		inst.Status = model.StatusValidated
		inst.UpdatedAt = now
		res.TotalPoints += PointsAwarded(inst.Points, score)
		res.Instances = append(res.Instances, inst)
	}
	return res, allow()
}

// PointsAwarded scales an instance's snapshot points by a 0-100 validation
// score, rounding down.
func PointsAwarded(points, score int) int {
	return points * score / 100
}
