// Package taskday holds the day-workflow rules: materializing a child's
// task instances for a date, self-evaluation, the submission gate, and the
// evaluation-window policy. Everything here is a pure function over
// supplied records; persistence happens in the caller.
package taskday

type Reason string

const (
	ReasonAlreadySubmitted      Reason = "already_submitted"
	ReasonOutsideWindow         Reason = "outside_window"
	ReasonIncompleteEvaluations Reason = "incomplete_evaluations"
	ReasonAlreadyLocked         Reason = "already_locked"
	ReasonInstanceLocked        Reason = "instance_locked"
	ReasonInvalidScore          Reason = "invalid_score"
	ReasonNotSubmitted          Reason = "not_submitted"
	ReasonAlreadyValidated      Reason = "already_validated"
)

// Decision is the outcome of a gate check. Business rejections are values,
// not errors: callers must branch on Allowed and surface Reason.
type Decision struct {
	Allowed bool    `json:"allowed"`
	Reason  Reason  `json:"reason,omitempty"`
	Pending []int64 `json:"pending_instance_ids,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}
