package taskday

import (
	"testing"
	"time"

	"github.com/mootify/routinestars/internal/model"
)

func TestSelfEvaluateSetsScoreAndStatus(t *testing.T) {
	now := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)
	inst := model.TaskInstance{ID: 1, Status: model.StatusAssigned}

	got, d := SelfEvaluate(inst, 80, now)
	if !d.Allowed {
		t.Fatalf("rejected: %+v", d)
	}
	if got.SelfScore == nil || *got.SelfScore != 80 {
		t.Errorf("self_score = %v, want 80", got.SelfScore)
	}
	if got.Status != model.StatusSelfEvaluated {
		t.Errorf("status = %q, want self_evaluated", got.Status)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, now)
	}
}

func TestSelfEvaluateOverwritesBeforeSubmission(t *testing.T) {
	now := time.Now()
	prev := 40
	inst := model.TaskInstance{ID: 1, Status: model.StatusSelfEvaluated, SelfScore: &prev}

	got, d := SelfEvaluate(inst, 95, now)
	if !d.Allowed {
		t.Fatalf("rejected: %+v", d)
	}
	if *got.SelfScore != 95 {
		t.Errorf("self_score = %d, want 95", *got.SelfScore)
	}
}

func TestSelfEvaluateLockedInstance(t *testing.T) {
	now := time.Now()
	for _, status := range []model.InstanceStatus{model.StatusSubmitted, model.StatusValidated} {
		// Locked wins over any score, boundaries included.
		for _, score := range []int{0, 50, 100, -1, 101} {
			inst := model.TaskInstance{ID: 1, Status: status}
			_, d := SelfEvaluate(inst, score, now)
			if d.Allowed {
				t.Fatalf("status %q score %d: should be rejected", status, score)
			}
			if d.Reason != ReasonInstanceLocked {
				t.Errorf("status %q score %d: reason = %q, want instance_locked", status, score, d.Reason)
			}
		}
	}
}

func TestSelfEvaluateScoreBounds(t *testing.T) {
	now := time.Now()
	tests := []struct {
		score int
		ok    bool
	}{
		{-1, false},
		{0, true},
		{100, true},
		{101, false},
	}
	for _, tt := range tests {
		inst := model.TaskInstance{ID: 1, Status: model.StatusAssigned}
		_, d := SelfEvaluate(inst, tt.score, now)
		if d.Allowed != tt.ok {
			t.Errorf("score %d: allowed = %v, want %v", tt.score, d.Allowed, tt.ok)
		}
		if !tt.ok && d.Reason != ReasonInvalidScore {
			t.Errorf("score %d: reason = %q, want invalid_score", tt.score, d.Reason)
		}
	}
}
