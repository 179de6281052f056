package taskday

import (
	"fmt"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
)

// InstanceSpec describes a task instance to create. Template fields are
// snapshotted here; later template edits never rewrite created instances.
type InstanceSpec struct {
	AssignmentID int64
	ChildID      int64
	Date         time.Time
	Title        string
	Icon         string
	Points       int
	CategoryID   *int64
}

// Anomaly is a non-fatal problem found while building a day. The batch
// continues; the caller logs or reports these.
type Anomaly struct {
	AssignmentID int64
	Message      string
}

// SpecForAssignment returns the assignment-level recurrence override, or
// ok=false when the assignment defers to its template.
func SpecForAssignment(a model.Assignment) (recurrence.Spec, bool, error) {
	if a.Recurrence == "" {
		return recurrence.Spec{}, false, nil
	}
	kind, err := recurrence.ParseKind(a.Recurrence)
	if err != nil {
		return recurrence.Spec{}, false, err
	}
	spec := recurrence.Spec{Kind: kind}
	if kind == recurrence.WeeklyDays {
		for _, d := range a.RecurrenceDays {
			spec.Days = append(spec.Days, time.Weekday(d))
		}
	}
	if kind == recurrence.EveryNDays {
		if a.IntervalStart != nil {
			spec.Start = *a.IntervalStart
		}
		spec.IntervalDays = a.IntervalDays
	}
	if err := spec.Validate(); err != nil {
		return recurrence.Spec{}, false, err
	}
	return spec, true, nil
}

// EffectiveSchedule resolves the schedule for an assignment: the
// assignment's recurrence override when present, otherwise the template's
// recurrence, bounded by the assignment's start/end dates.
func EffectiveSchedule(a model.Assignment, tmpl model.TaskTemplate) (recurrence.Schedule, error) {
	spec, ok, err := SpecForAssignment(a)
	if err != nil {
		return recurrence.Schedule{}, err
	}
	if !ok {
		spec, err = recurrence.ParseSpec(tmpl.Recurrence)
		if err != nil {
			return recurrence.Schedule{}, fmt.Errorf("template %d: %w", tmpl.ID, err)
		}
	}
	return recurrence.Schedule{Spec: spec, Start: a.StartDate, End: a.EndDate}, nil
}

// BuildDay returns the instance specs to create for (childID, date):
// one per active assignment of the child that is due on the date and has
// no existing instance. Calling it again with the previous output included
// in existing yields nothing, which is the generate-if-missing contract.
func BuildDay(
	childID int64,
	date time.Time,
	assignments []model.Assignment,
	templates map[int64]model.TaskTemplate,
	existing []model.TaskInstance,
) ([]InstanceSpec, []Anomaly) {
	day := recurrence.DayOf(date)

	covered := make(map[int64]bool, len(existing))
	for _, inst := range existing {
		if recurrence.DayOf(inst.Date).Equal(day) {
			covered[inst.AssignmentID] = true
		}
	}

	var specs []InstanceSpec
	var anomalies []Anomaly
	for _, a := range assignments {
		if a.ChildID != childID || !a.Active {
			continue
		}
		if covered[a.ID] {
			continue
		}

		tmpl, ok := templates[a.TemplateID]
		if !ok {
			anomalies = append(anomalies, Anomaly{
				AssignmentID: a.ID,
				Message:      fmt.Sprintf("unknown template %d", a.TemplateID),
			})
			continue
		}
		if !tmpl.Active {
			anomalies = append(anomalies, Anomaly{
				AssignmentID: a.ID,
				Message:      fmt.Sprintf("template %d is inactive", tmpl.ID),
			})
			continue
		}

		sched, err := EffectiveSchedule(a, tmpl)
		if err != nil {
			anomalies = append(anomalies, Anomaly{AssignmentID: a.ID, Message: err.Error()})
			continue
		}
		due, err := sched.IsDue(day)
		if err != nil {
			anomalies = append(anomalies, Anomaly{AssignmentID: a.ID, Message: err.Error()})
			continue
		}
		if !due {
			continue
		}

		specs = append(specs, InstanceSpec{
			AssignmentID: a.ID,
			ChildID:      a.ChildID,
			Date:         day,
			Title:        tmpl.Title,
			Icon:         tmpl.Icon,
			Points:       tmpl.Points,
			CategoryID:   tmpl.CategoryID,
		})
	}
	return specs, anomalies
}
