// Package generator materializes task instances for calendar days: on
// demand when a day view is first opened, and in batch from the nightly
// job. Generation is idempotent; re-running a day creates nothing new.
package generator

import (
	"log/slog"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/taskday"
)

type Generator struct {
	children    *store.ChildStore
	assignments *store.AssignmentStore
	tasks       *store.TaskStore
	instances   *store.InstanceStore
	logger      *slog.Logger
}

func New(
	children *store.ChildStore,
	assignments *store.AssignmentStore,
	tasks *store.TaskStore,
	instances *store.InstanceStore,
	logger *slog.Logger,
) *Generator {
	return &Generator{
		children:    children,
		assignments: assignments,
		tasks:       tasks,
		instances:   instances,
		logger:      logger,
	}
}

// GenerateDay ensures the child's instances for the date exist and returns
// the full set. Anomalies (assignments pointing at missing or inactive
// templates, malformed recurrence overrides) are logged and returned; they
// never abort the batch.
func (g *Generator) GenerateDay(child *model.Child, date time.Time) ([]model.TaskInstance, []taskday.Anomaly, error) {
	date = recurrence.DayOf(date)

	assignments, err := g.assignments.ListByChild(child.ID)
	if err != nil {
		return nil, nil, err
	}
	templates, err := g.tasks.TemplatesByID(child.GroupID)
	if err != nil {
		return nil, nil, err
	}
	existing, err := g.instances.ListByChildDate(child.ID, date)
	if err != nil {
		return nil, nil, err
	}

	specs, anomalies := taskday.BuildDay(child.ID, date, assignments, templates, existing)
	for _, a := range anomalies {
		g.logger.Warn("day generation anomaly",
			"child_id", child.ID,
			"assignment_id", a.AssignmentID,
			"date", date.Format(recurrence.DateLayout),
			"reason", a.Message,
		)
	}

	if len(specs) > 0 {
		if err := g.instances.CreateFromSpecs(specs); err != nil {
			return nil, anomalies, err
		}
		existing, err = g.instances.ListByChildDate(child.ID, date)
		if err != nil {
			return nil, anomalies, err
		}
	}
	return existing, anomalies, nil
}

// GenerateGroup runs GenerateDay for every child in the group. One child's
// failure does not stop the others.
func (g *Generator) GenerateGroup(groupID int64, date time.Time) int {
	children, err := g.children.List(groupID)
	if err != nil {
		g.logger.Error("list children for generation", "error", err)
		return 0
	}

	created := 0
	for i := range children {
		before, _ := g.instances.ListByChildDate(children[i].ID, date)
		instances, _, err := g.GenerateDay(&children[i], date)
		if err != nil {
			g.logger.Error("generate day", "child_id", children[i].ID, "error", err)
			continue
		}
		created += len(instances) - len(before)
	}
	return created
}
