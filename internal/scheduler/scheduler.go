// Package scheduler runs the nightly cron jobs: materializing the new
// day's task instances shortly after midnight in the group's timezone.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mootify/routinestars/internal/generator"
	"github.com/mootify/routinestars/internal/store"
)

// Instances are generated at 00:05 local so the new day is ready before
// anyone picks up the tablet.
const generateSpec = "5 0 * * *"

type Scheduler struct {
	cron    *cron.Cron
	gen     *generator.Generator
	groups  *store.GroupStore
	groupID int64
	logger  *slog.Logger
}

func New(gen *generator.Generator, groups *store.GroupStore, groupID int64, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gen:     gen,
		groups:  groups,
		groupID: groupID,
		logger:  logger,
	}
}

// Start schedules the jobs in the group's timezone and begins the loop.
func (s *Scheduler) Start() error {
	loc := time.UTC
	if group, err := s.groups.GetByID(s.groupID); err == nil && group != nil {
		if l, err := time.LoadLocation(group.Timezone); err == nil {
			loc = l
		} else {
			s.logger.Warn("unknown group timezone, scheduling in UTC", "timezone", group.Timezone)
		}
	}

	s.cron = cron.New(cron.WithLocation(loc))
	_, err := s.cron.AddFunc(generateSpec, func() {
		// The calendar day is the group's local date, not the UTC date.
		y, m, d := time.Now().In(loc).Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		created := s.gen.GenerateGroup(s.groupID, date)
		s.logger.Info("nightly generation", "date", date.Format("2006-01-02"), "created", created)
	})
	if err != nil {
		return fmt.Errorf("schedule generation job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "timezone", loc.String())
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
