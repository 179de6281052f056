// Package points turns workflow milestones into badges. Awarding is
// idempotent per (child, badge); callers broadcast whatever comes back new.
package points

import (
	"log/slog"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
)

const streakLength = 7

type Awarder struct {
	badges      *store.BadgeStore
	submissions *store.SubmissionStore
	rewards     *store.RewardStore
	books       *store.BookStore
	logger      *slog.Logger
}

func NewAwarder(
	badges *store.BadgeStore,
	submissions *store.SubmissionStore,
	rewards *store.RewardStore,
	books *store.BookStore,
	logger *slog.Logger,
) *Awarder {
	return &Awarder{
		badges:      badges,
		submissions: submissions,
		rewards:     rewards,
		books:       books,
		logger:      logger,
	}
}

// AfterSubmission checks submission-count badges after a day is locked in.
func (a *Awarder) AfterSubmission(childID int64, date time.Time) []model.BadgeKind {
	var earned []model.BadgeKind

	n, err := a.submissions.CountByChild(childID)
	if err != nil {
		a.logger.Error("count submissions", "child_id", childID, "error", err)
		return nil
	}
	if n >= 1 {
		earned = a.tryAward(earned, childID, model.BadgeFirstSubmission)
	}

	dates, err := a.submissions.RecentDates(childID, streakLength)
	if err != nil {
		a.logger.Error("recent submission dates", "child_id", childID, "error", err)
		return earned
	}
	if HasStreak(dates, recurrence.DayOf(date), streakLength) {
		earned = a.tryAward(earned, childID, model.BadgeWeekStreak)
	}
	return earned
}

// AfterValidation checks points-total badges once a parent has awarded
// points for a day.
func (a *Awarder) AfterValidation(childID int64) []model.BadgeKind {
	balance, err := a.rewards.Balance(childID)
	if err != nil || balance == nil {
		a.logger.Error("balance for badges", "child_id", childID, "error", err)
		return nil
	}

	var earned []model.BadgeKind
	if balance.TotalEarned >= 100 {
		earned = a.tryAward(earned, childID, model.BadgePoints100)
	}
	if balance.TotalEarned >= 500 {
		earned = a.tryAward(earned, childID, model.BadgePoints500)
	}
	return earned
}

// AfterBookFinished checks reading badges when a book is marked finished.
func (a *Awarder) AfterBookFinished(childID int64) []model.BadgeKind {
	n, err := a.books.CountFinished(childID)
	if err != nil {
		a.logger.Error("count finished books", "child_id", childID, "error", err)
		return nil
	}

	var earned []model.BadgeKind
	if n >= 1 {
		earned = a.tryAward(earned, childID, model.BadgeFirstBook)
	}
	return earned
}

func (a *Awarder) tryAward(earned []model.BadgeKind, childID int64, kind model.BadgeKind) []model.BadgeKind {
	created, err := a.badges.Award(childID, kind)
	if err != nil {
		a.logger.Error("award badge", "child_id", childID, "kind", kind, "error", err)
		return earned
	}
	if created {
		a.logger.Info("badge earned", "child_id", childID, "kind", kind)
		earned = append(earned, kind)
	}
	return earned
}

// HasStreak reports whether dates (newest first) contain every day of the
// run ending at end: end, end-1, ... end-(length-1).
func HasStreak(dates []time.Time, end time.Time, length int) bool {
	have := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		have[recurrence.DayOf(d)] = true
	}
	for i := 0; i < length; i++ {
		if !have[end.AddDate(0, 0, -i)] {
			return false
		}
	}
	return true
}
