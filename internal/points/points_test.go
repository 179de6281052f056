package points

import (
	"log/slog"
	"testing"
	"time"

	"github.com/mootify/routinestars/internal/database"
	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/taskday"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHasStreak(t *testing.T) {
	end := date(2026, 2, 7)
	var full []time.Time
	for i := 0; i < 7; i++ {
		full = append(full, end.AddDate(0, 0, -i))
	}

	if !HasStreak(full, end, 7) {
		t.Error("seven consecutive days should be a streak")
	}

	gappy := append([]time.Time{}, full...)
	gappy[3] = gappy[3].AddDate(0, 0, -30) // punch a hole mid-run
	if HasStreak(gappy, end, 7) {
		t.Error("a gap must break the streak")
	}

	if HasStreak(full[:6], end, 7) {
		t.Error("six days is not a week streak")
	}
}

func setupAwarder(t *testing.T) (*Awarder, *store.SubmissionStore, *store.BookStore, *store.BadgeStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	child, err := store.NewChildStore(db).Create(1, "Milo", "#fa0", "🦊")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	badges := store.NewBadgeStore(db)
	subs := store.NewSubmissionStore(db)
	rewards := store.NewRewardStore(db)
	books := store.NewBookStore(db)
	return NewAwarder(badges, subs, rewards, books, slog.Default()), subs, books, badges, child.ID
}

func submitDay(t *testing.T, subs *store.SubmissionStore, childID int64, day time.Time, points int) {
	t.Helper()
	sub, err := subs.Apply(&taskday.SubmitResult{Submission: model.DailySubmission{
		ChildID: childID, Date: day, SubmittedAt: time.Now(),
	}})
	if err != nil {
		t.Fatalf("apply submission: %v", err)
	}
	if points > 0 {
		if err := subs.ApplyValidation(sub.ID, &taskday.ValidateResult{TotalPoints: points}, "", time.Now()); err != nil {
			t.Fatalf("apply validation: %v", err)
		}
	}
}

func TestFirstSubmissionBadge(t *testing.T) {
	a, subs, _, _, childID := setupAwarder(t)

	submitDay(t, subs, childID, date(2026, 2, 1), 0)
	earned := a.AfterSubmission(childID, date(2026, 2, 1))
	if len(earned) != 1 || earned[0] != model.BadgeFirstSubmission {
		t.Fatalf("earned = %v, want [first_submission]", earned)
	}

	// Second submission does not re-award.
	submitDay(t, subs, childID, date(2026, 2, 2), 0)
	if earned := a.AfterSubmission(childID, date(2026, 2, 2)); len(earned) != 0 {
		t.Errorf("earned = %v, want none", earned)
	}
}

func TestWeekStreakBadge(t *testing.T) {
	a, subs, _, _, childID := setupAwarder(t)

	for i := 0; i < 7; i++ {
		day := date(2026, 2, 1).AddDate(0, 0, i)
		submitDay(t, subs, childID, day, 0)
	}
	earned := a.AfterSubmission(childID, date(2026, 2, 7))

	found := false
	for _, k := range earned {
		if k == model.BadgeWeekStreak {
			found = true
		}
	}
	if !found {
		t.Errorf("earned = %v, want week_streak", earned)
	}
}

func TestPointsBadges(t *testing.T) {
	a, subs, _, badges, childID := setupAwarder(t)

	submitDay(t, subs, childID, date(2026, 2, 1), 120)
	earned := a.AfterValidation(childID)
	if len(earned) != 1 || earned[0] != model.BadgePoints100 {
		t.Fatalf("earned = %v, want [points_100]", earned)
	}

	submitDay(t, subs, childID, date(2026, 2, 2), 400)
	earned = a.AfterValidation(childID)
	if len(earned) != 1 || earned[0] != model.BadgePoints500 {
		t.Fatalf("earned = %v, want [points_500]", earned)
	}

	has, _ := badges.Has(childID, model.BadgePoints100)
	if !has {
		t.Error("points_100 should still be held")
	}
}

func TestFirstBookBadge(t *testing.T) {
	a, _, books, _, childID := setupAwarder(t)

	book, err := books.Create(childID, "Matilda", "Dahl", 240, 30)
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if _, err := books.Finish(book.ID, time.Now()); err != nil {
		t.Fatalf("finish: %v", err)
	}

	earned := a.AfterBookFinished(childID)
	if len(earned) != 1 || earned[0] != model.BadgeFirstBook {
		t.Fatalf("earned = %v, want [first_book]", earned)
	}
}
