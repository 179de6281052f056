package push

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
)

// Notifier fans workflow events out to the group's push subscriptions.
// Sends run on the caller's goroutine and never fail the request; errors
// are logged and expired subscriptions are pruned.
type Notifier struct {
	service  *Service
	push     *store.PushStore
	children *store.ChildStore
	groupID  int64
	logger   *slog.Logger
}

func NewNotifier(svc *Service, pushStore *store.PushStore, childStore *store.ChildStore, groupID int64, logger *slog.Logger) *Notifier {
	return &Notifier{
		service:  svc,
		push:     pushStore,
		children: childStore,
		groupID:  groupID,
		logger:   logger,
	}
}

// DaySubmitted tells parents a child locked in their day.
func (n *Notifier) DaySubmitted(childID int64, date time.Time) {
	name := n.childName(childID)
	day := recurrence.DayOf(date).Format(recurrence.DateLayout)
	n.send(Payload{
		Title: "Day submitted",
		Body:  fmt.Sprintf("%s submitted their tasks for %s.", name, day),
		URL:   fmt.Sprintf("/children/%d/day/%s", childID, day),
		Tag:   "day-submitted",
	})
}

// DayValidated tells the kiosk a parent validated a day.
func (n *Notifier) DayValidated(childID int64, date time.Time, pointsAwarded int) {
	name := n.childName(childID)
	day := recurrence.DayOf(date).Format(recurrence.DateLayout)
	n.send(Payload{
		Title: "Day validated",
		Body:  fmt.Sprintf("%s earned %d points for %s.", name, pointsAwarded, day),
		URL:   fmt.Sprintf("/children/%d/day/%s", childID, day),
		Tag:   "day-validated",
	})
}

func (n *Notifier) childName(childID int64) string {
	child, err := n.children.GetByID(childID)
	if err != nil || child == nil {
		return "A child"
	}
	return child.Name
}

func (n *Notifier) send(payload Payload) {
	subs, err := n.push.ListByGroup(n.groupID)
	if err != nil {
		n.logger.Error("list push subscriptions", "error", err)
		return
	}
	for i := range subs {
		err := n.service.Send(&subs[i], payload)
		if errors.Is(err, ErrExpired) {
			if err := n.push.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				n.logger.Error("delete expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			n.logger.Error("send push", "error", err)
		}
	}
}
