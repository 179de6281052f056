package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/taskday"
)

const (
	tickInterval = time.Minute
	reminderLead = 30 * time.Minute
)

// Reminder watches evaluation windows and pushes a nudge when a child's
// window is about to close with the day still unsubmitted. Each (child,
// date) is nudged at most once.
type Reminder struct {
	service     *Service
	push        *store.PushStore
	children    *store.ChildStore
	windows     *store.WindowStore
	submissions *store.SubmissionStore
	instances   *store.InstanceStore
	groupID     int64
	logger      *slog.Logger

	mu     sync.Mutex
	sent   map[string]bool
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReminder(
	svc *Service,
	pushStore *store.PushStore,
	childStore *store.ChildStore,
	windowStore *store.WindowStore,
	submissionStore *store.SubmissionStore,
	instanceStore *store.InstanceStore,
	groupID int64,
	logger *slog.Logger,
) *Reminder {
	return &Reminder{
		service:     svc,
		push:        pushStore,
		children:    childStore,
		windows:     windowStore,
		submissions: submissionStore,
		instances:   instanceStore,
		groupID:     groupID,
		logger:      logger,
		sent:        make(map[string]bool),
	}
}

// Start begins the reminder loop.
func (r *Reminder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the loop.
func (r *Reminder) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
}

func (r *Reminder) tick(now time.Time) {
	subs, err := r.push.ListByGroup(r.groupID)
	if err != nil {
		r.logger.Error("list push subscriptions", "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	children, err := r.children.List(r.groupID)
	if err != nil {
		r.logger.Error("list children", "error", err)
		return
	}

	for _, child := range children {
		r.checkChild(child.ID, child.Name, now)
	}
}

func (r *Reminder) checkChild(childID int64, name string, now time.Time) {
	windowCfg, err := r.windows.Resolve(r.groupID, childID)
	if err != nil {
		r.logger.Error("resolve window", "child_id", childID, "error", err)
		return
	}
	window := taskday.WindowFromModel(windowCfg)
	if !window.ClosesWithin(now, reminderLead) {
		return
	}

	// The window's timezone decides which calendar day "today" is.
	loc := time.UTC
	if l, err := time.LoadLocation(windowCfg.Timezone); err == nil {
		loc = l
	}
	y, m, d := now.In(loc).Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	key := fmt.Sprintf("%d:%s", childID, date.Format(recurrence.DateLayout))
	r.mu.Lock()
	already := r.sent[key]
	r.mu.Unlock()
	if already {
		return
	}

	sub, err := r.submissions.GetByChildDate(childID, date)
	if err != nil {
		r.logger.Error("check submission", "child_id", childID, "error", err)
		return
	}
	if sub != nil {
		return
	}
	instances, err := r.instances.ListByChildDate(childID, date)
	if err != nil {
		r.logger.Error("list instances", "child_id", childID, "error", err)
		return
	}
	if len(instances) == 0 {
		return
	}

	r.send(Payload{
		Title: "Window closing soon",
		Body:  fmt.Sprintf("%s has not submitted today's tasks yet.", name),
		URL:   fmt.Sprintf("/children/%d/day/%s", childID, date.Format(recurrence.DateLayout)),
		Tag:   "window-reminder",
	})

	r.mu.Lock()
	r.sent[key] = true
	// Keys for past days never fire again; drop them.
	for k := range r.sent {
		if len(k) > 10 && k[len(k)-10:] < date.Format(recurrence.DateLayout) {
			delete(r.sent, k)
		}
	}
	r.mu.Unlock()
}

func (r *Reminder) send(payload Payload) {
	subs, err := r.push.ListByGroup(r.groupID)
	if err != nil {
		r.logger.Error("list push subscriptions", "error", err)
		return
	}
	for i := range subs {
		err := r.service.Send(&subs[i], payload)
		if errors.Is(err, ErrExpired) {
			if err := r.push.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				r.logger.Error("delete expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			r.logger.Error("send push", "error", err)
		}
	}
}
