package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mootify/routinestars/internal/backup"
	"github.com/mootify/routinestars/internal/generator"
	"github.com/mootify/routinestars/internal/handler"
	"github.com/mootify/routinestars/internal/middleware"
	"github.com/mootify/routinestars/internal/points"
	"github.com/mootify/routinestars/internal/push"
	"github.com/mootify/routinestars/internal/scheduler"
	"github.com/mootify/routinestars/internal/store"
	ws "github.com/mootify/routinestars/internal/websocket"
)

// Config carries the runtime options main resolves from the environment.
type Config struct {
	Port   string
	Backup backup.Config
	Push   push.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	groupH      *handler.GroupHandler
	childH      *handler.ChildHandler
	taskH       *handler.TaskHandler
	assignmentH *handler.AssignmentHandler
	dayH        *handler.DayHandler
	windowH     *handler.WindowHandler
	bookH       *handler.BookHandler
	rewardH     *handler.RewardHandler
	pushH       *handler.PushHandler
	backupH     *handler.BackupHandler

	rateLimiter   *middleware.RateLimiter
	sched         *scheduler.Scheduler
	reminder      *push.Reminder
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	groupStore := store.NewGroupStore(db)
	childStore := store.NewChildStore(db)
	taskStore := store.NewTaskStore(db)
	assignmentStore := store.NewAssignmentStore(db)
	instanceStore := store.NewInstanceStore(db)
	submissionStore := store.NewSubmissionStore(db)
	windowStore := store.NewWindowStore(db)
	bookStore := store.NewBookStore(db)
	rewardStore := store.NewRewardStore(db)
	badgeStore := store.NewBadgeStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	gen := generator.New(childStore, assignmentStore, taskStore, instanceStore, logger.With("component", "generator"))
	awarder := points.NewAwarder(badgeStore, submissionStore, rewardStore, bookStore, logger.With("component", "points"))

	pushLogger := logger.With("component", "push")
	pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)

	var notifier *push.Notifier
	var reminder *push.Reminder
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		notifier = push.NewNotifier(pushSvc, pushStore, childStore, handler.DefaultGroupID, pushLogger)
		reminder = push.NewReminder(pushSvc, pushStore, childStore, windowStore, submissionStore, instanceStore, handler.DefaultGroupID, pushLogger)
	}

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger.With("component", "backup"))
	sched := scheduler.New(gen, groupStore, handler.DefaultGroupID, logger.With("component", "scheduler"))

	return &Server{
		db:  db,
		hub: hub,

		groupH:      handler.NewGroupHandler(groupStore, hub, logger.With("component", "group")),
		childH:      handler.NewChildHandler(childStore, hub, logger.With("component", "child")),
		taskH:       handler.NewTaskHandler(taskStore, hub, logger.With("component", "task")),
		assignmentH: handler.NewAssignmentHandler(assignmentStore, childStore, taskStore, hub, logger.With("component", "assignment")),
		dayH:        handler.NewDayHandler(gen, childStore, instanceStore, submissionStore, windowStore, awarder, notifier, hub, logger.With("component", "day")),
		windowH:     handler.NewWindowHandler(windowStore, hub, logger.With("component", "window")),
		bookH:       handler.NewBookHandler(bookStore, awarder, hub, logger.With("component", "book")),
		rewardH:     handler.NewRewardHandler(rewardStore, badgeStore, hub, logger.With("component", "reward")),
		pushH:       handler.NewPushHandler(pushSvc, pushStore, logger.With("component", "push_handler")),
		backupH:     handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),

		rateLimiter:   middleware.NewRateLimiter(),
		sched:         sched,
		reminder:      reminder,
		backupManager: backupMgr,
		logger:        logger,
	}
}

// Start launches the background loops: the nightly instance generation,
// the window reminder and the backup schedule.
func (s *Server) Start(ctx context.Context) error {
	if err := s.sched.Start(); err != nil {
		return err
	}
	if s.reminder != nil {
		s.reminder.Start(ctx)
	}
	s.backupManager.Start(ctx)
	return nil
}

// Stop shuts the background loops down, waiting for in-flight work.
func (s *Server) Stop() {
	s.sched.Stop()
	if s.reminder != nil {
		s.reminder.Stop()
	}
	s.backupManager.Stop()
}

// RateLimiter returns the limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Group settings
	mux.HandleFunc("GET /api/group", s.groupH.Get)
	mux.HandleFunc("PUT /api/group", s.groupH.Update)

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("PUT /api/children/sort", s.childH.UpdateSortOrder)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("POST /api/children/{id}/pin", s.childH.SetPIN)
	mux.HandleFunc("DELETE /api/children/{id}/pin", s.childH.ClearPIN)
	mux.HandleFunc("POST /api/children/{id}/pin/verify", s.rateLimitedHandler(s.childH.VerifyPIN))

	// Task categories and templates
	mux.HandleFunc("GET /api/categories", s.taskH.ListCategories)
	mux.HandleFunc("POST /api/categories", s.taskH.CreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.taskH.UpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.taskH.DeleteCategory)
	mux.HandleFunc("GET /api/templates", s.taskH.ListTemplates)
	mux.HandleFunc("POST /api/templates", s.taskH.CreateTemplate)
	mux.HandleFunc("GET /api/templates/{id}", s.taskH.GetTemplate)
	mux.HandleFunc("PUT /api/templates/{id}", s.taskH.UpdateTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", s.taskH.DeleteTemplate)

	// Assignments
	mux.HandleFunc("GET /api/assignments", s.assignmentH.List)
	mux.HandleFunc("POST /api/assignments", s.assignmentH.Create)
	mux.HandleFunc("GET /api/assignments/{id}", s.assignmentH.Get)
	mux.HandleFunc("PUT /api/assignments/{id}", s.assignmentH.Update)
	mux.HandleFunc("DELETE /api/assignments/{id}", s.assignmentH.Delete)

	// The daily workflow
	mux.HandleFunc("GET /api/children/{childID}/day/{date}", s.dayH.GetDay)
	mux.HandleFunc("POST /api/children/{childID}/day/{date}/submit", s.dayH.Submit)
	mux.HandleFunc("POST /api/children/{childID}/day/{date}/validate", s.dayH.Validate)
	mux.HandleFunc("POST /api/instances/{id}/evaluate", s.dayH.Evaluate)
	mux.HandleFunc("GET /api/validations/pending", s.dayH.PendingValidation)
	mux.HandleFunc("GET /api/children/{childID}/submissions", s.dayH.History)

	// Evaluation windows
	mux.HandleFunc("GET /api/windows", s.windowH.Get)
	mux.HandleFunc("PUT /api/windows", s.windowH.Upsert)
	mux.HandleFunc("DELETE /api/windows", s.windowH.Delete)
	mux.HandleFunc("GET /api/children/{childID}/window", s.windowH.Resolve)

	// Reading tracker
	mux.HandleFunc("GET /api/children/{childID}/books", s.bookH.ListByChild)
	mux.HandleFunc("POST /api/children/{childID}/books", s.bookH.Create)
	mux.HandleFunc("PUT /api/books/{id}", s.bookH.Update)
	mux.HandleFunc("DELETE /api/books/{id}", s.bookH.Delete)
	mux.HandleFunc("POST /api/books/{id}/log", s.bookH.LogReading)
	mux.HandleFunc("GET /api/books/{id}/logs", s.bookH.ListLogs)
	mux.HandleFunc("POST /api/books/{id}/finish", s.bookH.Finish)

	// Rewards, points, badges
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/children/{childID}/redemptions", s.rewardH.ListRedemptions)
	mux.HandleFunc("GET /api/children/{childID}/points", s.rewardH.Balance)
	mux.HandleFunc("GET /api/children/{childID}/badges", s.rewardH.ListBadges)
	mux.HandleFunc("GET /api/leaderboard", s.rewardH.Leaderboard)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
	mux.HandleFunc("POST /api/push/test", s.pushH.Test)

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups/run", s.backupH.Run)

	h := middleware.RequestID(mux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
