package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mootify/routinestars/internal/generator"
	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/points"
	"github.com/mootify/routinestars/internal/push"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/taskday"
	"github.com/mootify/routinestars/internal/websocket"
)

// DayHandler drives the daily workflow: the day view (generate-if-missing),
// self-evaluation, the submission gate and parent validation.
type DayHandler struct {
	gen         *generator.Generator
	children    *store.ChildStore
	instances   *store.InstanceStore
	submissions *store.SubmissionStore
	windows     *store.WindowStore
	awarder     *points.Awarder
	notifier    *push.Notifier
	hub         *websocket.Hub
	logger      *slog.Logger

	now func() time.Time
}

func NewDayHandler(
	gen *generator.Generator,
	children *store.ChildStore,
	instances *store.InstanceStore,
	submissions *store.SubmissionStore,
	windows *store.WindowStore,
	awarder *points.Awarder,
	notifier *push.Notifier,
	hub *websocket.Hub,
	logger *slog.Logger,
) *DayHandler {
	return &DayHandler{
		gen:         gen,
		children:    children,
		instances:   instances,
		submissions: submissions,
		windows:     windows,
		awarder:     awarder,
		notifier:    notifier,
		hub:         hub,
		logger:      logger,
		now:         time.Now,
	}
}

func (h *DayHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *DayHandler) resolveWindow(childID int64) *taskday.Window {
	row, err := h.windows.Resolve(DefaultGroupID, childID)
	if err != nil {
		h.logger.Error("resolve window", "child_id", childID, "error", err)
		return nil
	}
	return taskday.WindowFromModel(row)
}

type anomalyView struct {
	AssignmentID int64  `json:"assignment_id"`
	Message      string `json:"message"`
}

type dayView struct {
	ChildID    int64                  `json:"child_id"`
	Date       string                 `json:"date"`
	Instances  []model.TaskInstance   `json:"instances"`
	Submission *model.DailySubmission `json:"submission"`
	WindowOpen bool                   `json:"window_open"`
	Anomalies  []anomalyView          `json:"anomalies,omitempty"`
}

// GetDay returns the child's day view, materializing instances on first
// access. Repeated calls for the same date create nothing new.
func (h *DayHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	child, err := h.children.GetByID(childID)
	if err != nil {
		h.logger.Error("get child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get child")
		return
	}
	if child == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}

	instances, anomalies, err := h.gen.GenerateDay(child, date)
	if err != nil {
		h.logger.Error("generate day", "child_id", childID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build day")
		return
	}
	submission, err := h.submissions.GetByChildDate(childID, date)
	if err != nil {
		h.logger.Error("get submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}

	view := dayView{
		ChildID:    childID,
		Date:       r.PathValue("date"),
		Instances:  instances,
		Submission: submission,
		WindowOpen: h.resolveWindow(childID).IsWithin(h.now()),
	}
	if view.Instances == nil {
		view.Instances = []model.TaskInstance{}
	}
	for _, a := range anomalies {
		view.Anomalies = append(view.Anomalies, anomalyView{AssignmentID: a.AssignmentID, Message: a.Message})
	}
	writeJSON(w, http.StatusOK, view)
}

// Evaluate records a child's self-score on one instance. Re-evaluating
// before submission overwrites; locked instances are rejected with a
// decision, not an error.
func (h *DayHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inst, err := h.instances.GetByID(id)
	if err != nil {
		h.logger.Error("get instance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get instance")
		return
	}
	if inst == nil {
		writeError(w, http.StatusNotFound, "instance not found")
		return
	}

	updated, decision := taskday.SelfEvaluate(*inst, req.Score, h.now())
	if !decision.Allowed {
		writeJSON(w, http.StatusConflict, decision)
		return
	}
	if err := h.instances.SaveEvaluation(updated); err != nil {
		h.logger.Error("save evaluation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save evaluation")
		return
	}

	h.broadcast(websocket.InstanceEvaluated(updated.ID, updated.ChildID, req.Score))
	writeJSON(w, http.StatusOK, updated)
}

// Submit locks in a child's day. The gate rules run in order; the first
// failure comes back as a 409 with the decision body.
func (h *DayHandler) Submit(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	instances, err := h.instances.ListByChildDate(childID, date)
	if err != nil {
		h.logger.Error("list instances", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	existing, err := h.submissions.GetByChildDate(childID, date)
	if err != nil {
		h.logger.Error("get submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}

	now := h.now()
	windowOpen := h.resolveWindow(childID).IsWithin(now)

	result, decision := taskday.Submit(childID, date, instances, existing, windowOpen, now)
	if !decision.Allowed {
		writeJSON(w, http.StatusConflict, decision)
		return
	}

	submission, err := h.submissions.Apply(result)
	if err != nil {
		h.logger.Error("apply submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to submit day")
		return
	}

	h.broadcast(websocket.DaySubmitted(childID, date))
	for _, kind := range h.awarder.AfterSubmission(childID, date) {
		h.broadcast(websocket.BadgeEarned(childID, string(kind)))
	}
	if h.notifier != nil {
		h.notifier.DaySubmitted(childID, date)
	}
	writeJSON(w, http.StatusCreated, submission)
}

// Validate applies parent validation to a submitted day: per-instance score
// overrides, the awarded points total, and an optional comment.
func (h *DayHandler) Validate(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	var req struct {
		Overrides map[int64]int `json:"overrides"`
		Comment   string        `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	instances, err := h.instances.ListByChildDate(childID, date)
	if err != nil {
		h.logger.Error("list instances", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	submission, err := h.submissions.GetByChildDate(childID, date)
	if err != nil {
		h.logger.Error("get submission", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return
	}

	result, decision := taskday.ValidateDay(instances, submission, req.Overrides, h.now())
	if !decision.Allowed {
		writeJSON(w, http.StatusConflict, decision)
		return
	}

	if err := h.submissions.ApplyValidation(submission.ID, result, req.Comment, h.now()); err != nil {
		h.logger.Error("apply validation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to validate day")
		return
	}

	h.broadcast(websocket.DayValidated(childID, date, result.TotalPoints))
	for _, kind := range h.awarder.AfterValidation(childID) {
		h.broadcast(websocket.BadgeEarned(childID, string(kind)))
	}
	if h.notifier != nil {
		h.notifier.DayValidated(childID, date, result.TotalPoints)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"points_awarded": result.TotalPoints,
		"instances":      result.Instances,
	})
}

// PendingValidation lists submitted-but-unvalidated days for the parent
// dashboard.
func (h *DayHandler) PendingValidation(w http.ResponseWriter, r *http.Request) {
	pending, err := h.submissions.ListPendingValidation(DefaultGroupID)
	if err != nil {
		h.logger.Error("list pending validation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list pending days")
		return
	}
	if pending == nil {
		pending = []model.DailySubmission{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// History lists a child's recent submissions.
func (h *DayHandler) History(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	submissions, err := h.submissions.ListByChild(childID, 60)
	if err != nil {
		h.logger.Error("list submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	if submissions == nil {
		submissions = []model.DailySubmission{}
	}
	writeJSON(w, http.StatusOK, submissions)
}
