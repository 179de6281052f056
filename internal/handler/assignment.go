package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/taskday"
	"github.com/mootify/routinestars/internal/validate"
	"github.com/mootify/routinestars/internal/websocket"
)

type AssignmentHandler struct {
	assignments *store.AssignmentStore
	children    *store.ChildStore
	tasks       *store.TaskStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewAssignmentHandler(
	as *store.AssignmentStore,
	cs *store.ChildStore,
	ts *store.TaskStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) *AssignmentHandler {
	return &AssignmentHandler{assignments: as, children: cs, tasks: ts, hub: hub, logger: logger}
}

func (h *AssignmentHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type assignmentRequest struct {
	ChildID        int64  `json:"child_id" validate:"required"`
	TemplateID     int64  `json:"template_id" validate:"required"`
	StartDate      string `json:"start_date" validate:"required"`
	EndDate        string `json:"end_date"`
	Active         *bool  `json:"active"`
	Recurrence     string `json:"recurrence"`
	RecurrenceDays []int  `json:"recurrence_days" validate:"dive,min=0,max=6"`
	IntervalStart  string `json:"interval_start"`
	IntervalDays   int    `json:"interval_days" validate:"min=0"`
}

func (req *assignmentRequest) toModel(id int64) (model.Assignment, error) {
	start, err := time.ParseInLocation(recurrence.DateLayout, req.StartDate, time.UTC)
	if err != nil {
		return model.Assignment{}, err
	}
	a := model.Assignment{
		ID:             id,
		ChildID:        req.ChildID,
		TemplateID:     req.TemplateID,
		StartDate:      start,
		Active:         true,
		Recurrence:     req.Recurrence,
		RecurrenceDays: req.RecurrenceDays,
		IntervalDays:   req.IntervalDays,
	}
	if req.Active != nil {
		a.Active = *req.Active
	}
	if req.EndDate != "" {
		end, err := time.ParseInLocation(recurrence.DateLayout, req.EndDate, time.UTC)
		if err != nil {
			return model.Assignment{}, err
		}
		a.EndDate = &end
	}
	if req.IntervalStart != "" {
		anchor, err := time.ParseInLocation(recurrence.DateLayout, req.IntervalStart, time.UTC)
		if err != nil {
			return model.Assignment{}, err
		}
		a.IntervalStart = &anchor
	}

	// Reject malformed recurrence overrides and inverted date ranges at
	// save time rather than reporting them as generation anomalies every
	// night. Without an override the template's rule applies; only the
	// bounds need checking then.
	spec, ok, err := taskday.SpecForAssignment(a)
	if err != nil {
		return model.Assignment{}, err
	}
	if !ok {
		spec = recurrence.Spec{Kind: recurrence.Daily}
	}
	sched := recurrence.Schedule{Spec: spec, Start: a.StartDate, End: a.EndDate}
	if err := sched.Validate(); err != nil {
		return model.Assignment{}, err
	}
	return a, nil
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		assignments []model.Assignment
		err         error
	)
	if childParam := r.URL.Query().Get("child_id"); childParam != "" {
		childID, perr := parseQueryInt(childParam)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid child_id")
			return
		}
		assignments, err = h.assignments.ListByChild(childID)
	} else {
		assignments, err = h.assignments.ListByGroup(DefaultGroupID)
	}
	if err != nil {
		h.logger.Error("list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	assignment, err := h.assignments.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if assignment == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	a, err := req.toModel(0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	child, err := h.children.GetByID(a.ChildID)
	if err != nil || child == nil {
		writeError(w, http.StatusBadRequest, "unknown child")
		return
	}
	template, err := h.tasks.GetTemplateByID(a.TemplateID)
	if err != nil || template == nil {
		writeError(w, http.StatusBadRequest, "unknown template")
		return
	}

	assignment, err := h.assignments.Create(a)
	if err != nil {
		h.logger.Error("create assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}
	h.broadcast(websocket.NewMessage("assignment", "created", assignment.ID, nil))
	writeJSON(w, http.StatusCreated, assignment)
}

func (h *AssignmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.assignments.GetByID(id)
	if err != nil {
		h.logger.Error("get assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	a, err := req.toModel(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.assignments.Update(a)
	if err != nil {
		h.logger.Error("update assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update assignment")
		return
	}
	h.broadcast(websocket.NewMessage("assignment", "updated", assignment.ID, nil))
	writeJSON(w, http.StatusOK, assignment)
}

func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.assignments.Delete(id); err != nil {
		h.logger.Error("delete assignment", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}
	h.broadcast(websocket.NewMessage("assignment", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
