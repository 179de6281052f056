package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/taskday"
	"github.com/mootify/routinestars/internal/validate"
	"github.com/mootify/routinestars/internal/websocket"
)

type WindowHandler struct {
	windows *store.WindowStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewWindowHandler(ws *store.WindowStore, hub *websocket.Hub, logger *slog.Logger) *WindowHandler {
	return &WindowHandler{windows: ws, hub: hub, logger: logger}
}

func (h *WindowHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type windowRequest struct {
	Timezone  string  `json:"timezone" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	DaysMask  [7]bool `json:"days_mask"`
}

// childIDFromQuery reads an optional ?child_id=N. Nil means the group
// default window.
func childIDFromQuery(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("child_id")
	if raw == "" {
		return nil, nil
	}
	id, err := parseQueryInt(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Get returns the window row for the group default or one child. A 404
// means no row is configured, which the workflow treats as always open.
func (h *WindowHandler) Get(w http.ResponseWriter, r *http.Request) {
	childID, err := childIDFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child_id")
		return
	}

	var window *model.EvaluationWindow
	if childID == nil {
		window, err = h.windows.GetDefault(DefaultGroupID)
	} else {
		window, err = h.windows.GetByChild(DefaultGroupID, *childID)
	}
	if err != nil {
		h.logger.Error("get window", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get window")
		return
	}
	if window == nil {
		writeError(w, http.StatusNotFound, "no window configured")
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// Resolve returns the effective window for a child: the child override when
// present, else the group default, else null.
func (h *WindowHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	window, err := h.windows.Resolve(DefaultGroupID, childID)
	if err != nil {
		h.logger.Error("resolve window", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve window")
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// Upsert creates or replaces a window. Configs that could never permit
// anything, like a start after the end, are rejected at save time.
func (h *WindowHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	childID, err := childIDFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child_id")
		return
	}

	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	policy := taskday.Window{
		Timezone:  req.Timezone,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		DaysMask:  req.DaysMask,
	}
	if err := policy.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window, err := h.windows.Upsert(model.EvaluationWindow{
		GroupID:   DefaultGroupID,
		ChildID:   childID,
		Timezone:  req.Timezone,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		DaysMask:  req.DaysMask,
	})
	if err != nil {
		h.logger.Error("upsert window", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save window")
		return
	}
	h.broadcast(websocket.NewMessage("evaluation_window", "updated", window.ID, nil))
	writeJSON(w, http.StatusOK, window)
}

func (h *WindowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	childID, err := childIDFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child_id")
		return
	}
	if err := h.windows.Delete(DefaultGroupID, childID); err != nil {
		h.logger.Error("delete window", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete window")
		return
	}
	h.broadcast(websocket.NewMessage("evaluation_window", "deleted", 0, nil))
	w.WriteHeader(http.StatusNoContent)
}
