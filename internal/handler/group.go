package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/validate"
	"github.com/mootify/routinestars/internal/websocket"
)

type GroupHandler struct {
	groups *store.GroupStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGroupHandler(gs *store.GroupStore, hub *websocket.Hub, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: gs, hub: hub, logger: logger}
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetByID(DefaultGroupID)
	if err != nil {
		h.logger.Error("get group", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get group")
		return
	}
	if group == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required,max=64"`
		Timezone string `json:"timezone" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		writeError(w, http.StatusBadRequest, "unknown timezone")
		return
	}

	group, err := h.groups.Update(DefaultGroupID, req.Name, req.Timezone)
	if err != nil {
		h.logger.Error("update group", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update group")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("group", "updated", group.ID, nil))
	}
	writeJSON(w, http.StatusOK, group)
}
