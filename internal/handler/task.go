package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/validate"
	"github.com/mootify/routinestars/internal/websocket"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// --- categories ---

type categoryRequest struct {
	Name      string `json:"name" validate:"required,max=64"`
	Icon      string `json:"icon" validate:"max=16"`
	SortOrder int    `json:"sort_order" validate:"min=0"`
}

func (h *TaskHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tasks.ListCategories(DefaultGroupID)
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.TaskCategory{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *TaskHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	category, err := h.tasks.CreateCategory(DefaultGroupID, req.Name, req.Icon, req.SortOrder)
	if err != nil {
		h.logger.Error("create category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	h.broadcast(websocket.NewMessage("task_category", "created", category.ID, nil))
	writeJSON(w, http.StatusCreated, category)
}

func (h *TaskHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	category, err := h.tasks.UpdateCategory(id, req.Name, req.Icon, req.SortOrder)
	if err != nil {
		h.logger.Error("update category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}
	if category == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	h.broadcast(websocket.NewMessage("task_category", "updated", category.ID, nil))
	writeJSON(w, http.StatusOK, category)
}

func (h *TaskHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.tasks.DeleteCategory(id); err != nil {
		h.logger.Error("delete category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	h.broadcast(websocket.NewMessage("task_category", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// --- templates ---

type templateRequest struct {
	CategoryID  *int64 `json:"category_id"`
	Title       string `json:"title" validate:"required,max=128"`
	Icon        string `json:"icon" validate:"max=16"`
	Points      int    `json:"points" validate:"required,min=1,max=100"`
	Recurrence  string `json:"recurrence" validate:"required"`
	Description string `json:"description" validate:"max=512"`
	Active      *bool  `json:"active"`
}

func (req *templateRequest) toModel(id int64) (model.TaskTemplate, error) {
	if _, err := recurrence.ParseSpec(req.Recurrence); err != nil {
		return model.TaskTemplate{}, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return model.TaskTemplate{
		ID:          id,
		GroupID:     DefaultGroupID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Icon:        req.Icon,
		Points:      req.Points,
		Recurrence:  req.Recurrence,
		Description: req.Description,
		Active:      active,
	}, nil
}

func (h *TaskHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.tasks.ListTemplates(DefaultGroupID)
	if err != nil {
		h.logger.Error("list templates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.TaskTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TaskHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	template, err := h.tasks.GetTemplateByID(id)
	if err != nil {
		h.logger.Error("get template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if template == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (h *TaskHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	t, err := req.toModel(0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	template, err := h.tasks.CreateTemplate(t)
	if err != nil {
		h.logger.Error("create template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	h.broadcast(websocket.NewMessage("task_template", "created", template.ID, nil))
	writeJSON(w, http.StatusCreated, template)
}

func (h *TaskHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.tasks.GetTemplateByID(id)
	if err != nil {
		h.logger.Error("get template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	t, err := req.toModel(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	template, err := h.tasks.UpdateTemplate(t)
	if err != nil {
		h.logger.Error("update template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update template")
		return
	}
	h.broadcast(websocket.NewMessage("task_template", "updated", template.ID, nil))
	writeJSON(w, http.StatusOK, template)
}

// DeleteTemplate deactivates rather than deletes: instances already created
// keep their snapshot, and the day builder flags orphaned assignments.
func (h *TaskHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.tasks.DeactivateTemplate(id); err != nil {
		h.logger.Error("deactivate template", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	h.broadcast(websocket.NewMessage("task_template", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
