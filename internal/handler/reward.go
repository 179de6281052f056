package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/validate"
	"github.com/mootify/routinestars/internal/websocket"
)

type RewardHandler struct {
	rewards *store.RewardStore
	badges  *store.BadgeStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, bs *store.BadgeStore, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewards: rs, badges: bs, hub: hub, logger: logger}
}

func (h *RewardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type rewardRequest struct {
	Title       string `json:"title" validate:"required,max=128"`
	Description string `json:"description" validate:"max=512"`
	PointCost   int    `json:"point_cost" validate:"required,min=1"`
	Active      *bool  `json:"active"`
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.List(DefaultGroupID)
	if err != nil {
		h.logger.Error("list rewards", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	reward, err := h.rewards.Create(DefaultGroupID, req.Title, req.Description, req.PointCost, active)
	if err != nil {
		h.logger.Error("create reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}
	h.broadcast(websocket.NewMessage("reward", "created", reward.ID, nil))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.rewards.GetByID(id)
	if err != nil {
		h.logger.Error("get reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}
	reward, err := h.rewards.Update(id, req.Title, req.Description, req.PointCost, active)
	if err != nil {
		h.logger.Error("update reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}
	h.broadcast(websocket.NewMessage("reward", "updated", reward.ID, nil))
	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.rewards.Delete(id); err != nil {
		h.logger.Error("delete reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete reward")
		return
	}
	h.broadcast(websocket.NewMessage("reward", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Redeem spends a child's points on a reward. An unaffordable redemption
// is a 409, not a server error.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		ChildID int64 `json:"child_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	redemption, err := h.rewards.Redeem(id, req.ChildID)
	if errors.Is(err, store.ErrInsufficientPoints) {
		writeError(w, http.StatusConflict, "insufficient points")
		return
	}
	if err != nil {
		h.logger.Error("redeem reward", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to redeem reward")
		return
	}

	h.broadcast(websocket.RewardRedeemed(id, req.ChildID, redemption.PointsSpent))
	writeJSON(w, http.StatusCreated, redemption)
}

func (h *RewardHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	redemptions, err := h.rewards.ListRedemptions(childID, 50)
	if err != nil {
		h.logger.Error("list redemptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list redemptions")
		return
	}
	if redemptions == nil {
		redemptions = []model.RewardRedemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

func (h *RewardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	balance, err := h.rewards.Balance(childID)
	if err != nil {
		h.logger.Error("get balance", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get balance")
		return
	}
	if balance == nil {
		writeError(w, http.StatusNotFound, "child not found")
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// Leaderboard returns every child's balance, highest first.
func (h *RewardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	balances, err := h.rewards.Balances(DefaultGroupID)
	if err != nil {
		h.logger.Error("list balances", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list balances")
		return
	}
	if balances == nil {
		balances = []model.PointBalance{}
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *RewardHandler) ListBadges(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	badges, err := h.badges.ListByChild(childID)
	if err != nil {
		h.logger.Error("list badges", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list badges")
		return
	}
	if badges == nil {
		badges = []model.Badge{}
	}
	writeJSON(w, http.StatusOK, badges)
}
