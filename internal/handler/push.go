package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/push"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/validate"
)

type PushHandler struct {
	service *push.Service
	push    *store.PushStore
	logger  *slog.Logger
}

func NewPushHandler(svc *push.Service, ps *store.PushStore, logger *slog.Logger) *PushHandler {
	return &PushHandler{service: svc, push: ps, logger: logger}
}

// VAPIDKey returns the public key the browser needs to subscribe.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := h.service.VAPIDPublicKey()
	if key == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": key})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
	Label string `json:"label" validate:"max=64"`
}

// Subscribe registers a browser for notifications. Re-subscribing the same
// endpoint updates its keys in place.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	sub, err := h.push.CreateSubscription(DefaultGroupID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.Label)
	if err != nil {
		h.logger.Error("create subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	if err := h.push.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.push.ListByGroup(DefaultGroupID)
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Test sends a notification to every subscribed browser so the parent can
// confirm the pipeline works.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	subs, err := h.push.ListByGroup(DefaultGroupID)
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if len(subs) == 0 {
		writeError(w, http.StatusNotFound, "no subscriptions")
		return
	}

	sent := 0
	for i := range subs {
		err := h.service.Send(&subs[i], push.Payload{
			Title: "RoutineStars",
			Body:  "Notifications are working.",
			Tag:   "test",
		})
		if errors.Is(err, push.ErrExpired) {
			if err := h.push.DeleteByEndpoint(subs[i].Endpoint); err != nil {
				h.logger.Error("delete expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			h.logger.Error("send test push", "error", err)
			continue
		}
		sent++
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
