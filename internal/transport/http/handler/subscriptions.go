package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-event-bus/internal/application/subscription"
	"github.com/go-event-bus/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// SubscriptionHandler handles subscription endpoints.
type SubscriptionHandler struct {
	svc subscription.Service
}

func NewSubscriptionHandler(svc subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Create registers a subscription for the caller. Re-submitting an identical
// subscription returns the existing one.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var in subscription.SubscribeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	// Subscriptions always belong to the authenticated user.
	in.UserID = claims.UserID
	if in.AppID == "" {
		in.AppID = claims.AppID
	}

	sub, err := h.svc.Subscribe(r.Context(), in)
	if err != nil {
		httpError(w, err, "SUBSCRIPTION_FAILED")
		return
	}
	writeData(w, http.StatusCreated, sub)
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	subs, err := h.svc.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err, "SUBSCRIPTION_FAILED")
		return
	}
	writeData(w, http.StatusOK, subs)
}

func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if err := h.svc.Unsubscribe(r.Context(), chi.URLParam(r, "id"), claims.UserID); err != nil {
		httpError(w, err, "SUBSCRIPTION_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
