package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-event-bus/internal/application/notification"
	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles the polling and status-update endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List is the polling fallback for clients without a live WebSocket. With
// since (unix ms) it returns notifications created after that point, oldest
// first, so a client can catch up incrementally.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "since must be a unix millisecond timestamp")
			return
		}
		since = time.UnixMilli(ms).UTC()
	}

	notifications, err := h.svc.List(r.Context(), claims.UserID, limit, since)
	if err != nil {
		httpError(w, err, "NOTIFICATION_LIST_FAILED")
		return
	}
	writeData(w, http.StatusOK, notifications)
}

type updateStatusRequest struct {
	Status domain.NotificationStatus `json:"status"`
}

// UpdateStatus applies a forward-only status transition on behalf of the caller.
func (h *NotificationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	n, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), claims.UserID, req.Status)
	if err != nil {
		httpError(w, err, "NOTIFICATION_UPDATE_FAILED")
		return
	}
	writeData(w, http.StatusOK, n)
}
