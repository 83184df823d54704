package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-event-bus/internal/application/event"
	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/transport/http/middleware"
)

// EventHandler handles event publish and history endpoints.
type EventHandler struct {
	svc event.Service
}

func NewEventHandler(svc event.Service) *EventHandler {
	return &EventHandler{svc: svc}
}

type publishResponse struct {
	Event         *domain.Event         `json:"event"`
	Notifications []domain.Notification `json:"notifications"`
}

// Publish accepts an event, persists it, and returns it together with the
// notifications generated for it so far. 201 means the event is durable even
// when notification creation is still in flight.
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var in event.PublishInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	e, notifications, err := h.svc.Publish(r.Context(), in)
	if err != nil {
		httpError(w, err, "EVENT_PUBLISH_FAILED")
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeData(w, http.StatusCreated, publishResponse{Event: e, Notifications: notifications})
}

// History returns the caller's event history, newest first.
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.svc.ListForUser(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		httpError(w, err, "EVENT_HISTORY_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
