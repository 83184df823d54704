package handler

import (
	"net/http"

	"github.com/go-event-bus/internal/transport/http/middleware"
	"github.com/go-event-bus/internal/transport/ws"
)

// ConnectionSource snapshots a user's live WebSocket connections.
type ConnectionSource interface {
	Status(userID string) []ws.ConnectionInfo
}

// ConnectionStatusHandler reports the caller's live connections.
type ConnectionStatusHandler struct {
	source ConnectionSource
}

func NewConnectionStatusHandler(source ConnectionSource) *ConnectionStatusHandler {
	return &ConnectionStatusHandler{source: source}
}

type connectionStatusResponse struct {
	Connected   bool                `json:"connected"`
	Connections []ws.ConnectionInfo `json:"connections"`
}

func (h *ConnectionStatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	conns := h.source.Status(claims.UserID)
	writeData(w, http.StatusOK, connectionStatusResponse{
		Connected:   len(conns) > 0,
		Connections: conns,
	})
}
