package ws

import "github.com/go-event-bus/internal/domain"

// Client→server message types.
const (
	msgHeartbeat           = "heartbeat"
	msgMarkRead            = "mark_read"
	msgUpdateSubscriptions = "update_subscriptions"
)

// Server→client message types.
const (
	msgConnected    = "connected"
	msgNotification = "notification"
	msgHeartbeatAck = "heartbeat_ack"
	msgError        = "error"
)

// ClientFrame is an inbound WebSocket message.
type ClientFrame struct {
	Type           string   `json:"type"`
	NotificationID string   `json:"notificationId,omitempty"`
	AppIDs         []string `json:"appIds,omitempty"`
}

// ServerFrame is an outbound WebSocket message.
type ServerFrame struct {
	Type         string               `json:"type"`
	ConnectionID string               `json:"connectionId,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
	Message      string               `json:"message,omitempty"`
	Timestamp    int64                `json:"timestamp"`
}
