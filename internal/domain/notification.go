package domain

import "time"

// NotificationStatus is the overall delivery state of a notification.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationRead      NotificationStatus = "read"
	NotificationFailed    NotificationStatus = "failed"
)

// ValidNotificationStatus reports whether s names a known status.
func ValidNotificationStatus(s NotificationStatus) bool {
	switch s {
	case NotificationPending, NotificationSent, NotificationDelivered, NotificationRead, NotificationFailed:
		return true
	}
	return false
}

// CanTransition reports whether a notification may move from one status to
// another. The machine is forward-only: pending → sent → delivered → read,
// with failed reachable from pending/sent once every channel is exhausted.
// read requires the notification to have been sent or delivered first.
func CanTransition(from, to NotificationStatus) bool {
	switch from {
	case NotificationPending:
		return to == NotificationSent || to == NotificationFailed
	case NotificationSent:
		return to == NotificationDelivered || to == NotificationRead || to == NotificationFailed
	case NotificationDelivered:
		return to == NotificationRead
	}
	return false
}

// Notification is one logical message addressed to one user, derived from
// exactly one event.
type Notification struct {
	NotificationID string             `json:"id" dynamodbav:"notification_id"`
	UserID         string             `json:"user_id" dynamodbav:"user_id"`
	EventID        string             `json:"event_id" dynamodbav:"event_id"`
	AppID          string             `json:"app_id" dynamodbav:"app_id"` // originating app, scopes in-app push
	Type           string             `json:"type" dynamodbav:"notification_type"`
	Title          string             `json:"title" dynamodbav:"title"`
	Body           string             `json:"body" dynamodbav:"body"`
	Channels       []Channel          `json:"channels" dynamodbav:"channels"`
	Priority       Priority           `json:"priority" dynamodbav:"priority"`
	Status         NotificationStatus `json:"status" dynamodbav:"notification_status"`
	CorrelationID  string             `json:"correlation_id" dynamodbav:"correlation_id"`
	CreatedAt      time.Time          `json:"created_at" dynamodbav:"created_at"`
	ReadAt         *time.Time         `json:"read_at,omitempty" dynamodbav:"read_at,omitempty"`
}
