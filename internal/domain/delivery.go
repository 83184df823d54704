package domain

import "time"

// AttemptStatus is the per-channel delivery state.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptSent      AttemptStatus = "sent"
	AttemptFailed    AttemptStatus = "failed"    // retryable
	AttemptExhausted AttemptStatus = "exhausted" // no further attempts scheduled
)

// DeliveryAttempt tracks the retries of one notification over one channel.
// AttemptCount never exceeds the configured max; once exhausted no NextRetryAt
// is ever set again.
type DeliveryAttempt struct {
	NotificationID string        `json:"notification_id" dynamodbav:"notification_id"`
	UserID         string        `json:"user_id" dynamodbav:"user_id"`
	Channel        Channel       `json:"channel" dynamodbav:"channel"`
	AttemptCount   int           `json:"attempt_count" dynamodbav:"attempt_count"`
	LastAttemptAt  time.Time     `json:"last_attempt_at" dynamodbav:"last_attempt_at"`
	NextRetryAt    int64         `json:"next_retry_at,omitempty" dynamodbav:"next_retry_at,omitempty"` // ms epoch, zero when none scheduled
	Status         AttemptStatus `json:"status" dynamodbav:"attempt_status"`
	LastError      string        `json:"last_error,omitempty" dynamodbav:"last_error,omitempty"`
}
