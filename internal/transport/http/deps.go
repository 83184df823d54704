package http

import (
	"context"
	"time"

	"github.com/go-event-bus/internal/domain"
)

// EventRepository is the minimal interface the router requires from the event store.
type EventRepository interface {
	Put(ctx context.Context, e *domain.Event) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Event, int, bool, error)
}

// SubscriptionRepository is the minimal interface the router requires from the subscription store.
type SubscriptionRepository interface {
	Put(ctx context.Context, s *domain.Subscription) error
	Get(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	ListActiveByType(ctx context.Context, eventType string) ([]domain.Subscription, error)
	Deactivate(ctx context.Context, subscriptionID string) error
}

// PreferenceRepository is the minimal interface the router requires from the preference store.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*domain.Preference, error)
	Put(ctx context.Context, p *domain.Preference) error
}

// NotificationRepository is the minimal interface the router requires from the notification store.
type NotificationRepository interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int, since time.Time) ([]domain.Notification, error)
	UpdateStatus(ctx context.Context, notificationID string, status domain.NotificationStatus, readAt *time.Time) error
	ListStalePending(ctx context.Context, before time.Time) ([]domain.Notification, error)
}
