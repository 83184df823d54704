package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/pkg/id"
)

// maxAttempts bounds retries when subscription or preference lookups fail
// transiently. After that the fan-out is logged as dropped; the event itself
// stays durably persisted.
const maxAttempts = 3

// SubscriptionSource yields active subscriptions for an event type via an
// indexed lookup.
type SubscriptionSource interface {
	ActiveForType(ctx context.Context, eventType string) ([]domain.Subscription, error)
}

// PreferenceSource resolves a user's channels and priority for one type.
type PreferenceSource interface {
	Resolve(ctx context.Context, userID, notificationType string) ([]domain.Channel, domain.Priority, error)
}

// NotificationStore persists the notifications the engine creates.
type NotificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

// Dispatcher takes ownership of a persisted notification and drives its
// per-channel delivery.
type Dispatcher interface {
	DispatchAll(n *domain.Notification)
}

// Engine joins matching subscriptions with preferences to turn one persisted
// event into per-user notifications.
type Engine struct {
	subscriptions SubscriptionSource
	preferences   PreferenceSource
	store         NotificationStore
	dispatcher    Dispatcher
	templater     Templater
}

func NewEngine(subs SubscriptionSource, prefs PreferenceSource, store NotificationStore, d Dispatcher, t Templater) *Engine {
	if t == nil {
		t = DefaultTemplater{}
	}
	return &Engine{subscriptions: subs, preferences: prefs, store: store, dispatcher: d, templater: t}
}

// OnEventPersisted computes and persists the notifications for the event,
// then hands each one to the dispatcher. Transient lookup failures retry the
// fan-out up to maxAttempts before the fan-out is dropped; recipients already
// handled on an earlier pass are skipped, so a retry never persists a second
// notification for the same (event, user) pair.
func (e *Engine) OnEventPersisted(ctx context.Context, ev *domain.Event) ([]domain.Notification, error) {
	handled := make(map[string]*domain.Notification)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		notifications, err := e.fanOutOnce(ctx, ev, handled)
		if err == nil {
			return notifications, nil
		}
		lastErr = err
		slog.Warn("fan-out attempt failed",
			"event_id", ev.EventID, "attempt", attempt, "err", err)
	}
	slog.Error("fan-out dropped after retries",
		"event_id", ev.EventID, "correlation_id", ev.CorrelationID, "attempts", maxAttempts)
	return nil, fmt.Errorf("fan-out for event %s: %w", ev.EventID, lastErr)
}

func (e *Engine) fanOutOnce(ctx context.Context, ev *domain.Event, handled map[string]*domain.Notification) ([]domain.Notification, error) {
	subs, err := e.subscriptions.ActiveForType(ctx, ev.Type)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	// One notification per user per event, no matter how many of the
	// user's subscriptions match.
	seen := make(map[string]bool)
	var recipients []string
	for i := range subs {
		sub := &subs[i]
		if !sub.Matches(ev) || seen[sub.UserID] {
			continue
		}
		seen[sub.UserID] = true
		recipients = append(recipients, sub.UserID)
	}

	var notifications []domain.Notification
	for _, userID := range recipients {
		if n, done := handled[userID]; done {
			// Persisted (or suppressed) on an earlier attempt.
			if n != nil {
				notifications = append(notifications, *n)
			}
			continue
		}
		channels, priority, err := e.preferences.Resolve(ctx, userID, ev.Type)
		if err != nil {
			return nil, fmt.Errorf("resolve preferences for %s: %w", userID, err)
		}
		if len(channels) == 0 {
			// Preference-honoring suppression, not an error.
			handled[userID] = nil
			continue
		}

		title, body := e.templater.Render(ev.Type, ev.Data)
		n := domain.Notification{
			NotificationID: id.New(),
			UserID:         userID,
			EventID:        ev.EventID,
			AppID:          ev.Source.AppID,
			Type:           ev.Type,
			Title:          title,
			Body:           body,
			Channels:       channels,
			Priority:       priority,
			Status:         domain.NotificationPending,
			CorrelationID:  ev.CorrelationID,
			CreatedAt:      time.Now().UTC(),
		}
		if err := e.store.Put(ctx, &n); err != nil {
			return nil, fmt.Errorf("persist notification for %s: %w", userID, err)
		}
		handled[userID] = &n
		notifications = append(notifications, n)
	}

	for i := range notifications {
		e.dispatcher.DispatchAll(&notifications[i])
	}
	return notifications, nil
}
