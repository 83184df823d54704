package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-event-bus/internal/domain"
)

// PushResult reports what the connection manager did with an in-app push.
type PushResult int

const (
	// PushNone means the user has no live connection in scope.
	PushNone PushResult = iota
	// PushDelivered means at least one connection took the frame immediately.
	PushDelivered
	// PushBuffered means the frame was queued for a momentarily slow connection.
	PushBuffered
)

// ChannelSender delivers one notification over one external channel.
// Implementations must honor ctx cancellation.
type ChannelSender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// InAppPusher is the connection manager seen from the dispatcher's side.
type InAppPusher interface {
	PushToUser(userID, appID string, n *domain.Notification) PushResult
}

// AttemptStore persists per-channel delivery bookkeeping.
type AttemptStore interface {
	Put(ctx context.Context, a *domain.DeliveryAttempt) error
	Get(ctx context.Context, notificationID string, channel domain.Channel) (*domain.DeliveryAttempt, error)
	ListByNotification(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error)
	ListDue(ctx context.Context, now int64) ([]domain.DeliveryAttempt, error)
}

// NotificationStore is the notification state the dispatcher may touch.
type NotificationStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	UpdateStatus(ctx context.Context, notificationID string, status domain.NotificationStatus, readAt *time.Time) error
	ListStalePending(ctx context.Context, before time.Time) ([]domain.Notification, error)
}

// Config tunes the retry policy.
type Config struct {
	MaxRetries  int           // attempt ceiling per channel
	BaseDelay   time.Duration // first retry delay, doubled per attempt
	MaxDelay    time.Duration // backoff cap; keeps 5 attempts inside 24h
	SendTimeout time.Duration // per-send bound for external channels
}

// DefaultConfig matches the documented policy: 5 attempts, 30s base doubling,
// capped at 8h, 10s per send.
func DefaultConfig() Config {
	return Config{MaxRetries: 5, BaseDelay: 30 * time.Second, MaxDelay: 8 * time.Hour, SendTimeout: 10 * time.Second}
}

// Dispatcher drives per-notification, per-channel delivery with retry
// bookkeeping. In-app goes through the connection manager; every other
// channel goes through its registered ChannelSender.
type Dispatcher struct {
	senders       map[domain.Channel]ChannelSender
	pusher        InAppPusher
	attempts      AttemptStore
	notifications NotificationStore
	cfg           Config
	now           func() time.Time
}

func NewDispatcher(pusher InAppPusher, attempts AttemptStore, notifications NotificationStore, cfg Config) *Dispatcher {
	if cfg.MaxRetries <= 0 {
		cfg = DefaultConfig()
	}
	return &Dispatcher{
		senders:       make(map[domain.Channel]ChannelSender),
		pusher:        pusher,
		attempts:      attempts,
		notifications: notifications,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Register installs the sender for one external channel.
func (d *Dispatcher) Register(channel domain.Channel, s ChannelSender) {
	d.senders[channel] = s
}

// DispatchAll starts delivery of the notification on each of its channels.
// It returns immediately; sends run in their own goroutines.
func (d *Dispatcher) DispatchAll(n *domain.Notification) {
	for _, ch := range n.Channels {
		go func(ch domain.Channel) {
			if _, err := d.Dispatch(context.Background(), n, ch); err != nil {
				slog.Error("dispatch failed", "notification_id", n.NotificationID, "channel", ch, "err", err)
			}
		}(ch)
	}
}

// Dispatch runs one delivery attempt for one channel and persists the
// resulting bookkeeping. It is also the scheduler's retry entry point.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.Notification, channel domain.Channel) (*domain.DeliveryAttempt, error) {
	attempt, err := d.attempts.Get(ctx, n.NotificationID, channel)
	if errors.Is(err, domain.ErrNotFound) {
		attempt = &domain.DeliveryAttempt{
			NotificationID: n.NotificationID,
			UserID:         n.UserID,
			Channel:        channel,
			Status:         domain.AttemptPending,
		}
	} else if err != nil {
		return nil, fmt.Errorf("load delivery attempt: %w", err)
	}
	if attempt.Status == domain.AttemptSent || attempt.Status == domain.AttemptExhausted {
		return attempt, nil
	}

	if channel == domain.ChannelInApp {
		return attempt, d.dispatchInApp(ctx, n, attempt)
	}
	return attempt, d.dispatchExternal(ctx, n, channel, attempt)
}

// dispatchInApp hands the notification to the connection manager. No live
// connection is not a failure: the attempt stays pending and the polling API
// serves it later.
func (d *Dispatcher) dispatchInApp(ctx context.Context, n *domain.Notification, attempt *domain.DeliveryAttempt) error {
	result := d.pusher.PushToUser(n.UserID, n.AppID, n)
	if result == PushNone {
		attempt.Status = domain.AttemptPending
		return d.attempts.Put(ctx, attempt)
	}
	attempt.AttemptCount++
	attempt.LastAttemptAt = d.now().UTC()
	attempt.Status = domain.AttemptSent
	attempt.NextRetryAt = 0
	if err := d.attempts.Put(ctx, attempt); err != nil {
		return err
	}
	return d.markNotificationSent(ctx, n.NotificationID)
}

func (d *Dispatcher) dispatchExternal(ctx context.Context, n *domain.Notification, channel domain.Channel, attempt *domain.DeliveryAttempt) error {
	sender, ok := d.senders[channel]
	if !ok {
		return d.recordFailure(ctx, n, attempt, fmt.Errorf("no sender registered for channel %s", channel))
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()
	if err := sender.Send(sendCtx, n); err != nil {
		return d.recordFailure(ctx, n, attempt, err)
	}

	attempt.AttemptCount++
	attempt.LastAttemptAt = d.now().UTC()
	attempt.Status = domain.AttemptSent
	attempt.NextRetryAt = 0
	attempt.LastError = ""
	if err := d.attempts.Put(ctx, attempt); err != nil {
		return err
	}
	return d.markNotificationSent(ctx, n.NotificationID)
}

func (d *Dispatcher) recordFailure(ctx context.Context, n *domain.Notification, attempt *domain.DeliveryAttempt, sendErr error) error {
	attempt.AttemptCount++
	attempt.LastAttemptAt = d.now().UTC()
	attempt.LastError = sendErr.Error()

	if attempt.AttemptCount >= d.cfg.MaxRetries {
		attempt.Status = domain.AttemptExhausted
		attempt.NextRetryAt = 0
		if err := d.attempts.Put(ctx, attempt); err != nil {
			return err
		}
		return d.maybeMarkNotificationFailed(ctx, n)
	}

	attempt.Status = domain.AttemptFailed
	attempt.NextRetryAt = attempt.LastAttemptAt.Add(d.backoff(attempt.AttemptCount)).UnixMilli()
	return d.attempts.Put(ctx, attempt)
}

// backoff doubles the base delay per completed attempt, bounded by MaxDelay.
func (d *Dispatcher) backoff(attemptCount int) time.Duration {
	delay := d.cfg.BaseDelay
	for i := 1; i < attemptCount; i++ {
		delay *= 2
		if delay >= d.cfg.MaxDelay {
			return d.cfg.MaxDelay
		}
	}
	if delay > d.cfg.MaxDelay {
		return d.cfg.MaxDelay
	}
	return delay
}

func (d *Dispatcher) markNotificationSent(ctx context.Context, notificationID string) error {
	current, err := d.notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(current.Status, domain.NotificationSent) {
		return nil // already sent or further along
	}
	return d.notifications.UpdateStatus(ctx, notificationID, domain.NotificationSent, nil)
}

// maybeMarkNotificationFailed flips the notification to failed only when
// every one of its channels is exhausted. A single sent channel keeps the
// notification delivered.
func (d *Dispatcher) maybeMarkNotificationFailed(ctx context.Context, n *domain.Notification) error {
	attempts, err := d.attempts.ListByNotification(ctx, n.NotificationID)
	if err != nil {
		return err
	}
	if len(attempts) < len(n.Channels) {
		return nil // some channels have not been attempted yet
	}
	for _, a := range attempts {
		if a.Status != domain.AttemptExhausted {
			return nil
		}
	}
	current, err := d.notifications.Get(ctx, n.NotificationID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(current.Status, domain.NotificationFailed) {
		return nil
	}
	return d.notifications.UpdateStatus(ctx, n.NotificationID, domain.NotificationFailed, nil)
}
