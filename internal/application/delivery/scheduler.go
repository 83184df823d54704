package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-event-bus/internal/domain"
)

// Scheduler periodically re-dispatches failed delivery attempts whose
// next_retry_at has passed, and fails notifications that have sat pending on
// every channel past the TTL.
type Scheduler struct {
	dispatcher    *Dispatcher
	attempts      AttemptStore
	notifications NotificationStore
	interval      time.Duration
	pendingTTL    time.Duration
}

func NewScheduler(d *Dispatcher, attempts AttemptStore, notifications NotificationStore, interval, pendingTTL time.Duration) *Scheduler {
	return &Scheduler{
		dispatcher:    d,
		attempts:      attempts,
		notifications: notifications,
		interval:      interval,
		pendingTTL:    pendingTTL,
	}
}

// Run sweeps until ctx is cancelled. Intended to run in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass of both sweeps. Exported so tests and the startup path
// can trigger it directly.
func (s *Scheduler) Sweep(ctx context.Context) {
	s.retryDue(ctx)
	s.expirePending(ctx)
}

func (s *Scheduler) retryDue(ctx context.Context) {
	due, err := s.attempts.ListDue(ctx, time.Now().UnixMilli())
	if err != nil {
		slog.Error("retry sweep: list due attempts", "err", err)
		return
	}
	for i := range due {
		a := &due[i]
		n, err := s.notifications.Get(ctx, a.NotificationID)
		if err != nil {
			slog.Error("retry sweep: load notification", "notification_id", a.NotificationID, "err", err)
			continue
		}
		if _, err := s.dispatcher.Dispatch(ctx, n, a.Channel); err != nil {
			slog.Error("retry sweep: dispatch", "notification_id", a.NotificationID, "channel", a.Channel, "err", err)
		}
	}
}

// expirePending resolves the open question of notifications stuck pending
// with no live connection and no other channel: past the TTL they become
// failed rather than lingering forever.
func (s *Scheduler) expirePending(ctx context.Context) {
	if s.pendingTTL <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-s.pendingTTL)
	stale, err := s.notifications.ListStalePending(ctx, cutoff)
	if err != nil {
		slog.Error("pending sweep: list stale", "err", err)
		return
	}
	for i := range stale {
		n := &stale[i]
		if !domain.CanTransition(n.Status, domain.NotificationFailed) {
			continue
		}
		if err := s.notifications.UpdateStatus(ctx, n.NotificationID, domain.NotificationFailed, nil); err != nil {
			slog.Error("pending sweep: update status", "notification_id", n.NotificationID, "err", err)
		}
	}
}
