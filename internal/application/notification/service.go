package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-event-bus/internal/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Store is the notification persistence this service requires.
type Store interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int, since time.Time) ([]domain.Notification, error)
	UpdateStatus(ctx context.Context, notificationID string, status domain.NotificationStatus, readAt *time.Time) error
}

type Service interface {
	// List is the polling fallback: newest-first bounded by limit, or
	// oldest-first after since for incremental sync.
	List(ctx context.Context, userID string, limit int, since time.Time) ([]domain.Notification, error)
	// UpdateStatus applies a forward-only transition on behalf of the user.
	UpdateStatus(ctx context.Context, notificationID, requestingUserID string, status domain.NotificationStatus) (*domain.Notification, error)
	// MarkRead is the WebSocket mark_read path; same rules as UpdateStatus.
	MarkRead(ctx context.Context, notificationID, requestingUserID string) (*domain.Notification, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, userID string, limit int, since time.Time) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.store.ListByUser(ctx, userID, limit, since)
}

func (s *service) UpdateStatus(ctx context.Context, notificationID, requestingUserID string, status domain.NotificationStatus) (*domain.Notification, error) {
	if !domain.ValidNotificationStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrBadRequest)
	}
	n, err := s.store.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	// Foreign notifications look absent rather than forbidden.
	if n.UserID != requestingUserID {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	if !domain.CanTransition(n.Status, status) {
		return nil, fmt.Errorf("illegal transition %s -> %s: %w", n.Status, status, domain.ErrBadRequest)
	}

	var readAt *time.Time
	if status == domain.NotificationRead {
		now := time.Now().UTC()
		readAt = &now
	}
	if err := s.store.UpdateStatus(ctx, notificationID, status, readAt); err != nil {
		return nil, err
	}
	n.Status = status
	n.ReadAt = readAt
	return n, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID, requestingUserID string) (*domain.Notification, error) {
	return s.UpdateStatus(ctx, notificationID, requestingUserID, domain.NotificationRead)
}
