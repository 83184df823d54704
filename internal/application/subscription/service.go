package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/pkg/id"
	"github.com/go-event-bus/internal/pkg/validate"
)

// Store is the subscription persistence this service requires.
type Store interface {
	Put(ctx context.Context, s *domain.Subscription) error
	Get(ctx context.Context, subscriptionID string) (*domain.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	ListActiveByType(ctx context.Context, eventType string) ([]domain.Subscription, error)
	Deactivate(ctx context.Context, subscriptionID string) error
}

// SubscribeInput carries a subscribe request.
type SubscribeInput struct {
	UserID     string                     `json:"user_id" validate:"required"`
	AppID      string                     `json:"app_id" validate:"required"`
	EventTypes []string                   `json:"event_types" validate:"required,min=1"`
	Filters    domain.SubscriptionFilters `json:"filters"`
}

type Service interface {
	// Subscribe is idempotent: an identical active (user, app, types, filters)
	// tuple returns the existing subscription unchanged.
	Subscribe(ctx context.Context, in SubscribeInput) (*domain.Subscription, error)
	// Unsubscribe soft-deletes; the row is retained for audit.
	Unsubscribe(ctx context.Context, subscriptionID, requestingUserID string) error
	ListForUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	ActiveForType(ctx context.Context, eventType string) ([]domain.Subscription, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) Subscribe(ctx context.Context, in SubscribeInput) (*domain.Subscription, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	eventTypes := domain.NormalizeEventTypes(in.EventTypes)
	if len(eventTypes) == 0 {
		return nil, fmt.Errorf("no valid event types: %w", domain.ErrBadRequest)
	}

	existing, err := s.store.ListByUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	for i := range existing {
		sub := &existing[i]
		if sub.Active && sub.AppID == in.AppID && sameTypes(sub.EventTypes, eventTypes) && sub.Filters.Equal(in.Filters) {
			return sub, nil
		}
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		SubscriptionID: id.New(),
		UserID:         in.UserID,
		AppID:          in.AppID,
		EventTypes:     eventTypes,
		Filters:        in.Filters,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Put(ctx, sub); err != nil {
		return nil, fmt.Errorf("persist subscription: %w", err)
	}
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, subscriptionID, requestingUserID string) error {
	sub, err := s.store.Get(ctx, subscriptionID)
	if err != nil {
		return err
	}
	// Ownership failures look identical to absence so subscription ids
	// cannot be probed across users.
	if sub.UserID != requestingUserID {
		return fmt.Errorf("subscription %s: %w", subscriptionID, domain.ErrNotFound)
	}
	return s.store.Deactivate(ctx, subscriptionID)
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) ActiveForType(ctx context.Context, eventType string) ([]domain.Subscription, error) {
	return s.store.ListActiveByType(ctx, eventType)
}

func sameTypes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
