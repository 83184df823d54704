package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-event-bus/internal/domain"
)

// Store is the preference persistence this service requires.
type Store interface {
	Get(ctx context.Context, userID string) (*domain.Preference, error)
	Put(ctx context.Context, p *domain.Preference) error
}

// UpdateInput is the full replacement body for a user's preferences.
type UpdateInput struct {
	Channels          map[domain.Channel]domain.ChannelSetting `json:"channels"`
	NotificationTypes map[string]domain.TypeSetting            `json:"notification_types"`
	UnsubscribedTypes []string                                 `json:"unsubscribed_types"`
}

type Service interface {
	// Get returns the stored preference, or the default (in-app only) when
	// the user has never saved one.
	Get(ctx context.Context, userID string) (*domain.Preference, error)
	Update(ctx context.Context, userID string, in UpdateInput) (*domain.Preference, error)
	// Resolve computes the channel set and priority for one notification
	// type. An empty channel set means the notification is suppressed.
	Resolve(ctx context.Context, userID, notificationType string) ([]domain.Channel, domain.Priority, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	p, err := s.store.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultPreference(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, userID string, in UpdateInput) (*domain.Preference, error) {
	for c := range in.Channels {
		if !domain.ValidChannel(c) {
			return nil, fmt.Errorf("unknown channel %q: %w", c, domain.ErrBadRequest)
		}
	}
	for t, ts := range in.NotificationTypes {
		if t == "" {
			return nil, fmt.Errorf("empty notification type key: %w", domain.ErrBadRequest)
		}
		if ts.Priority != "" && !domain.ValidPriority(ts.Priority) {
			return nil, fmt.Errorf("unknown priority %q for type %q: %w", ts.Priority, t, domain.ErrBadRequest)
		}
		for _, c := range ts.Channels {
			if !domain.ValidChannel(c) {
				return nil, fmt.Errorf("unknown channel %q for type %q: %w", c, t, domain.ErrBadRequest)
			}
		}
	}

	// Start from current settings so a partial body doesn't silently
	// disable every channel the caller omitted.
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for c, setting := range in.Channels {
		current.Channels[c] = setting
	}
	if in.NotificationTypes != nil {
		current.NotificationTypes = in.NotificationTypes
	}
	if in.UnsubscribedTypes != nil {
		current.UnsubscribedTypes = in.UnsubscribedTypes
	}
	current.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, current); err != nil {
		return nil, fmt.Errorf("persist preference: %w", err)
	}
	return current, nil
}

func (s *service) Resolve(ctx context.Context, userID, notificationType string) ([]domain.Channel, domain.Priority, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	return p.ResolveChannels(notificationType), p.ResolvePriority(notificationType), nil
}
