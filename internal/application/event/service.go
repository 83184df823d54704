package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/pkg/id"
	"github.com/go-event-bus/internal/pkg/validate"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Store is the event persistence this service requires. Events are
// append-only; there is no update or delete.
type Store interface {
	Put(ctx context.Context, e *domain.Event) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Event, int, bool, error)
}

// FanoutEngine turns a persisted event into notifications.
type FanoutEngine interface {
	OnEventPersisted(ctx context.Context, e *domain.Event) ([]domain.Notification, error)
}

// PublishInput carries an event draft from the API.
type PublishInput struct {
	Type           string                 `json:"type" validate:"required"`
	UserID         string                 `json:"user_id" validate:"required"`
	Source         domain.EventSource     `json:"source"`
	OrganizationID string                 `json:"organization_id"`
	Data           map[string]interface{} `json:"data"`
	CorrelationID  string                 `json:"correlation_id"`
	Metadata       domain.EventMetadata   `json:"metadata"`
}

// Page is one page of a user's event history.
type Page struct {
	Events  []domain.Event `json:"data"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

type Service interface {
	// Publish persists the event, then fans it out. The publish succeeds as
	// soon as the event is durable; a fan-out failure is retried in the
	// background and never reported to the publisher.
	Publish(ctx context.Context, in PublishInput) (*domain.Event, []domain.Notification, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) (*Page, error)
}

type service struct {
	store  Store
	fanout FanoutEngine
}

func NewService(store Store, fanout FanoutEngine) Service {
	return &service{store: store, fanout: fanout}
}

func (s *service) Publish(ctx context.Context, in PublishInput) (*domain.Event, []domain.Notification, error) {
	if err := validate.Struct(in); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}

	correlationID := in.CorrelationID
	if correlationID == "" {
		correlationID = id.New()
	}
	e := &domain.Event{
		EventID:        id.New(),
		Type:           in.Type,
		Source:         in.Source,
		UserID:         in.UserID,
		OrganizationID: in.OrganizationID,
		Timestamp:      time.Now().UnixMilli(),
		Data:           in.Data,
		CorrelationID:  correlationID,
		Metadata:       in.Metadata,
	}
	if err := s.store.Put(ctx, e); err != nil {
		return nil, nil, fmt.Errorf("persist event: %w", err)
	}

	notifications, err := s.fanout.OnEventPersisted(ctx, e)
	if err != nil {
		// The event is durable; fan-out failures stay asynchronous from the
		// publisher's point of view.
		slog.Error("fan-out failed", "event_id", e.EventID, "correlation_id", e.CorrelationID, "err", err)
		return e, nil, nil
	}
	return e, notifications, nil
}

func (s *service) ListForUser(ctx context.Context, userID string, limit, offset int) (*Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	events, total, hasMore, err := s.store.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page{Events: events, Total: total, HasMore: hasMore}, nil
}
