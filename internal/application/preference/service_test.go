package preference

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-event-bus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

func (m *mockStore) Put(ctx context.Context, p *domain.Preference) error {
	return m.Called(ctx, p).Error(0)
}

func notFound() error {
	return fmt.Errorf("preference: %w", domain.ErrNotFound)
}

func TestGet_DefaultsWhenNeverSaved(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything, "u1").Return(nil, notFound())

	svc := NewService(store)
	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, []domain.Channel{domain.ChannelInApp}, p.ResolveChannels("any.type"))
}

func TestUpdate_RejectsUnknownChannel(t *testing.T) {
	svc := NewService(new(mockStore))
	_, err := svc.Update(context.Background(), "u1", UpdateInput{
		Channels: map[domain.Channel]domain.ChannelSetting{"pigeon": {Enabled: true}},
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_RejectsUnknownPriority(t *testing.T) {
	svc := NewService(new(mockStore))
	_, err := svc.Update(context.Background(), "u1", UpdateInput{
		NotificationTypes: map[string]domain.TypeSetting{
			"order.created": {Enabled: true, Priority: "asap"},
		},
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_MergesOntoCurrentChannels(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything, "u1").Return(nil, notFound())
	store.On("Put", mock.Anything, mock.AnythingOfType("*domain.Preference")).Return(nil)

	svc := NewService(store)
	p, err := svc.Update(context.Background(), "u1", UpdateInput{
		Channels: map[domain.Channel]domain.ChannelSetting{
			domain.ChannelEmail: {Enabled: true},
		},
	})
	require.NoError(t, err)
	// Enabling email must not disable the default in-app channel.
	assert.True(t, p.Channels[domain.ChannelInApp].Enabled)
	assert.True(t, p.Channels[domain.ChannelEmail].Enabled)
}

func TestResolve_SuppressedWhenUnsubscribed(t *testing.T) {
	stored := domain.DefaultPreference("u1")
	stored.UnsubscribedTypes = []string{"marketing.promo"}

	store := new(mockStore)
	store.On("Get", mock.Anything, "u1").Return(stored, nil)

	svc := NewService(store)
	channels, priority, err := svc.Resolve(context.Background(), "u1", "marketing.promo")
	require.NoError(t, err)
	assert.Empty(t, channels)
	assert.Equal(t, domain.PriorityNormal, priority)
}
