package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-event-bus/internal/application/preference"
	"github.com/go-event-bus/internal/domain"
	"github.com/go-event-bus/internal/transport/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPreferenceService struct{ mock.Mock }

func (m *mockPreferenceService) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

func (m *mockPreferenceService) Update(ctx context.Context, userID string, in preference.UpdateInput) (*domain.Preference, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}

func (m *mockPreferenceService) Resolve(ctx context.Context, userID, notificationType string) ([]domain.Channel, domain.Priority, error) {
	args := m.Called(ctx, userID, notificationType)
	if args.Get(0) == nil {
		return nil, domain.PriorityNormal, args.Error(2)
	}
	return args.Get(0).([]domain.Channel), args.Get(1).(domain.Priority), args.Error(2)
}

func TestPreferenceGet_OK(t *testing.T) {
	svc := new(mockPreferenceService)
	svc.On("Get", mock.Anything, "u1").Return(domain.DefaultPreference("u1"), nil)

	req := httptest.NewRequest(http.MethodGet, "/preferences", nil)
	rr := httptest.NewRecorder()
	NewPreferenceHandler(svc).Get(rr, withClaims(req, "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "u1")
}

func TestPreferenceUpdate_BadChannelRejected(t *testing.T) {
	svc := new(mockPreferenceService)
	svc.On("Update", mock.Anything, "u1", mock.Anything).Return(nil, domain.ErrBadRequest)

	body := strings.NewReader(`{"channels":{"pigeon":{"enabled":true}}}`)
	req := httptest.NewRequest(http.MethodPut, "/preferences", body)
	rr := httptest.NewRecorder()
	NewPreferenceHandler(svc).Update(rr, withClaims(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type stubConnectionSource struct {
	infos []ws.ConnectionInfo
}

func (s *stubConnectionSource) Status(string) []ws.ConnectionInfo { return s.infos }

func TestConnectionStatus_NotConnected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/connection-status", nil)
	rr := httptest.NewRecorder()
	NewConnectionStatusHandler(&stubConnectionSource{}).Get(rr, withClaims(req, "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"connected":false`)
}

func TestConnectionStatus_Connected(t *testing.T) {
	src := &stubConnectionSource{infos: []ws.ConnectionInfo{{ConnectionID: "c1"}}}
	req := httptest.NewRequest(http.MethodGet, "/connection-status", nil)
	rr := httptest.NewRecorder()
	NewConnectionStatusHandler(src).Get(rr, withClaims(req, "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"connected":true`)
	assert.Contains(t, rr.Body.String(), "c1")
}
