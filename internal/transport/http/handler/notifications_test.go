package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-event-bus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) List(ctx context.Context, userID string, limit int, since time.Time) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, limit, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *mockNotificationService) UpdateStatus(ctx context.Context, notificationID, requestingUserID string, status domain.NotificationStatus) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, requestingUserID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, notificationID, requestingUserID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func notificationRouter(svc *mockNotificationService) http.Handler {
	h := NewNotificationHandler(svc)
	r := chi.NewRouter()
	r.Get("/notifications", h.List)
	r.Patch("/notifications/{id}", h.UpdateStatus)
	return r
}

func TestNotificationList_PassesSince(t *testing.T) {
	svc := new(mockNotificationService)
	since := time.UnixMilli(1700000000000).UTC()
	svc.On("List", mock.Anything, "u1", 25, since).Return([]domain.Notification{{NotificationID: "n1"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/notifications?limit=25&since=1700000000000", nil)
	rr := httptest.NewRecorder()
	notificationRouter(svc).ServeHTTP(rr, withClaims(req, "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "n1")
	svc.AssertExpectations(t)
}

func TestNotificationList_RejectsBadSince(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/notifications?since=yesterday", nil)
	rr := httptest.NewRecorder()
	notificationRouter(new(mockNotificationService)).ServeHTTP(rr, withClaims(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
}

func TestNotificationUpdateStatus_OK(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("UpdateStatus", mock.Anything, "n1", "u1", domain.NotificationRead).
		Return(&domain.Notification{NotificationID: "n1", Status: domain.NotificationRead}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/notifications/n1", strings.NewReader(`{"status":"read"}`))
	rr := httptest.NewRecorder()
	notificationRouter(svc).ServeHTTP(rr, withClaims(req, "u1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"read"`)
}

func TestNotificationUpdateStatus_IllegalTransition(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("UpdateStatus", mock.Anything, "n1", "u1", domain.NotificationPending).
		Return(nil, domain.ErrBadRequest)

	req := httptest.NewRequest(http.MethodPatch, "/notifications/n1", strings.NewReader(`{"status":"pending"}`))
	rr := httptest.NewRecorder()
	notificationRouter(svc).ServeHTTP(rr, withClaims(req, "u1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotificationUpdateStatus_ForeignLooksAbsent(t *testing.T) {
	svc := new(mockNotificationService)
	svc.On("UpdateStatus", mock.Anything, "n1", "u1", domain.NotificationRead).
		Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodPatch, "/notifications/n1", strings.NewReader(`{"status":"read"}`))
	rr := httptest.NewRecorder()
	notificationRouter(svc).ServeHTTP(rr, withClaims(req, "u1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "NOT_FOUND")
}
