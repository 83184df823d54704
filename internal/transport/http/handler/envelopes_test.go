package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-event-bus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_TopLevelCodeAndMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusBadRequest, "VALIDATION_ERROR", "type is required")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "type is required", body["message"])
	assert.NotContains(t, body, "error")
}

func TestHTTPError_SentinelMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("event: %w", domain.ErrBadRequest), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("event: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("event: %w", domain.ErrUnauthorized), http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("event: %w", domain.ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("event: %w", domain.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("store: %w", domain.ErrUnavailable), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "EVENT_PUBLISH_FAILED"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		httpError(rr, tc.err, "EVENT_PUBLISH_FAILED")
		assert.Equal(t, tc.status, rr.Code)

		var body ErrorEnvelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
		assert.NotEmpty(t, body.Message)
	}
}
