package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONError_TopLevelCodeAndMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONError(rr, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.Equal(t, "invalid or expired token", body["message"])
	assert.NotContains(t, body, "error")
}
