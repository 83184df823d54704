package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-event-bus/internal/domain"
)

// DataEnvelope is the generic success wrapper.
type DataEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the generic error wrapper: a stable machine-readable code
// plus a human message, both at the top level.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, DataEnvelope{Data: v})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Code: code, Message: msg})
}

// httpError maps domain sentinel errors to HTTP responses. Errors that match
// no sentinel get the handler-specific fallback code with status 500.
func httpError(w http.ResponseWriter, err error, fallbackCode string) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
