package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-event-bus/internal/application/preference"
	"github.com/go-event-bus/internal/transport/http/middleware"
)

// PreferenceHandler handles notification preference endpoints.
type PreferenceHandler struct {
	svc preference.Service
}

func NewPreferenceHandler(svc preference.Service) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	p, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err, "PREFERENCES_FETCH_FAILED")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var in preference.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	p, err := h.svc.Update(r.Context(), claims.UserID, in)
	if err != nil {
		httpError(w, err, "PREFERENCES_UPDATE_FAILED")
		return
	}
	writeData(w, http.StatusOK, p)
}
