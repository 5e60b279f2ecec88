// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/lumora/pulse/internal/domain/types"
)

// IntentDependencies defines the interface for intent scoring operations.
type IntentDependencies interface {
	ComputeIntentScore(ctx context.Context, subjectID string, windowDays int) (types.ScoreResult, error)
}

// IntentHandler handles intent score requests.
type IntentHandler struct {
	deps IntentDependencies
}

// NewIntentHandler creates a new intent handler.
func NewIntentHandler(deps IntentDependencies) *IntentHandler {
	return &IntentHandler{deps: deps}
}

// HandleGetIntent handles GET /intent/{subject_id} requests.
// An optional window_days query parameter overrides the default window.
func (h *IntentHandler) HandleGetIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /intent/
	subjectID := strings.TrimPrefix(r.URL.Path, "/intent/")
	if subjectID == "" || strings.Contains(subjectID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	windowDays := 0
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidWindow)
			return
		}
		windowDays = n
	}

	result, err := h.deps.ComputeIntentScore(r.Context(), subjectID, windowDays)
	if err != nil {
		writeScoringError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
