// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/lumora/pulse/internal/domain/types"
)

// WarningDependencies defines the interface for warning lookups.
type WarningDependencies interface {
	Warning(ctx context.Context, conversationID, subjectID string) types.Warning
}

// WarningHandler handles softened warning requests.
type WarningHandler struct {
	deps WarningDependencies
}

// NewWarningHandler creates a new warning handler.
func NewWarningHandler(deps WarningDependencies) *WarningHandler {
	return &WarningHandler{deps: deps}
}

// HandleGetWarning handles GET /warning?conversation_id=&subject_id= requests.
// Scoring failures never surface here; callers always get a renderable
// payload, possibly with show_warning false.
func (h *WarningHandler) HandleGetWarning(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	conversationID := q.Get("conversation_id")
	subjectID := q.Get("subject_id")
	if conversationID == "" || subjectID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingParam)
		return
	}

	warning := h.deps.Warning(r.Context(), conversationID, subjectID)
	writeJSON(w, http.StatusOK, warning)
}
