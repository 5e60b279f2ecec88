// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/lumora/pulse/internal/domain/types"
)

// GhostingDependencies defines the interface for ghosting risk operations.
type GhostingDependencies interface {
	ComputeGhostingRisk(ctx context.Context, conversationID, subjectID string) (types.ScoreResult, error)
}

// GhostingHandler handles ghosting risk requests.
type GhostingHandler struct {
	deps GhostingDependencies
}

// NewGhostingHandler creates a new ghosting handler.
func NewGhostingHandler(deps GhostingDependencies) *GhostingHandler {
	return &GhostingHandler{deps: deps}
}

// HandleGetGhosting handles GET /ghosting?conversation_id=&subject_id= requests.
func (h *GhostingHandler) HandleGetGhosting(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.deps.ComputeGhostingRisk(r.Context(), conversationID, subjectID)
	if err != nil {
		writeScoringError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
