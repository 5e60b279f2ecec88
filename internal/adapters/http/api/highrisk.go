// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/lumora/pulse/internal/domain/types"
)

// HighRiskDependencies defines the interface for batch scan operations.
type HighRiskDependencies interface {
	ListHighRiskConversations(ctx context.Context, withinDays int) ([]types.ScoreResult, error)
}

// HighRiskHandler handles high-risk scan requests.
type HighRiskHandler struct {
	deps HighRiskDependencies
}

// NewHighRiskHandler creates a new high-risk handler.
func NewHighRiskHandler(deps HighRiskDependencies) *HighRiskHandler {
	return &HighRiskHandler{deps: deps}
}

type highRiskResponse struct {
	Results []types.ScoreResult `json:"results"`
	Count   int                 `json:"count"`
}

// HandleGetHighRisk handles GET /high-risk?within_days= requests.
func (h *HighRiskHandler) HandleGetHighRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	withinDays := 0
	if raw := r.URL.Query().Get("within_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidWindow)
			return
		}
		withinDays = n
	}

	results, err := h.deps.ListHighRiskConversations(r.Context(), withinDays)
	if err != nil {
		writeScoringError(w, err)
		return
	}
	if results == nil {
		results = []types.ScoreResult{}
	}
	writeJSON(w, http.StatusOK, highRiskResponse{Results: results, Count: len(results)})
}
