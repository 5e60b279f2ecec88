// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumora/pulse/internal/domain/types"
	"github.com/lumora/pulse/internal/engine"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ComputeIntentScore scores a subject's engagement across their
	// recent conversations.
	ComputeIntentScore(ctx context.Context, subjectID string, windowDays int) (types.ScoreResult, error)

	// ComputeGhostingRisk scores one participant's silence risk within a
	// conversation.
	ComputeGhostingRisk(ctx context.Context, conversationID, subjectID string) (types.ScoreResult, error)

	// ListHighRiskConversations scans recently active conversations and
	// returns participants in the high or ghosting tiers.
	ListHighRiskConversations(ctx context.Context, withinDays int) ([]types.ScoreResult, error)

	// Warning returns the softened nudge for a conversation participant.
	Warning(ctx context.Context, conversationID, subjectID string) types.Warning
}

// Server wires HTTP routes for the scoring API.
type Server struct {
	healthHandler   *HealthHandler
	metricsHandler  *MetricsHandler
	statsHandler    *StatsHandler
	intentHandler   *IntentHandler
	ghostingHandler *GhostingHandler
	highRiskHandler *HighRiskHandler
	warningHandler  *WarningHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		metricsHandler:  NewMetricsHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		intentHandler:   NewIntentHandler(deps),
		ghostingHandler: NewGhostingHandler(deps),
		highRiskHandler: NewHighRiskHandler(deps),
		warningHandler:  NewWarningHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/intent/", MetricsMiddleware(s.intentHandler.HandleGetIntent, "intent"))
	mux.HandleFunc("/ghosting", MetricsMiddleware(s.ghostingHandler.HandleGetGhosting, "ghosting"))
	mux.HandleFunc("/high-risk", MetricsMiddleware(s.highRiskHandler.HandleGetHighRisk, "high_risk"))
	mux.HandleFunc("/warning", MetricsMiddleware(s.warningHandler.HandleGetWarning, "warning"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeScoringError translates engine errors to HTTP status codes.
func writeScoringError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownSubject),
		errors.Is(err, engine.ErrUnknownConversation):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, engine.ErrDataUnavailable):
		writeError(w, http.StatusServiceUnavailable, "data_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
