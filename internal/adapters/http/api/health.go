// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/lumora/pulse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// MetricsHandler serves Prometheus metrics from the custom registry.
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		handler: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleMetrics handles GET /metrics requests.
func (h *MetricsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}
