// Package server wires HTTP routes for the telemetry service.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridhawk-systems/charger-telemetry/internal/handlers"
	"github.com/gridhawk-systems/charger-telemetry/internal/logging"
	"github.com/gridhawk-systems/charger-telemetry/internal/middleware"
)

// NewRouter constructs a ServeMux with all service routes registered.
func NewRouter(t *handlers.TelemetryHandler, h *handlers.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	// Telemetry API
	mux.HandleFunc("POST /api/v1/telemetry", t.Ingest)
	mux.HandleFunc("GET /api/v1/telemetry/{deviceId}", t.GetLatest)
	// A bare trailing slash reaches the same handler with an empty id and
	// is answered with a client error rather than a routing 404.
	mux.HandleFunc("GET /api/v1/telemetry/", t.GetLatest)
	mux.HandleFunc("GET /api/v1/stats", t.Stats)

	// Health endpoints
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /healthz", h.Liveness)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(AccessLog(logging.Default(), mux))
}
