package handlers

import (
	"net/http"

	"github.com/gridhawk-systems/charger-telemetry/internal/health"
	"github.com/gridhawk-systems/charger-telemetry/internal/httputil"
)

// HealthHandler serves the aggregate health verdict.
type HealthHandler struct {
	aggregator *health.Aggregator
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(a *health.Aggregator) *HealthHandler {
	return &HealthHandler{aggregator: a}
}

// Health handles GET /health. A degraded or unhealthy verdict still
// completes with 200; only an internal failure of the check itself is a
// 500.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.aggregator.Check(r.Context())
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, snapshot)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// Liveness handles GET /healthz: the process is up and serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
