// Package handlers exposes the HTTP surface: telemetry intake, latest-record
// lookup, health and stats.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gridhawk-systems/charger-telemetry/internal/httputil"
	"github.com/gridhawk-systems/charger-telemetry/internal/logging"
	"github.com/gridhawk-systems/charger-telemetry/internal/metrics"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
	"github.com/gridhawk-systems/charger-telemetry/internal/pipeline"
	"github.com/gridhawk-systems/charger-telemetry/internal/query"
	"github.com/gridhawk-systems/charger-telemetry/internal/ratelimit"
	"github.com/gridhawk-systems/charger-telemetry/internal/service"
	"github.com/gridhawk-systems/charger-telemetry/internal/validator"
)

// TelemetryHandler serves the intake and read endpoints.
type TelemetryHandler struct {
	processor *service.Processor
	queries   *query.Service
	limiter   ratelimit.RateLimiter
}

// NewTelemetryHandler constructs the handler with injected dependencies.
func NewTelemetryHandler(p *service.Processor, q *query.Service, limiter ratelimit.RateLimiter) *TelemetryHandler {
	if limiter == nil {
		limiter = ratelimit.NoOpRateLimiter{}
	}
	return &TelemetryHandler{processor: p, queries: q, limiter: limiter}
}

// IngestResponse acknowledges an accepted event.
type IngestResponse struct {
	RecordID string `json:"recordId"`
	DeviceID string `json:"deviceId"`
}

// Ingest handles POST /api/v1/telemetry. Delivery is at-least-once and
// unordered; a 503 tells the sender the event was dead-lettered after the
// retry budget and should not be resent.
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var raw models.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		logging.Default().WarnContext(r.Context(), "rejected unreadable intake payload", logging.Err(err))
		httputil.WriteError(w, http.StatusBadRequest, "request body must be a JSON telemetry event")
		return
	}

	limitKey := raw.DeviceID
	if limitKey == "" {
		limitKey = "unknown"
	}
	// Fail open on limiter errors: a broken limiter must not block intake.
	if allowed, err := h.limiter.Allow(r.Context(), limitKey); err == nil && !allowed {
		metrics.Emit(func() { metrics.RateLimitHits.Inc() })
		httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	record, err := h.processor.Ingest(r.Context(), raw)
	if err != nil {
		var rejection *validator.RejectionError
		if errors.As(err, &rejection) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorBody{
				Status:  "error",
				Message: rejection.Message,
				Reason:  rejection.Reason.String(),
			})
			return
		}
		if pipeline.IsTransient(err) {
			httputil.WriteError(w, http.StatusServiceUnavailable, "telemetry store is unavailable")
			return
		}
		logging.Default().ErrorContext(r.Context(), "event processing failed", logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	logging.Default().InfoContext(r.Context(), "telemetry event accepted",
		logging.RecordID(record.RecordID),
		logging.DeviceID(record.DeviceID),
	)
	httputil.WriteJSON(w, http.StatusAccepted, IngestResponse{
		RecordID: record.RecordID,
		DeviceID: record.DeviceID,
	})
}

// LatestResponse is the read-side record shape.
type LatestResponse struct {
	DeviceID  string                `json:"deviceId"`
	Timestamp string                `json:"timestamp"`
	Data      map[string]any        `json:"data,omitempty"`
	Metadata  models.RecordMetadata `json:"metadata"`
}

// GetLatest handles GET /api/v1/telemetry/{deviceId}.
func (h *TelemetryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")

	outcome := h.queries.GetLatest(r.Context(), deviceID)
	switch outcome.Kind {
	case query.OutcomeFound:
		record := outcome.Record
		httputil.WriteJSON(w, http.StatusOK, LatestResponse{
			DeviceID:  record.DeviceID,
			Timestamp: record.Timestamp,
			Data:      record.Data,
			Metadata:  record.Metadata,
		})
	case query.OutcomeNotFound:
		httputil.WriteNotFound(w, outcome.Message)
	case query.OutcomeClientError:
		httputil.WriteError(w, http.StatusBadRequest, outcome.Message)
	default:
		httputil.WriteError(w, http.StatusInternalServerError, outcome.Message)
	}
}

// Stats handles GET /api/v1/stats.
func (h *TelemetryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.processor.Snapshot())
}
