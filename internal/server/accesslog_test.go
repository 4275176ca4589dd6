package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhawk-systems/charger-telemetry/internal/logging"
	"github.com/gridhawk-systems/charger-telemetry/internal/middleware"
	"github.com/gridhawk-systems/charger-telemetry/internal/server"
)

func TestAccessLog_RecordsRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	handler := middleware.RequestID(server.AccessLog(logger, inner))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/telemetry", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "POST", line[logging.FieldMethod])
	assert.Equal(t, "/api/v1/telemetry", line[logging.FieldPath])
	assert.Equal(t, float64(http.StatusAccepted), line[logging.FieldStatus])
	assert.Contains(t, line, logging.FieldDuration)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), line["request_id"])
}

func TestAccessLog_DefaultsStatusTo200(t *testing.T) {
	var buf bytes.Buffer
	logger := &logging.Logger{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) // implicit 200, WriteHeader never called
	})
	handler := server.AccessLog(logger, inner)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(http.StatusOK), line[logging.FieldStatus])
}
