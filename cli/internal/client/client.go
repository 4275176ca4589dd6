// Package client is a thin HTTP client for the telemetry service API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotFound is returned by Latest when the device has no stored telemetry.
var ErrNotFound = errors.New("no telemetry found")

// APIError carries a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, e.Reason)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Event is the intake payload.
type Event struct {
	DeviceID  string         `json:"deviceId"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// IngestAck acknowledges an accepted event.
type IngestAck struct {
	RecordID string `json:"recordId"`
	DeviceID string `json:"deviceId"`
}

// LatestRecord is the read-side record shape.
type LatestRecord struct {
	DeviceID  string         `json:"deviceId"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Metadata  struct {
		ReceivedAt  string `json:"receivedAt"`
		ProcessedAt string `json:"processedAt"`
	} `json:"metadata"`
}

// HealthReport mirrors the service health snapshot.
type HealthReport struct {
	Status     string `json:"status"`
	Components struct {
		Store           string `json:"store"`
		DeadLetter      string `json:"deadLetter,omitempty"`
		DeadLetterDepth *int64 `json:"deadLetterDepth,omitempty"`
	} `json:"components"`
}

// Stats mirrors the service processing counters.
type Stats struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	Processed     uint64 `json:"processed"`
	Rejected      uint64 `json:"rejected"`
	Failed        uint64 `json:"failed"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Ingest posts a single event. A rejection or outage comes back as *APIError.
func (c *Client) Ingest(ctx context.Context, event Event) (*IngestAck, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/telemetry", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil, readAPIError(resp)
	}

	var ack IngestAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &ack, nil
}

// Latest fetches the most recent record for a device.
func (c *Client) Latest(ctx context.Context, deviceID string) (*LatestRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/telemetry/"+deviceID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var record LatestRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &record, nil
}

// Health fetches the aggregated health snapshot. Degraded and unhealthy
// verdicts are data, not errors.
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &report, nil
}

// Stats fetches the processing counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &stats, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	var body struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Reason = body.Reason
	}
	return apiErr
}
