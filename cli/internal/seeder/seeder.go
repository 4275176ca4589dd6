// Package seeder generates realistic charger telemetry for demos and load
// checks and pushes it through the public intake API.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/gridhawk-systems/charger-telemetry/cli/internal/client"
	"github.com/gridhawk-systems/charger-telemetry/internal/models"
)

// Options controls how much telemetry gets generated and over what window.
type Options struct {
	Devices         int
	EventsPerDevice int
	Window          time.Duration
}

// Generator produces device identities and event payloads.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
}

// NewGeneratorWithClock pins the reference time, used by tests.
func NewGeneratorWithClock(seed int64, now func() time.Time) *Generator {
	g := NewGenerator(seed)
	g.now = now
	return g
}

// DeviceID returns a charger identifier such as "evc-ktzw-0841". The shape
// stays within the identifier alphabet the intake validator accepts.
func (g *Generator) DeviceID() string {
	return fmt.Sprintf("evc-%s-%04d",
		strings.ToLower(g.faker.LetterN(4)),
		g.faker.Number(0, 9999),
	)
}

// Events builds count events for one device, spread backwards from now over
// the window with jitter so devices do not report in lockstep. Timestamps
// never land in the future, so generated events always clear skew checks.
func (g *Generator) Events(deviceID string, count int, window time.Duration) []client.Event {
	now := g.now().UTC()
	events := make([]client.Event, 0, count)
	for i := 0; i < count; i++ {
		baseInterval := float64(window) / float64(count)
		baseOffset := time.Duration(float64(i) * baseInterval)

		// Jitter of up to ±40% of the base interval, clamped to the window.
		jitterRange := int(baseInterval * 0.4)
		var jitter time.Duration
		if jitterRange > 0 {
			jitter = time.Duration(g.faker.Number(-jitterRange, jitterRange))
		}

		offset := baseOffset + jitter
		if offset < 0 {
			offset = 0
		}
		if offset > window {
			offset = window
		}

		events = append(events, client.Event{
			DeviceID:  deviceID,
			Timestamp: models.FormatInstant(now.Add(-(window - offset))),
			Data:      g.payload(),
		})
	}
	return events
}

func (g *Generator) payload() map[string]any {
	status := g.faker.RandomString([]string{"charging", "idle", "finishing", "fault"})
	data := map[string]any{
		"status":        status,
		"voltage":       roundTenth(g.faker.Float64Range(218, 242)),
		"temperatureC":  roundTenth(g.faker.Float64Range(15, 55)),
		"stateOfCharge": g.faker.Number(5, 100),
	}
	if status == "charging" || status == "finishing" {
		data["currentAmps"] = roundTenth(g.faker.Float64Range(6, 32))
		data["sessionId"] = g.faker.UUID()
	}
	return data
}

func roundTenth(f float64) float64 {
	return float64(int(f*10)) / 10
}

// Summary reports the outcome of a seeding run.
type Summary struct {
	Sent     int
	Rejected int
	Failed   int
}

// Runner drives a Generator through the intake client.
type Runner struct {
	client *client.Client
	gen    *Generator
}

func NewRunner(c *client.Client, g *Generator) *Runner {
	return &Runner{client: c, gen: g}
}

// Run generates and sends the configured volume. Per-event rejections and
// transport failures are counted, not fatal; only context cancellation stops
// the run early.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary
	for d := 0; d < opts.Devices; d++ {
		deviceID := r.gen.DeviceID()
		for _, event := range r.gen.Events(deviceID, opts.EventsPerDevice, opts.Window) {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			_, err := r.client.Ingest(ctx, event)
			switch {
			case err == nil:
				summary.Sent++
			case isRejection(err):
				summary.Rejected++
			default:
				summary.Failed++
			}
		}
	}
	return summary, nil
}

func isRejection(err error) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 400
}
