package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileQueue writes failed events to a local directory, one JSON file per
// entry. It serves deployments without a NATS cluster; depth is the number
// of pending files.
type FileQueue struct {
	basePath string
	mu       sync.Mutex
	written  uint64
}

// NewFileQueue creates a DLQ that writes to the specified directory.
func NewFileQueue(basePath string) (*FileQueue, error) {
	if basePath == "" {
		basePath = "/var/lib/charger-telemetry/dlq"
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}

	return &FileQueue{basePath: basePath}, nil
}

// Publish records a failed event as a timestamped JSON file.
func (q *FileQueue) Publish(ctx context.Context, failed FailedEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	filename := fmt.Sprintf("failed_%d_%d.json", time.Now().Unix(), q.written)
	filePath := filepath.Join(q.basePath, filename)

	data, err := json.MarshalIndent(failed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("write dlq entry: %w", err)
	}

	q.written++
	slog.Info("dead-lettered event to file", slog.String("file", filename))
	return nil
}

// Depth counts pending files in the queue directory.
func (q *FileQueue) Depth(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.basePath)
	if err != nil {
		return 0, fmt.Errorf("read dlq directory: %w", err)
	}

	var depth int64
	for _, file := range files {
		if !file.IsDir() {
			depth++
		}
	}
	return depth, nil
}

// List returns up to limit failed events for inspection.
func (q *FileQueue) List(ctx context.Context, limit int) ([]FailedEvent, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.basePath)
	if err != nil {
		return nil, fmt.Errorf("read dlq directory: %w", err)
	}

	var events []FailedEvent
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if limit > 0 && len(events) >= limit {
			break
		}

		data, err := os.ReadFile(filepath.Join(q.basePath, file.Name()))
		if err != nil {
			slog.Warn("skipping unreadable dlq file",
				slog.String("file", file.Name()), slog.String("error", err.Error()))
			continue
		}

		var failed FailedEvent
		if err := json.Unmarshal(data, &failed); err != nil {
			slog.Warn("skipping unparseable dlq file",
				slog.String("file", file.Name()), slog.String("error", err.Error()))
			continue
		}
		events = append(events, failed)
	}

	return events, nil
}

// Purge removes all pending entries.
func (q *FileQueue) Purge(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.basePath)
	if err != nil {
		return fmt.Errorf("read dlq directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(q.basePath, file.Name())); err != nil {
			return fmt.Errorf("delete dlq file: %w", err)
		}
	}
	return nil
}
