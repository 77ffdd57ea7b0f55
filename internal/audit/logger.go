// Package audit provides an append-only JSON event log. Logging is
// best-effort and never fails the caller.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event is one audit record.
type Event struct {
	Timestamp     string         `json:"timestamp"`
	PipelineRunID string         `json:"pipeline_run_id,omitempty"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
}

// Logger appends events to a single JSON array file.
type Logger struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewLogger creates a logger writing to path (e.g. data/audit_log.json).
func NewLogger(path string) *Logger {
	return &Logger{path: path, now: time.Now}
}

// LogEvent appends an event. It returns true on success and false on
// failure; it never panics or returns an error.
func (l *Logger) LogEvent(eventType string, payload map[string]any, runID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.readAll()
	events = append(events, Event{
		Timestamp:     l.now().UTC().Format(time.RFC3339),
		PipelineRunID: runID,
		EventType:     eventType,
		Payload:       payload,
	})

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false
	}
	return os.Rename(tmp, l.path) == nil
}

// Snapshot returns the raw log contents, or "[]" when the log is empty
// or unreadable.
func (l *Logger) Snapshot() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil || len(data) == 0 {
		return []byte("[]")
	}
	return data
}

// readAll loads existing events, treating a corrupt or missing file as
// an empty log.
func (l *Logger) readAll() []Event {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil
	}
	return events
}
