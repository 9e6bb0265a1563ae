package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MetricsExporter receives metric snapshots flushed by a collector.
type MetricsExporter interface {
	Export(snapshot MetricsSnapshot) error
	Close() error
}

// MetricsSnapshot is one flushed metrics record. Event names the occasion
// for the flush, such as agent.closed.
type MetricsSnapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Event     string                 `json:"event"`
	Metrics   map[string]interface{} `json:"metrics"`
	Labels    map[string]string      `json:"labels,omitempty"`
}

// JSONFileExporter appends snapshots to a file, one JSON object per line,
// so the history stays greppable and tail-able.
type JSONFileExporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONFileExporter opens the path for appending, creating parent
// directories as needed.
func NewJSONFileExporter(path string) (*JSONFileExporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	return &JSONFileExporter{file: f, enc: json.NewEncoder(f)}, nil
}

// Export appends one snapshot line.
func (e *JSONFileExporter) Export(snapshot MetricsSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return fmt.Errorf("exporter is closed")
	}
	return e.enc.Encode(snapshot)
}

// Close syncs and closes the file. Further Exports fail.
func (e *JSONFileExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil
	}
	f := e.file
	e.file = nil
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
