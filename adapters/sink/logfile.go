package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
)

// LogFile appends alert events to a local file, one event per line.
// Formats are "jsonl" and "csv"; csv files get a header when empty.
type LogFile struct {
	path   string
	format string

	mu sync.Mutex
}

var csvHeader = []string{
	"emitted_at", "id", "kind", "severity", "feature", "method",
	"score", "threshold", "sample_size", "message",
}

// NewLogFile creates the sink and the file's parent directory
func NewLogFile(path, format string) (*LogFile, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: log file path required", core.ErrConfiguration)
	}
	if format == "" {
		format = "jsonl"
	}
	if format != "jsonl" && format != "csv" {
		return nil, fmt.Errorf("%w: log format %q", core.ErrConfiguration, format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	return &LogFile{path: path, format: format}, nil
}

// Name identifies the sink in dispatch logs
func (s *LogFile) Name() string { return "logfile" }

// Notify appends one event
func (s *LogFile) Notify(ctx context.Context, event alert.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer file.Close()

	if s.format == "csv" {
		return s.appendCSV(file, event)
	}
	return s.appendJSON(file, event)
}

func (s *LogFile) appendJSON(file *os.File, event alert.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *LogFile) appendCSV(file *os.File, event alert.Event) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat alert log: %w", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	row := []string{
		event.EmittedAt.String(),
		event.ID.String(),
		string(event.Kind),
		string(event.Severity),
		event.Feature,
		event.Method,
		strconv.FormatFloat(event.Score, 'f', -1, 64),
		strconv.FormatFloat(event.Threshold, 'f', -1, 64),
		strconv.Itoa(event.SampleSize),
		event.Message,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	w.Flush()
	return w.Error()
}
