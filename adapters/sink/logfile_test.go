package sink

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
)

func testEvent(feature string, score float64, severity alert.Severity) alert.Event {
	return alert.Event{
		ID:        core.NewEventID(),
		Kind:      alert.KindDrift,
		Severity:  severity,
		Feature:   feature,
		Method:    "psi",
		Score:     score,
		Threshold: 0.2,
		Message:   "drift check",
		EmittedAt: core.Now(),
	}
}

func TestLogFileAppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.jsonl")
	s, err := NewLogFile(path, "jsonl")
	if err != nil {
		t.Fatalf("NewLogFile: %v", err)
	}

	ctx := context.Background()
	if err := s.Notify(ctx, testEvent("amount", 0.31, alert.SeverityWarning)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := s.Notify(ctx, testEvent("country", 0.05, alert.SeverityInfo)); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2", len(lines))
	}

	var got alert.Event
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if got.Feature != "amount" || got.Score != 0.31 {
		t.Errorf("first line = %+v", got)
	}
}

func TestLogFileAppendsCSVWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.csv")
	s, err := NewLogFile(path, "csv")
	if err != nil {
		t.Fatalf("NewLogFile: %v", err)
	}

	ctx := context.Background()
	if err := s.Notify(ctx, testEvent("amount", 0.31, alert.SeverityWarning)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := s.Notify(ctx, testEvent("country", 0.05, alert.SeverityInfo)); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("csv has %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "emitted_at" || rows[0][4] != "feature" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][4] != "amount" || rows[2][4] != "country" {
		t.Errorf("feature cells = %s, %s", rows[1][4], rows[2][4])
	}
}

func TestLogFileDefaultsToJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	s, err := NewLogFile(path, "")
	if err != nil {
		t.Fatalf("NewLogFile: %v", err)
	}
	if err := s.Notify(context.Background(), testEvent("x", 0.1, alert.SeverityInfo)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !json.Valid([]byte(strings.TrimSpace(string(raw)))) {
		t.Errorf("default format is not JSON: %s", raw)
	}
}

func TestLogFileRejectsBadFormat(t *testing.T) {
	_, err := NewLogFile(filepath.Join(t.TempDir(), "x.log"), "xml")
	if !core.IsConfigurationError(err) {
		t.Errorf("error = %v, want a configuration error", err)
	}
}

func TestLogFileCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "alerts.jsonl")
	s, err := NewLogFile(path, "jsonl")
	if err != nil {
		t.Fatalf("NewLogFile: %v", err)
	}
	if err := s.Notify(context.Background(), testEvent("x", 0.1, alert.SeverityInfo)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
