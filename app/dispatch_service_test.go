package app

import (
	"context"
	"errors"
	"testing"

	"driftwatch/adapters/sink"
	"driftwatch/domain/alert"
	"driftwatch/domain/core"
	"driftwatch/domain/drift"
)

func resultSet(results ...drift.DriftResult) drift.DriftResultSet {
	set := drift.DriftResultSet{
		RunID:     core.NewRunID(),
		Method:    "psi",
		Threshold: 0.2,
		Results:   make(map[string]drift.DriftResult),
		ScoredAt:  core.Now(),
	}
	for _, r := range results {
		set.Results[r.Feature] = r
	}
	return set
}

func scoredResult(feature string, score float64) drift.DriftResult {
	return drift.DriftResult{
		Feature:   feature,
		Method:    "psi",
		Score:     score,
		Threshold: 0.2,
		Drift:     score > 0.2,
		Band:      drift.BandForScore(score),
		ScoredAt:  core.Now(),
	}
}

func TestFailingSinkDoesNotBlockOthers(t *testing.T) {
	broken := sink.NewCapture()
	broken.FailWith(errors.New("webhook down"))
	working := sink.NewCapture()

	svc := NewDispatchService(broken, working)
	event := alert.NewSystemEvent("probe", nil)

	delivered := svc.Dispatch(context.Background(), event)
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if working.Len() != 1 {
		t.Errorf("working sink got %d events, want 1", working.Len())
	}
	if broken.Len() != 0 {
		t.Errorf("broken sink recorded %d events", broken.Len())
	}
}

func TestPanickingSinkIsolated(t *testing.T) {
	bomb, err := sink.NewFunc("bomb", func(ctx context.Context, event alert.Event) error {
		panic("sink blew up")
	})
	if err != nil {
		t.Fatalf("NewFunc: %v", err)
	}
	working := sink.NewCapture()

	svc := NewDispatchService(bomb, working)
	delivered := svc.Dispatch(context.Background(), alert.NewSystemEvent("probe", nil))

	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
	if working.Len() != 1 {
		t.Errorf("working sink got %d events, want 1", working.Len())
	}
}

func TestDispatchResultSetDriftingBatch(t *testing.T) {
	capture := sink.NewCapture()
	svc := NewDispatchService(capture)

	set := resultSet(
		scoredResult("amount", 0.45),
		scoredResult("country", 0.31),
		scoredResult("latency", 0.05),
	)
	events := svc.DispatchResultSet(context.Background(), set, 1, map[string]string{"source": "test"})

	if len(events) != 3 {
		t.Fatalf("got %d events, want 2 drift + 1 summary", len(events))
	}

	var driftEvents, summaries int
	for _, ev := range capture.Events() {
		switch {
		case ev.Feature != "":
			driftEvents++
			if ev.Kind != alert.KindDrift || ev.Severity != alert.SeverityWarning {
				t.Errorf("feature event = %s/%s, want drift-detected/warning", ev.Kind, ev.Severity)
			}
		default:
			summaries++
			if ev.Severity != alert.SeverityError {
				t.Errorf("summary severity = %s, want error for 2 drifting features", ev.Severity)
			}
			if ev.Context["source"] != "test" {
				t.Errorf("summary context = %v", ev.Context)
			}
		}
	}
	if driftEvents != 2 || summaries != 1 {
		t.Errorf("got %d drift events and %d summaries", driftEvents, summaries)
	}
}

func TestDispatchResultSetSingleDriftStaysWarning(t *testing.T) {
	capture := sink.NewCapture()
	svc := NewDispatchService(capture)

	set := resultSet(scoredResult("amount", 0.31), scoredResult("country", 0.02))
	svc.DispatchResultSet(context.Background(), set, 1, nil)

	events := capture.Events()
	summary := events[len(events)-1]
	if summary.Severity != alert.SeverityWarning {
		t.Errorf("summary severity = %s, want warning for a single drifting feature", summary.Severity)
	}
}

func TestDispatchResultSetCleanBatch(t *testing.T) {
	capture := sink.NewCapture()
	svc := NewDispatchService(capture)

	set := resultSet(scoredResult("amount", 0.03), scoredResult("country", 0.01))
	events := svc.DispatchResultSet(context.Background(), set, 1, nil)

	if len(events) != 1 {
		t.Fatalf("got %d events, want just the summary", len(events))
	}
	summary := events[0]
	if summary.Kind != alert.KindNoDrift || summary.Severity != alert.SeverityInfo {
		t.Errorf("summary = %s/%s, want no-drift/info", summary.Kind, summary.Severity)
	}
}

func TestDispatchResultSetErroredBatch(t *testing.T) {
	capture := sink.NewCapture()
	svc := NewDispatchService(capture)

	set := resultSet(drift.NewMissingResult("amount", "psi", 0.2, "feature missing"))
	set.Errored = true
	events := svc.DispatchResultSet(context.Background(), set, 1, nil)

	if len(events) != 1 {
		t.Fatalf("got %d events, want one system event", len(events))
	}
	if events[0].Kind != alert.KindSystem || events[0].Severity != alert.SeverityCritical {
		t.Errorf("event = %s/%s, want system/critical", events[0].Kind, events[0].Severity)
	}
}

func TestRegisterAddsSinks(t *testing.T) {
	svc := NewDispatchService()
	svc.Register(sink.NewCapture())
	svc.Register(nil)

	if names := svc.SinkNames(); len(names) != 1 || names[0] != "capture" {
		t.Errorf("SinkNames() = %v, want [capture]", names)
	}
}
