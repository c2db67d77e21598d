package sink

import (
	"context"
	"errors"
	"testing"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
)

func TestCaptureRecordsEvents(t *testing.T) {
	s := NewCapture()
	ctx := context.Background()

	if err := s.Notify(ctx, testEvent("amount", 0.3, alert.SeverityWarning)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := s.Notify(ctx, testEvent("country", 0.1, alert.SeverityInfo)); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	events := s.Events()
	if events[0].Feature != "amount" || events[1].Feature != "country" {
		t.Errorf("events out of order: %v", events)
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() after Reset = %d", s.Len())
	}
}

func TestCaptureForcedFailure(t *testing.T) {
	s := NewCapture()
	boom := errors.New("sink exploded")
	s.FailWith(boom)

	err := s.Notify(context.Background(), testEvent("x", 0.1, alert.SeverityInfo))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want the forced failure", err)
	}
	if s.Len() != 0 {
		t.Errorf("failed delivery was recorded")
	}

	s.FailWith(nil)
	if err := s.Notify(context.Background(), testEvent("x", 0.1, alert.SeverityInfo)); err != nil {
		t.Errorf("Notify after clearing failure: %v", err)
	}
}

func TestFuncSinkDelegates(t *testing.T) {
	var got alert.Event
	s, err := NewFunc("observer", func(ctx context.Context, event alert.Event) error {
		got = event
		return nil
	})
	if err != nil {
		t.Fatalf("NewFunc: %v", err)
	}
	if s.Name() != "observer" {
		t.Errorf("Name() = %s", s.Name())
	}

	event := testEvent("amount", 0.3, alert.SeverityWarning)
	if err := s.Notify(context.Background(), event); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.Feature != "amount" {
		t.Errorf("callback saw %+v", got)
	}
}

func TestFuncSinkRejectsNilCallback(t *testing.T) {
	_, err := NewFunc("x", nil)
	if !core.IsConfigurationError(err) {
		t.Errorf("error = %v, want a configuration error", err)
	}
}
