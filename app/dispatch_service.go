package app

import (
	"context"
	"fmt"
	"sync"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal"
	"driftwatch/ports"
)

// DispatchService fans alert events out to registered sinks. A sink
// failure, error or panic, is logged and never propagated; one broken
// sink cannot stop delivery to the others or fail the scoring run.
type DispatchService struct {
	logger *internal.Logger

	mu    sync.RWMutex
	sinks []ports.AlertSink
}

// NewDispatchService creates the dispatcher with an initial sink list
func NewDispatchService(sinks ...ports.AlertSink) *DispatchService {
	return &DispatchService{
		logger: internal.NewDefaultLogger(),
		sinks:  sinks,
	}
}

// Register adds a sink
func (s *DispatchService) Register(sink ports.AlertSink) {
	if sink == nil {
		return
	}
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// SinkNames lists the registered sinks in registration order
func (s *DispatchService) SinkNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.sinks))
	for i, sink := range s.sinks {
		names[i] = sink.Name()
	}
	return names
}

// Dispatch delivers one event to every sink and returns how many
// deliveries succeeded
func (s *DispatchService) Dispatch(ctx context.Context, event alert.Event) int {
	s.mu.RLock()
	sinks := make([]ports.AlertSink, len(s.sinks))
	copy(sinks, s.sinks)
	s.mu.RUnlock()

	delivered := 0
	for _, sink := range sinks {
		if err := s.notify(ctx, sink, event); err != nil {
			s.logger.Error("%v", core.NewSinkDeliveryError(sink.Name(), err))
			continue
		}
		delivered++
	}
	s.logger.Debug("Event %s (%s/%s) delivered to %d/%d sinks",
		event.ID, event.Kind, event.Severity, delivered, len(sinks))
	return delivered
}

// notify shields the dispatcher from a panicking sink
func (s *DispatchService) notify(ctx context.Context, sink ports.AlertSink, event alert.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in sink: %v", r)
		}
	}()
	return sink.Notify(ctx, event)
}

// DispatchResultSet turns one scoring outcome into events and delivers
// them: one event per drifting feature, then a batch summary. A set
// where nothing could be scored reports a system event instead.
// multiDrift is the drifting-feature count above which the summary
// escalates to error severity.
func (s *DispatchService) DispatchResultSet(ctx context.Context, set drift.DriftResultSet, multiDrift int, eventContext map[string]string) []alert.Event {
	if set.Errored {
		ev := alert.NewSystemEvent(
			fmt.Sprintf("run %s: no features could be scored (%d missing)", set.RunID, len(set.MissingFeatures())),
			eventContext)
		s.Dispatch(ctx, ev)
		return []alert.Event{ev}
	}

	var events []alert.Event
	for _, r := range set.Drifted() {
		ev := alert.NewResultEvent(r, eventContext)
		s.Dispatch(ctx, ev)
		events = append(events, ev)
	}

	summary := alert.NewSummaryEvent(set, multiDrift, eventContext)
	s.Dispatch(ctx, summary)
	events = append(events, summary)
	return events
}
