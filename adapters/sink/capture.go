package sink

import (
	"context"
	"sync"

	"driftwatch/domain/alert"
)

// Capture keeps delivered events in memory. Used by tests and by the
// CLI to collect a run's events for rendering.
type Capture struct {
	mu     sync.Mutex
	events []alert.Event
	fail   error
}

// NewCapture creates an empty capture sink
func NewCapture() *Capture {
	return &Capture{}
}

// Name identifies the sink in dispatch logs
func (s *Capture) Name() string { return "capture" }

// FailWith makes every following Notify return err. Passing nil
// restores normal delivery.
func (s *Capture) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Notify records the event
func (s *Capture) Notify(ctx context.Context, event alert.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything delivered so far
func (s *Capture) Events() []alert.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]alert.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len reports how many events were delivered
func (s *Capture) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Reset drops recorded events
func (s *Capture) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
