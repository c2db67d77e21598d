package app

import (
	"context"
	"iter"
	"strconv"
	"sync"
	"time"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal"
	"driftwatch/internal/window"
	"driftwatch/ports"
)

// MonitorState is the phase the rolling monitor is in. Runs are
// synchronous; the state walks WINDOWING, SCORING, AGGREGATING inside
// one Run call and settles back on IDLE.
type MonitorState string

const (
	StateIdle        MonitorState = "IDLE"
	StateWindowing   MonitorState = "WINDOWING"
	StateScoring     MonitorState = "SCORING"
	StateAggregating MonitorState = "AGGREGATING"
)

// MonitorService replays an observation stream window by window
// against the check engine, dispatching alerts per window and
// aggregating a recap at the end.
type MonitorService struct {
	checker    *DriftCheckService
	dispatcher *DispatchService
	recapper   *RecapService
	history    ports.DriftHistory
	logger     *internal.Logger

	windowSize int
	frequency  drift.Frequency
	refresh    bool
	multiDrift int

	runMu   sync.Mutex
	stateMu sync.RWMutex
	state   MonitorState
}

// MonitorOptions tunes the windowing and alerting behavior
type MonitorOptions struct {
	// Window is the row count per window. With a Frequency set it
	// instead caps each calendar bucket to its trailing rows; zero
	// leaves buckets uncapped.
	Window int

	// Frequency switches from row-count windows to calendar buckets
	Frequency drift.Frequency

	// RefreshReference rebuilds the reference from each scored window,
	// so every window is compared against the one before it. Off by
	// default: all windows score against the fixed initial reference.
	RefreshReference bool

	// MultiDrift is the drifting-feature count above which batch
	// summaries escalate to error severity
	MultiDrift int
}

// DefaultMonitorOptions returns the standard tuning
func DefaultMonitorOptions() MonitorOptions {
	return MonitorOptions{Window: 50, MultiDrift: 1}
}

// MonitorRun is the complete outcome of one rolling pass
type MonitorRun struct {
	RunID     core.RunID                  `json:"run_id"`
	Windows   []drift.RollingWindowResult `json:"windows"`
	Recap     *drift.Recap                `json:"recap,omitempty"`
	Events    []alert.Event               `json:"events,omitempty"`
	RuntimeMs int64                       `json:"runtime_ms"`
	Success   bool                        `json:"success"`
}

// NewMonitorService creates the rolling monitor
func NewMonitorService(checker *DriftCheckService, dispatcher *DispatchService, opts MonitorOptions) (*MonitorService, error) {
	if checker == nil {
		return nil, core.NewConfigurationError("checker", "no check engine given")
	}
	if dispatcher == nil {
		return nil, core.NewConfigurationError("dispatcher", "no dispatcher given")
	}
	if opts.Window < 0 {
		return nil, core.NewConfigurationError("window", "window size cannot be negative")
	}
	if opts.Window == 0 && opts.Frequency == drift.FreqNone {
		return nil, core.NewConfigurationError("window", "either a window size or a frequency is required")
	}
	multiDrift := opts.MultiDrift
	if multiDrift < 1 {
		multiDrift = 1
	}
	return &MonitorService{
		checker:    checker,
		dispatcher: dispatcher,
		recapper:   NewRecapService(),
		logger:     internal.NewDefaultLogger(),
		windowSize: opts.Window,
		frequency:  opts.Frequency,
		refresh:    opts.RefreshReference,
		multiDrift: multiDrift,
		state:      StateIdle,
	}, nil
}

// WithHistory attaches an optional persistence backend. Save failures
// are logged and never interrupt a run.
func (s *MonitorService) WithHistory(history ports.DriftHistory) *MonitorService {
	s.history = history
	return s
}

// State reports the monitor's current phase
func (s *MonitorService) State() MonitorState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *MonitorService) setState(state MonitorState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
	s.logger.Debug("Monitor state: %s", state)
}

// Windows exposes the lazy window sequence for the frame under the
// monitor's configuration. Each range over the sequence replays the
// windows from the start.
func (s *MonitorService) Windows(frame ports.Frame) (iter.Seq2[drift.WindowSpan, ports.Frame], error) {
	spans, err := s.partition(frame)
	if err != nil {
		return nil, err
	}
	return window.Iter(frame, spans), nil
}

// Run scores the whole stream window by window. Alerts go out after
// each window; the recap aggregates across all of them. Concurrent
// calls serialize.
func (s *MonitorService) Run(ctx context.Context, frame ports.Frame) (*MonitorRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.checker.HasReference() {
		return nil, core.NewConfigurationError("reference", "no reference profiles built")
	}

	start := time.Now()
	defer s.setState(StateIdle)

	s.setState(StateWindowing)
	spans, err := s.partition(frame)
	if err != nil {
		return nil, err
	}

	runID := core.NewRunID()
	s.logger.Info("Monitor run %s: %d windows over %d rows", runID, len(spans), frame.NumRows())

	s.setState(StateScoring)
	run := &MonitorRun{RunID: runID, Success: true}
	for span, winFrame := range window.Iter(frame, spans) {
		set, err := s.checker.Check(ctx, winFrame)
		if err != nil {
			return nil, err
		}
		if set.Errored {
			run.Success = false
		}

		result := drift.RollingWindowResult{Window: span, Results: *set}
		run.Windows = append(run.Windows, result)

		events := s.dispatcher.DispatchResultSet(ctx, *set, s.multiDrift, map[string]string{
			"run_id": runID.String(),
			"window": strconv.Itoa(span.Index),
		})
		run.Events = append(run.Events, events...)

		if s.history != nil {
			if err := s.history.SaveWindow(ctx, runID, result); err != nil {
				s.logger.Error("Persist window %d of run %s: %v", span.Index, runID, err)
			}
		}

		if s.refresh {
			s.checker.RefreshReference(ctx, winFrame)
		}
	}

	s.setState(StateAggregating)
	recap, err := s.recapper.BuildRecap(runID, run.Windows)
	if err != nil {
		s.logger.Error("Recap for run %s: %v", runID, err)
	} else {
		run.Recap = recap
	}

	run.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Info("Monitor run %s finished: %d windows, %d events, %dms",
		runID, len(run.Windows), len(run.Events), run.RuntimeMs)
	return run, nil
}

// partition derives the window spans for the frame under the current
// configuration
func (s *MonitorService) partition(frame ports.Frame) ([]drift.WindowSpan, error) {
	if s.frequency != drift.FreqNone {
		tf, ok := frame.(ports.TimeFrame)
		if !ok || len(tf.Times()) == 0 {
			return nil, core.NewConfigurationError("frequency", "calendar windows need a time-indexed frame")
		}
		spans, err := window.ByFrequency(tf, s.frequency)
		if err != nil {
			return nil, err
		}
		return window.CapTrailing(spans, s.windowSize), nil
	}
	return window.ByCount(frame, s.windowSize)
}
