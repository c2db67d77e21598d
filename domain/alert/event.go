package alert

import (
	"fmt"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
)

// Kind is the category of an alert event
type Kind string

const (
	KindDrift   Kind = "drift-detected"
	KindNoDrift Kind = "no-drift"
	KindSystem  Kind = "system"
)

// Severity orders events by urgency
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Rank returns a comparable urgency level
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Summary statuses for a scored batch
const (
	StatusAllClear       = "ALL CLEAR"
	StatusPartialDrift   = "PARTIAL DRIFT"
	StatusMultipleDrifts = "MULTIPLE DRIFTS"
)

// SummaryStatus characterizes a batch by how many of its features drifted
func SummaryStatus(drifted, total int) string {
	switch {
	case drifted == 0:
		return StatusAllClear
	case total > 0 && drifted*2 >= total:
		return StatusMultipleDrifts
	default:
		return StatusPartialDrift
	}
}

// Event is the structured payload handed to sinks. Ephemeral; the core
// never persists it.
type Event struct {
	ID         core.EventID      `json:"id"`
	Kind       Kind              `json:"kind"`
	Severity   Severity          `json:"severity"`
	Feature    string            `json:"feature,omitempty"`
	Method     string            `json:"method,omitempty"`
	Score      float64           `json:"score"`
	Threshold  float64           `json:"threshold"`
	SampleSize int               `json:"sample_size,omitempty"`
	Message    string            `json:"message"`
	Context    map[string]string `json:"context,omitempty"`
	EmittedAt  core.Timestamp    `json:"emitted_at"`
}

// NewResultEvent builds the event for a single scored feature.
// A drifting feature raises a warning; a quiet one reports info.
func NewResultEvent(r drift.DriftResult, context map[string]string) Event {
	ev := Event{
		ID:         core.NewEventID(),
		Kind:       KindNoDrift,
		Severity:   SeverityInfo,
		Feature:    r.Feature,
		Method:     r.Method,
		Score:      r.Score,
		Threshold:  r.Threshold,
		SampleSize: r.SampleSize,
		Message:    r.String(),
		Context:    context,
		EmittedAt:  core.Now(),
	}
	if r.Drift {
		ev.Kind = KindDrift
		ev.Severity = SeverityWarning
	}
	return ev
}

// NewSummaryEvent builds the batch-level event for a result set.
// More drifting features than multiDrift escalates to error; a single
// drifting feature stays a warning; a clean batch reports info.
func NewSummaryEvent(set drift.DriftResultSet, multiDrift int, context map[string]string) Event {
	drifted := set.DriftCount()
	total := len(set.Scored())

	ev := Event{
		ID:        core.NewEventID(),
		Kind:      KindNoDrift,
		Severity:  SeverityInfo,
		Method:    set.Method,
		Threshold: set.Threshold,
		Message:   fmt.Sprintf("%s: %d of %d features drifting", SummaryStatus(drifted, total), drifted, total),
		Context:   context,
		EmittedAt: core.Now(),
	}
	if drifted > 0 {
		ev.Kind = KindDrift
		ev.Severity = SeverityWarning
		if multiDrift > 0 && drifted > multiDrift {
			ev.Severity = SeverityError
		}
	}
	return ev
}

// NewSystemEvent reports an internal failure of the monitoring machinery itself
func NewSystemEvent(message string, context map[string]string) Event {
	return Event{
		ID:        core.NewEventID(),
		Kind:      KindSystem,
		Severity:  SeverityCritical,
		Message:   message,
		Context:   context,
		EmittedAt: core.Now(),
	}
}
