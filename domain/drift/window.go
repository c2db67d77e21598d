package drift

import (
	"fmt"
	"time"

	"driftwatch/domain/core"
)

// Frequency is a calendar bucket size for rolling windows
type Frequency string

const (
	FreqNone  Frequency = ""
	FreqHour  Frequency = "hour"
	FreqDay   Frequency = "day"
	FreqWeek  Frequency = "week"
	FreqMonth Frequency = "month"
)

// ParseFrequency normalizes a frequency name. The empty string disables
// calendar bucketing.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "":
		return FreqNone, nil
	case "hour", "hourly":
		return FreqHour, nil
	case "day", "daily":
		return FreqDay, nil
	case "week", "weekly":
		return FreqWeek, nil
	case "month", "monthly":
		return FreqMonth, nil
	default:
		return FreqNone, fmt.Errorf("%w: %q", core.ErrUnknownFrequency, s)
	}
}

// Truncate returns the start of the period containing t
func (f Frequency) Truncate(t time.Time) time.Time {
	switch f {
	case FreqHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case FreqDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case FreqWeek:
		// ISO weeks start on Monday
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case FreqMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

// Next returns the start of the period after the one containing t
func (f Frequency) Next(t time.Time) time.Time {
	start := f.Truncate(t)
	switch f {
	case FreqHour:
		return start.Add(time.Hour)
	case FreqWeek:
		return start.AddDate(0, 0, 7)
	case FreqMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// WindowSpan locates one rolling window inside the source stream
type WindowSpan struct {
	Index    int            `json:"index"`
	Start    core.Timestamp `json:"start"`
	End      core.Timestamp `json:"end"`
	FirstRow int            `json:"first_row"`
	Rows     int            `json:"rows"`
}

// String renders the span for logs
func (w WindowSpan) String() string {
	if w.Start.IsZero() {
		return fmt.Sprintf("window %d (rows %d-%d)", w.Index, w.FirstRow, w.FirstRow+w.Rows-1)
	}
	return fmt.Sprintf("window %d (%s - %s, %d rows)", w.Index, w.Start, w.End, w.Rows)
}

// RollingWindowResult pairs one window with its scoring outcome
type RollingWindowResult struct {
	Window  WindowSpan     `json:"window"`
	Results DriftResultSet `json:"results"`
}
