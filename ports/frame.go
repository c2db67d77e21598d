package ports

import (
	"time"

	"driftwatch/domain/drift"
)

// Frame provides minimal column access over tabular data. The scoring
// core depends on this capability only, never on a concrete dataframe
// implementation.
type Frame interface {
	// Columns lists the feature names in frame order
	Columns() []string

	// Column fetches one feature's values; ok is false when absent
	Column(name string) (Column, bool)

	// NumRows returns the row count shared by all columns
	NumRows() int
}

// Column is one named feature's values with a kind hint
type Column interface {
	Name() string
	Kind() drift.FeatureKind
	Len() int

	// Floats returns the numeric view. Empty for categorical columns.
	Floats() []float64

	// Labels returns the categorical view. Empty for numeric columns.
	Labels() []string
}

// TimeFrame is a Frame whose rows carry a time index, required for
// frequency-based rolling windows. Slice keeps the index aligned so
// a window is itself a TimeFrame.
type TimeFrame interface {
	Frame

	// Times returns the per-row time index, aligned with row order
	Times() []time.Time

	// Slice returns a contiguous row-range view [first, first+rows)
	Slice(first, rows int) TimeFrame
}
