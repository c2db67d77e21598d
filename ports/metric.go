package ports

import (
	"driftwatch/domain/drift"
)

// DriftMetric scores one feature's comparison column against its
// reference profile. Implementations register by name and are
// interchangeable inside the check engine; adding a metric never
// requires touching the engine itself.
type DriftMetric interface {
	// Name identifies the metric in results and registries (e.g. "psi")
	Name() string

	// DefaultThreshold is the drift cutoff used when the caller does
	// not configure one
	DefaultThreshold() float64

	// Score produces the complete per-feature result. A non-positive
	// threshold selects the metric's default. Scoring is deterministic
	// for identical inputs.
	Score(profile drift.ReferenceProfile, col Column, threshold float64) (drift.DriftResult, error)
}
