package metric

import (
	"math"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal/binning"
	"driftwatch/ports"
)

// PSI scores the Population Stability Index between a reference profile
// and a comparison column. Per bin the contribution is
// (cmp - ref) * ln(cmp / ref); the score is the sum over bins. Every
// contribution is non-negative, so the score is too, and scoring a
// profile against its own data yields exactly zero.
type PSI struct{}

// NewPSI creates the PSI metric
func NewPSI() *PSI {
	return &PSI{}
}

// Name returns the metric name
func (m *PSI) Name() string {
	return "psi"
}

// DefaultThreshold returns the conventional PSI drift cutoff
func (m *PSI) DefaultThreshold() float64 {
	return drift.DefaultThreshold
}

// Score assigns the comparison column to the profile's bins and sums
// the per-bin PSI terms
func (m *PSI) Score(profile drift.ReferenceProfile, col ports.Column, threshold float64) (drift.DriftResult, error) {
	if threshold <= 0 {
		threshold = m.DefaultThreshold()
	}
	if err := profile.Validate(); err != nil {
		return drift.DriftResult{}, err
	}

	counts, sampleSize, err := binning.CompareCounts(profile, col)
	if err != nil {
		return drift.DriftResult{}, err
	}

	ref := profile.Proportions()
	cmp := binning.Smooth(binning.Proportions(counts, sampleSize), profile.Floor)

	bins := make([]drift.BinComparison, len(ref))
	score := 0.0
	for i := range ref {
		contribution := (cmp[i] - ref[i]) * math.Log(cmp[i]/ref[i])
		score += contribution
		bins[i] = drift.BinComparison{
			Label:        profile.Bins[i].Label,
			Reference:    ref[i],
			Comparison:   cmp[i],
			Contribution: contribution,
		}
	}

	return drift.DriftResult{
		Feature:    profile.Feature,
		Method:     m.Name(),
		Score:      score,
		Threshold:  threshold,
		Drift:      score > threshold,
		Band:       drift.BandForScore(score),
		SampleSize: sampleSize,
		Bins:       bins,
		ScoredAt:   core.Now(),
	}, nil
}
