package metric

import (
	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal/binning"
	"driftwatch/ports"

	"gonum.org/v1/gonum/stat"
)

// KSDefaultThreshold is the drift cutoff for the Kolmogorov-Smirnov
// statistic. KS is bounded by 1 and far more sensitive than PSI, so the
// cutoff sits lower.
const KSDefaultThreshold = 0.1

// KS scores the Kolmogorov-Smirnov statistic between the binned
// reference distribution and the comparison column. Both sides are
// reduced to the profile's bins first, so the statistic is the largest
// gap between the two binned CDFs rather than the raw empirical ones.
type KS struct{}

// NewKS creates the KS metric
func NewKS() *KS {
	return &KS{}
}

// Name returns the metric name
func (m *KS) Name() string {
	return "ks"
}

// DefaultThreshold returns the KS drift cutoff
func (m *KS) DefaultThreshold() float64 {
	return KSDefaultThreshold
}

// Score assigns the comparison column to the profile's bins and
// computes the weighted KS distance between the binned distributions
func (m *KS) Score(profile drift.ReferenceProfile, col ports.Column, threshold float64) (drift.DriftResult, error) {
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
	locs := binLocations(profile)

	score := stat.KolmogorovSmirnov(locs, ref, locs, cmp)

	bins := make([]drift.BinComparison, len(ref))
	for i := range ref {
		bins[i] = drift.BinComparison{
			Label:      profile.Bins[i].Label,
			Reference:  ref[i],
			Comparison: cmp[i],
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

// binLocations places each bin on the number line. Numeric bins use
// their midpoints; categorical bins use their ordinal position, which
// keeps the vector strictly increasing as KolmogorovSmirnov requires.
func binLocations(profile drift.ReferenceProfile) []float64 {
	locs := make([]float64, len(profile.Bins))
	if profile.Kind == drift.KindNumeric {
		for i, b := range profile.Bins {
			locs[i] = (b.Lower + b.Upper) / 2
		}
		return locs
	}
	for i := range profile.Bins {
		locs[i] = float64(i)
	}
	return locs
}
