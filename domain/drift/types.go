package drift

import (
	"fmt"
	"math"
	"sort"

	"driftwatch/domain/core"
)

// FeatureKind classifies how a feature's values are binned
type FeatureKind string

const (
	KindNumeric     FeatureKind = "numeric"
	KindCategorical FeatureKind = "categorical"
)

// BinStrategy selects how numeric bin edges are derived
type BinStrategy string

const (
	StrategyQuantile BinStrategy = "quantile"
	StrategyWidth    BinStrategy = "width"
)

// Band classifies a score into the conventional PSI interpretation ranges
type Band string

const (
	BandStable      Band = "stable"
	BandModerate    Band = "moderate"
	BandSignificant Band = "significant"
)

// Default tuning values shared across engines
const (
	DefaultBinCount       = 10
	DefaultSmoothingFloor = 1e-4
	DefaultThreshold      = 0.2

	// Band boundaries (independent of the configured drift threshold)
	ModerateScore    = 0.1
	SignificantScore = 0.2

	// ProportionTolerance bounds the allowed deviation of a proportion
	// vector's sum from 1.
	ProportionTolerance = 1e-6

	// OtherBinLabel is the categorical bucket for values unseen in the reference
	OtherBinLabel = "other"
)

// BandForScore maps a score onto its interpretation band
func BandForScore(score float64) Band {
	switch {
	case score < ModerateScore:
		return BandStable
	case score < SignificantScore:
		return BandModerate
	default:
		return BandSignificant
	}
}

// Bin is a single bucket of a reference profile
type Bin struct {
	Label      string  `json:"label"`
	Lower      float64 `json:"lower"`              // numeric bins only
	Upper      float64 `json:"upper"`              // numeric bins only
	Category   string  `json:"category,omitempty"` // categorical bins only
	Count      int     `json:"count"`              // raw reference occupancy
	Proportion float64 `json:"proportion"`         // smoothed reference share
}

// ReferenceProfile is the per-feature binning definition built from reference data.
// INVARIANTS:
// - Bins are ordered; numeric Edges are strictly increasing with len(Edges) == len(Bins)+1
// - Proportions sum to 1 within ProportionTolerance and every Proportion > 0 after smoothing
// - Immutable once built; safe to share across concurrent scoring calls
type ReferenceProfile struct {
	Feature     string           `json:"feature"`
	Kind        FeatureKind      `json:"kind"`
	Strategy    BinStrategy      `json:"strategy,omitempty"` // numeric profiles only
	Bins        []Bin            `json:"bins"`
	Edges       []float64        `json:"edges,omitempty"` // numeric profiles only
	SampleSize  int              `json:"sample_size"`
	Floor       float64          `json:"floor"`
	Fingerprint core.Fingerprint `json:"fingerprint"`
	BuiltAt     core.Timestamp   `json:"built_at"`
}

// Proportions returns the smoothed reference shares in bin order
func (p ReferenceProfile) Proportions() []float64 {
	out := make([]float64, len(p.Bins))
	for i, b := range p.Bins {
		out[i] = b.Proportion
	}
	return out
}

// Labels returns the bin labels in bin order
func (p ReferenceProfile) Labels() []string {
	out := make([]string, len(p.Bins))
	for i, b := range p.Bins {
		out[i] = b.Label
	}
	return out
}

// Categories returns the known category set of a categorical profile,
// excluding the other bucket
func (p ReferenceProfile) Categories() []string {
	if p.Kind != KindCategorical {
		return nil
	}
	out := make([]string, 0, len(p.Bins))
	for _, b := range p.Bins {
		if b.Label != OtherBinLabel {
			out = append(out, b.Category)
		}
	}
	return out
}

// Validate checks the profile invariants
func (p ReferenceProfile) Validate() error {
	if p.Feature == "" {
		return core.NewConfigurationError("feature", "profile has no feature name")
	}
	if len(p.Bins) == 0 {
		return core.NewConfigurationError("bins", "profile has no bins")
	}
	sum := 0.0
	for _, b := range p.Bins {
		if b.Proportion <= 0 {
			return fmt.Errorf("%w: bin %q has non-positive proportion %g", core.ErrDataInvalid, b.Label, b.Proportion)
		}
		sum += b.Proportion
	}
	if math.Abs(sum-1) > ProportionTolerance {
		return fmt.Errorf("%w: bin proportions sum to %g, want 1", core.ErrDataInvalid, sum)
	}
	if p.Kind == KindNumeric && len(p.Edges) > 0 && len(p.Edges) != len(p.Bins)+1 {
		return fmt.Errorf("%w: %d edges for %d bins", core.ErrDataInvalid, len(p.Edges), len(p.Bins))
	}
	return nil
}

// BinComparison is the per-bin detail of one scored feature
type BinComparison struct {
	Label        string  `json:"label"`
	Reference    float64 `json:"reference"`
	Comparison   float64 `json:"comparison"`
	Contribution float64 `json:"contribution"`
}

// DriftResult is the outcome of scoring one feature against its reference profile
type DriftResult struct {
	Feature    string          `json:"feature"`
	Method     string          `json:"method"`
	Score      float64         `json:"score"`
	Threshold  float64         `json:"threshold"`
	Drift      bool            `json:"drift"`
	Band       Band            `json:"band"`
	Missing    bool            `json:"missing,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	SampleSize int             `json:"sample_size"`
	Bins       []BinComparison `json:"bins,omitempty"`
	ScoredAt   core.Timestamp  `json:"scored_at"`
}

// NewMissingResult records a feature that could not be scored in this run
func NewMissingResult(feature, method string, threshold float64, reason string) DriftResult {
	return DriftResult{
		Feature:   feature,
		Method:    method,
		Threshold: threshold,
		Missing:   true,
		Reason:    reason,
		ScoredAt:  core.Now(),
	}
}

// String renders a compact single-line summary
func (r DriftResult) String() string {
	if r.Missing {
		return fmt.Sprintf("[%s] %s: missing (%s)", r.Method, r.Feature, r.Reason)
	}
	flag := "no"
	if r.Drift {
		flag = "YES"
	}
	return fmt.Sprintf("[%s] %s: score=%.4f threshold=%.2f drift=%s", r.Method, r.Feature, r.Score, r.Threshold, flag)
}

// DriftResultSet holds the per-feature results of one scoring call.
// Errored is set when not a single requested feature could be scored;
// the set itself stays valid so pipelines can branch on it.
type DriftResultSet struct {
	RunID     core.RunID             `json:"run_id"`
	Method    string                 `json:"method"`
	Threshold float64                `json:"threshold"`
	Results   map[string]DriftResult `json:"results"`
	Errored   bool                   `json:"errored"`
	ScoredAt  core.Timestamp         `json:"scored_at"`
}

// Features returns all feature names in the set, sorted
func (s DriftResultSet) Features() []string {
	out := make([]string, 0, len(s.Results))
	for name := range s.Results {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Scored returns the successfully scored results ordered by feature name
func (s DriftResultSet) Scored() []DriftResult {
	out := make([]DriftResult, 0, len(s.Results))
	for _, name := range s.Features() {
		if r := s.Results[name]; !r.Missing {
			out = append(out, r)
		}
	}
	return out
}

// MissingFeatures returns the features that could not be scored, sorted
func (s DriftResultSet) MissingFeatures() []string {
	var out []string
	for _, name := range s.Features() {
		if s.Results[name].Missing {
			out = append(out, name)
		}
	}
	return out
}

// Drifted returns the drifting results, highest score first
func (s DriftResultSet) Drifted() []DriftResult {
	var out []DriftResult
	for _, r := range s.TopFeatures(len(s.Results)) {
		if r.Drift {
			out = append(out, r)
		}
	}
	return out
}

// DriftCount returns how many features crossed the threshold
func (s DriftResultSet) DriftCount() int {
	n := 0
	for _, r := range s.Results {
		if !r.Missing && r.Drift {
			n++
		}
	}
	return n
}

// AnyDrift reports whether at least one feature crossed the threshold
func (s DriftResultSet) AnyDrift() bool {
	return s.DriftCount() > 0
}

// TopFeatures returns up to n scored results ordered by score descending,
// ties broken by feature name ascending for determinism
func (s DriftResultSet) TopFeatures(n int) []DriftResult {
	if n <= 0 {
		return nil
	}
	scored := s.Scored()
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Feature < scored[j].Feature
	})
	if n > len(scored) {
		n = len(scored)
	}
	return scored[:n]
}

// BandCounts tallies scored features per interpretation band
func (s DriftResultSet) BandCounts() map[Band]int {
	out := make(map[Band]int, 3)
	for _, r := range s.Results {
		if !r.Missing {
			out[r.Band]++
		}
	}
	return out
}
