package binning

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/ports"
)

// Options control reference profile construction
type Options struct {
	Bins     int
	Strategy drift.BinStrategy
	Floor    float64
}

// DefaultOptions returns the standard binning configuration
func DefaultOptions() Options {
	return Options{
		Bins:     drift.DefaultBinCount,
		Strategy: drift.StrategyQuantile,
		Floor:    drift.DefaultSmoothingFloor,
	}
}

// Validate checks the options before any data is touched
func (o Options) Validate() error {
	if o.Bins < 2 {
		return fmt.Errorf("%w: got %d", core.ErrBadBinCount, o.Bins)
	}
	if o.Floor <= 0 || o.Floor >= 1 {
		return core.NewConfigurationError("floor", fmt.Sprintf("smoothing floor %g outside (0, 1)", o.Floor))
	}
	switch o.Strategy {
	case drift.StrategyQuantile, drift.StrategyWidth:
	default:
		return core.NewConfigurationError("strategy", fmt.Sprintf("unknown bin strategy %q", o.Strategy))
	}
	return nil
}

// BuildProfile constructs the reference profile for one column. The
// profile is immutable once returned and safe to share across
// concurrent scoring calls.
func BuildProfile(col ports.Column, opts Options) (drift.ReferenceProfile, error) {
	if err := opts.Validate(); err != nil {
		return drift.ReferenceProfile{}, err
	}
	if col.Kind() == drift.KindCategorical {
		return buildCategorical(col, opts)
	}
	return buildNumeric(col, opts)
}

func buildNumeric(col ports.Column, opts Options) (drift.ReferenceProfile, error) {
	values := UsableFloats(col.Floats())
	if len(values) == 0 {
		return drift.ReferenceProfile{}, fmt.Errorf("%w: feature %s", core.ErrEmptyReference, col.Name())
	}
	sort.Float64s(values)

	distinct := distinctSorted(values)
	var edges []float64
	uniqueBins := false
	switch {
	case len(distinct) <= opts.Bins:
		// Too few distinct values for the requested bin count:
		// collapse to one bin per distinct value
		edges = uniqueValueEdges(distinct)
		uniqueBins = true
	case opts.Strategy == drift.StrategyWidth:
		edges = widthEdges(values[0], values[len(values)-1], opts.Bins)
	default:
		edges = quantileEdges(values, opts.Bins)
	}

	counts := countByEdges(edges, values)
	props := Smooth(Proportions(counts, len(values)), opts.Floor)

	bins := make([]drift.Bin, len(counts))
	for i := range bins {
		label := intervalLabel(edges, i)
		if uniqueBins {
			label = formatEdge(distinct[i])
		}
		bins[i] = drift.Bin{
			Label:      label,
			Lower:      edges[i],
			Upper:      edges[i+1],
			Count:      counts[i],
			Proportion: props[i],
		}
	}

	profile := drift.ReferenceProfile{
		Feature:     col.Name(),
		Kind:        drift.KindNumeric,
		Strategy:    opts.Strategy,
		Bins:        bins,
		Edges:       edges,
		SampleSize:  len(values),
		Floor:       opts.Floor,
		Fingerprint: core.ComputeFingerprint(col.Name(), string(drift.KindNumeric), edges, nil),
		BuiltAt:     core.Now(),
	}
	return profile, profile.Validate()
}

func buildCategorical(col ports.Column, opts Options) (drift.ReferenceProfile, error) {
	labels := col.Labels()
	if len(labels) == 0 {
		return drift.ReferenceProfile{}, fmt.Errorf("%w: feature %s", core.ErrEmptyReference, col.Name())
	}

	counts := make(map[string]int, 16)
	for _, l := range labels {
		counts[l]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	// One bin per known category plus the catch-all for values the
	// reference never saw
	raw := make([]int, len(categories)+1)
	for i, c := range categories {
		raw[i] = counts[c]
	}
	props := Smooth(Proportions(raw, len(labels)), opts.Floor)

	bins := make([]drift.Bin, len(raw))
	for i, c := range categories {
		bins[i] = drift.Bin{Label: c, Category: c, Count: raw[i], Proportion: props[i]}
	}
	bins[len(categories)] = drift.Bin{Label: drift.OtherBinLabel, Proportion: props[len(categories)]}

	profile := drift.ReferenceProfile{
		Feature:     col.Name(),
		Kind:        drift.KindCategorical,
		Bins:        bins,
		SampleSize:  len(labels),
		Floor:       opts.Floor,
		Fingerprint: core.ComputeFingerprint(col.Name(), string(drift.KindCategorical), nil, categories),
		BuiltAt:     core.Now(),
	}
	return profile, profile.Validate()
}

// CompareCounts assigns comparison values to an existing profile's bins.
// Numeric values outside the reference range clamp into the first or
// last bin; categorical values unseen in the reference land in the
// other bucket. Returns the per-bin counts and the usable sample size.
func CompareCounts(profile drift.ReferenceProfile, col ports.Column) ([]int, int, error) {
	if profile.Kind == drift.KindCategorical {
		labels := col.Labels()
		if len(labels) == 0 {
			return nil, 0, fmt.Errorf("%w: feature %s has no categorical values", core.ErrDataInvalid, profile.Feature)
		}
		index := make(map[string]int, len(profile.Bins))
		other := len(profile.Bins) - 1
		for i, b := range profile.Bins {
			if b.Label != drift.OtherBinLabel {
				index[b.Category] = i
			}
		}
		counts := make([]int, len(profile.Bins))
		for _, l := range labels {
			if i, ok := index[l]; ok {
				counts[i]++
			} else {
				counts[other]++
			}
		}
		return counts, len(labels), nil
	}

	values := UsableFloats(col.Floats())
	if len(values) == 0 {
		return nil, 0, fmt.Errorf("%w: feature %s has no numeric values", core.ErrDataInvalid, profile.Feature)
	}
	return countByEdges(profile.Edges, values), len(values), nil
}

// Smooth raises every share below floor up to it, then renormalizes so
// the vector sums to 1 with no zero entries left for the scorer's log
// terms.
func Smooth(props []float64, floor float64) []float64 {
	out := make([]float64, len(props))
	sum := 0.0
	for i, p := range props {
		if p < floor {
			p = floor
		}
		out[i] = p
		sum += p
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Proportions converts raw counts to shares of total
func Proportions(counts []int, total int) []float64 {
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

// UsableFloats drops NaN and infinite values
func UsableFloats(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func distinctSorted(sorted []float64) []float64 {
	out := make([]float64, 0, len(sorted))
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// uniqueValueEdges builds one bin per distinct value, splitting at the
// midpoints between neighbors. A constant column widens to a single
// unit-width bin.
func uniqueValueEdges(distinct []float64) []float64 {
	if len(distinct) == 1 {
		v := distinct[0]
		return []float64{v - 0.5, v + 0.5}
	}
	edges := make([]float64, len(distinct)+1)
	edges[0] = distinct[0]
	for i := 1; i < len(distinct); i++ {
		edges[i] = (distinct[i-1] + distinct[i]) / 2
	}
	edges[len(distinct)] = distinct[len(distinct)-1]
	return edges
}

func widthEdges(min, max float64, bins int) []float64 {
	if min == max {
		return []float64{min - 0.5, max + 0.5}
	}
	edges := make([]float64, bins+1)
	step := (max - min) / float64(bins)
	for i := 0; i <= bins; i++ {
		edges[i] = min + float64(i)*step
	}
	edges[bins] = max
	return edges
}

// quantileEdges places edges at evenly spaced quantiles of the sorted
// reference values. Repeated mass collapses duplicate edges, so the
// resulting bin count can be lower than requested.
func quantileEdges(sorted []float64, bins int) []float64 {
	edges := make([]float64, 0, bins+1)
	for i := 0; i <= bins; i++ {
		q := stat.Quantile(float64(i)/float64(bins), stat.Empirical, sorted, nil)
		if len(edges) == 0 || q > edges[len(edges)-1] {
			edges = append(edges, q)
		}
	}
	if len(edges) < 2 {
		return uniqueValueEdges(edges)
	}
	return edges
}

// countByEdges tallies values into bins. Bin i spans [edges[i],
// edges[i+1]), the final bin includes its upper edge, and out-of-range
// values clamp into the boundary bins.
func countByEdges(edges []float64, values []float64) []int {
	n := len(edges) - 1
	counts := make([]int, n)
	for _, v := range values {
		counts[binIndex(edges, v)]++
	}
	return counts
}

func binIndex(edges []float64, v float64) int {
	n := len(edges) - 1
	if v < edges[0] {
		return 0
	}
	if v >= edges[n] {
		return n - 1
	}
	// First edge strictly greater than v; v then lives in the bin to
	// its left
	idx := sort.Search(len(edges), func(i int) bool { return edges[i] > v })
	return idx - 1
}

func intervalLabel(edges []float64, i int) string {
	if i == len(edges)-2 {
		return fmt.Sprintf("[%s, %s]", formatEdge(edges[i]), formatEdge(edges[i+1]))
	}
	return fmt.Sprintf("[%s, %s)", formatEdge(edges[i]), formatEdge(edges[i+1]))
}

func formatEdge(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
