package testkit

import (
	"math/rand/v2"
	"time"

	"driftwatch/adapters/frame"

	"gonum.org/v1/gonum/stat/distuv"
)

// StreamConfig configures the synthetic frame generator
type StreamConfig struct {
	Seed     uint64
	Start    time.Time
	Interval time.Duration
}

// DefaultStreamConfig returns sensible defaults for synthetic streams
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Seed:     42,
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval: time.Hour,
	}
}

// WeightedLabel is one categorical level with its draw weight
type WeightedLabel struct {
	Label  string
	Weight float64
}

// PaymentCountries is the default categorical mix of the payments fixture
var PaymentCountries = []WeightedLabel{
	{"US", 0.5},
	{"DE", 0.25},
	{"FR", 0.15},
	{"BR", 0.1},
}

// FrameGenerator produces deterministic frames for exercising the
// scoring pipeline. Same seed, same frames.
type FrameGenerator struct {
	config StreamConfig
	rng    *rand.Rand
	src    rand.Source
}

// NewFrameGenerator creates a seeded generator
func NewFrameGenerator(config StreamConfig) *FrameGenerator {
	src := rand.NewPCG(config.Seed, config.Seed)
	return &FrameGenerator{
		config: config,
		rng:    rand.New(src),
		src:    src,
	}
}

// Normal draws n values from N(mu, sigma)
func (g *FrameGenerator) Normal(n int, mu, sigma float64) []float64 {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// LogNormal draws n values from LogNormal(mu, sigma)
func (g *FrameGenerator) LogNormal(n int, mu, sigma float64) []float64 {
	dist := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: g.src}
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// Uniform draws n values from U(lo, hi)
func (g *FrameGenerator) Uniform(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + g.rng.Float64()*(hi-lo)
	}
	return out
}

// Categorical draws n labels according to the given weights
func (g *FrameGenerator) Categorical(n int, labels []WeightedLabel) []string {
	total := 0.0
	for _, l := range labels {
		total += l.Weight
	}

	out := make([]string, n)
	for i := range out {
		x := g.rng.Float64() * total
		for _, l := range labels {
			x -= l.Weight
			if x < 0 {
				out[i] = l.Label
				break
			}
		}
		if out[i] == "" {
			out[i] = labels[len(labels)-1].Label
		}
	}
	return out
}

// Times produces n timestamps stepping from the configured start
func (g *FrameGenerator) Times(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = g.config.Start.Add(time.Duration(i) * g.config.Interval)
	}
	return out
}

// PaymentsFrame builds the standard two-feature fixture: log-normal
// transaction amounts and a weighted country mix, time-indexed
func (g *FrameGenerator) PaymentsFrame(rows int) *frame.MemoryFrame {
	return frame.NewBuilder().
		Numeric("amount", g.LogNormal(rows, 3.0, 0.4)...).
		Categorical("country", g.Categorical(rows, PaymentCountries)...).
		Times(g.Times(rows)...).
		MustBuild()
}

// ShiftedPayments builds a drifted variant of the payments fixture:
// amounts shifted by delta in log space and the country mix inverted
func (g *FrameGenerator) ShiftedPayments(rows int, delta float64) *frame.MemoryFrame {
	inverted := make([]WeightedLabel, len(PaymentCountries))
	for i, l := range PaymentCountries {
		inverted[i] = WeightedLabel{Label: l.Label, Weight: PaymentCountries[len(PaymentCountries)-1-i].Weight}
	}
	return frame.NewBuilder().
		Numeric("amount", g.LogNormal(rows, 3.0+delta, 0.4)...).
		Categorical("country", g.Categorical(rows, inverted)...).
		Times(g.Times(rows)...).
		MustBuild()
}
