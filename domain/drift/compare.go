package drift

// scoreEpsilon separates a real score movement from float noise when
// classifying deltas between two runs
const scoreEpsilon = 1e-9

// ScoreDelta is the change of one shared feature between two scoring runs
type ScoreDelta struct {
	Feature         string  `json:"feature"`
	Before          float64 `json:"before"`
	After           float64 `json:"after"`
	Delta           float64 `json:"delta"`
	Trend           Trend   `json:"trend"`
	BecameDrifting  bool    `json:"became_drifting,omitempty"`
	ClearedDrifting bool    `json:"cleared_drifting,omitempty"`
}

// NewScoreDelta classifies the movement of one feature between two results
func NewScoreDelta(before, after DriftResult) ScoreDelta {
	d := ScoreDelta{
		Feature: after.Feature,
		Before:  before.Score,
		After:   after.Score,
		Delta:   after.Score - before.Score,
	}
	switch {
	case d.Delta > scoreEpsilon:
		d.Trend = TrendUp
	case d.Delta < -scoreEpsilon:
		d.Trend = TrendDown
	default:
		d.Trend = TrendStable
	}
	d.BecameDrifting = !before.Drift && after.Drift
	d.ClearedDrifting = before.Drift && !after.Drift
	return d
}
