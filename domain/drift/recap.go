package drift

import "driftwatch/domain/core"

// Trend describes the direction of a feature's score across windows
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Health is the overall state of a monitored stream
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

// Health band boundaries over the overall drift rate
const (
	HealthWarningRate  = 0.2
	HealthCriticalRate = 0.5
)

// HealthForRate maps an overall drift rate onto a health band
func HealthForRate(rate float64) Health {
	switch {
	case rate < HealthWarningRate:
		return HealthHealthy
	case rate < HealthCriticalRate:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// TrendBetween compares the two most recent scores of a feature
func TrendBetween(previous, latest float64) Trend {
	switch {
	case latest > previous:
		return TrendUp
	case latest < previous:
		return TrendDown
	default:
		return TrendStable
	}
}

// FeatureRecap aggregates one feature's behavior across all windows of a run
type FeatureRecap struct {
	Feature      string  `json:"feature"`
	Periods      int     `json:"total_periods"`
	DriftPeriods int     `json:"drift_periods"`
	DriftRate    float64 `json:"drift_rate"`
	AvgScore     float64 `json:"avg_score"`
	MaxScore     float64 `json:"max_score"`
	MinScore     float64 `json:"min_score"`
	LatestScore  float64 `json:"latest_score"`
	Trend        Trend   `json:"trend"`
}

// Recap is the cumulative summary of one rolling monitoring run.
// OverallDriftRate is drift events divided by (windows x monitored features).
type Recap struct {
	RunID            core.RunID     `json:"run_id"`
	Windows          int            `json:"windows"`
	Start            core.Timestamp `json:"start"`
	End              core.Timestamp `json:"end"`
	Features         []FeatureRecap `json:"features"`
	DriftEvents      int            `json:"drift_events"`
	OverallDriftRate float64        `json:"overall_drift_rate"`
	Health           Health         `json:"health"`
	TopConcerns      []FeatureRecap `json:"top_concerns,omitempty"`
}
