package app

import (
	"fmt"
	"sort"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal"

	"github.com/montanaflynn/stats"
)

// topConcernLimit caps how many drifting features a recap calls out
const topConcernLimit = 5

// RecapService aggregates the windows of a monitoring run into one
// cumulative summary: per-feature score statistics, drift rates and an
// overall health band.
type RecapService struct {
	logger *internal.Logger
}

// NewRecapService creates the aggregator
func NewRecapService() *RecapService {
	return &RecapService{logger: internal.NewDefaultLogger()}
}

// BuildRecap summarizes a run's windows. Windows where a feature went
// missing are simply absent from that feature's series.
func (s *RecapService) BuildRecap(runID core.RunID, windows []drift.RollingWindowResult) (*drift.Recap, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: no windows to recap", core.ErrDataInvalid)
	}

	series := make(map[string][]float64)
	driftPeriods := make(map[string]int)
	for _, w := range windows {
		for name, r := range w.Results.Results {
			if r.Missing {
				continue
			}
			series[name] = append(series[name], r.Score)
			if r.Drift {
				driftPeriods[name]++
			}
		}
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	recap := &drift.Recap{
		RunID:   runID,
		Windows: len(windows),
	}

	scoredCells := 0
	for _, name := range names {
		scores := series[name]
		avg, err := stats.Mean(scores)
		if err != nil {
			continue
		}
		maxScore, _ := stats.Max(scores)
		minScore, _ := stats.Min(scores)

		fr := drift.FeatureRecap{
			Feature:      name,
			Periods:      len(scores),
			DriftPeriods: driftPeriods[name],
			DriftRate:    float64(driftPeriods[name]) / float64(len(scores)),
			AvgScore:     avg,
			MaxScore:     maxScore,
			MinScore:     minScore,
			LatestScore:  scores[len(scores)-1],
			Trend:        drift.TrendStable,
		}
		if len(scores) >= 2 {
			fr.Trend = drift.TrendBetween(scores[len(scores)-2], scores[len(scores)-1])
		}
		recap.Features = append(recap.Features, fr)
		recap.DriftEvents += fr.DriftPeriods
		scoredCells += fr.Periods
	}

	if scoredCells > 0 {
		recap.OverallDriftRate = float64(recap.DriftEvents) / float64(scoredCells)
	}
	recap.Health = drift.HealthForRate(recap.OverallDriftRate)
	recap.Start, recap.End = runSpan(windows)
	recap.TopConcerns = topConcerns(recap.Features)

	s.logger.Debug("Recap %s: %d windows, %d features, %d drift events, health %s",
		runID, recap.Windows, len(recap.Features), recap.DriftEvents, recap.Health)
	return recap, nil
}

// runSpan derives the recap's time range: calendar window boundaries
// when present, scoring times otherwise
func runSpan(windows []drift.RollingWindowResult) (core.Timestamp, core.Timestamp) {
	first, last := windows[0], windows[len(windows)-1]
	if !first.Window.Start.IsZero() {
		return first.Window.Start, last.Window.End
	}
	return first.Results.ScoredAt, last.Results.ScoredAt
}

// topConcerns ranks the drifting features: drift rate first, then
// average score, then name for determinism
func topConcerns(features []drift.FeatureRecap) []drift.FeatureRecap {
	var concerns []drift.FeatureRecap
	for _, f := range features {
		if f.DriftPeriods > 0 {
			concerns = append(concerns, f)
		}
	}
	sort.SliceStable(concerns, func(i, j int) bool {
		if concerns[i].DriftRate != concerns[j].DriftRate {
			return concerns[i].DriftRate > concerns[j].DriftRate
		}
		if concerns[i].AvgScore != concerns[j].AvgScore {
			return concerns[i].AvgScore > concerns[j].AvgScore
		}
		return concerns[i].Feature < concerns[j].Feature
	})
	if len(concerns) > topConcernLimit {
		concerns = concerns[:topConcernLimit]
	}
	return concerns
}
