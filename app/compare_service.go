package app

import (
	"math"
	"sort"

	"driftwatch/domain/drift"
	"driftwatch/internal"
)

// CompareService diffs two scoring runs feature by feature, surfacing
// which features moved, started drifting or recovered.
type CompareService struct {
	logger *internal.Logger
}

// NewCompareService creates the comparator
func NewCompareService() *CompareService {
	return &CompareService{logger: internal.NewDefaultLogger()}
}

// Compare pairs up the features scored in both sets and classifies
// each one's movement, largest absolute change first. Features present
// in only one set are skipped.
func (s *CompareService) Compare(before, after drift.DriftResultSet) []drift.ScoreDelta {
	var deltas []drift.ScoreDelta
	for _, name := range after.Features() {
		b, ok := before.Results[name]
		if !ok || b.Missing {
			continue
		}
		a := after.Results[name]
		if a.Missing {
			continue
		}
		deltas = append(deltas, drift.NewScoreDelta(b, a))
	}

	sort.SliceStable(deltas, func(i, j int) bool {
		di, dj := math.Abs(deltas[i].Delta), math.Abs(deltas[j].Delta)
		if di != dj {
			return di > dj
		}
		return deltas[i].Feature < deltas[j].Feature
	})

	s.logger.Debug("Compared runs %s and %s: %d shared features", before.RunID, after.RunID, len(deltas))
	return deltas
}

// Regressions returns only the features that newly crossed their
// threshold between the two runs
func (s *CompareService) Regressions(before, after drift.DriftResultSet) []drift.ScoreDelta {
	var out []drift.ScoreDelta
	for _, d := range s.Compare(before, after) {
		if d.BecameDrifting {
			out = append(out, d)
		}
	}
	return out
}
