package app

import (
	"context"
	"fmt"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal"
	"driftwatch/ports"
)

// FeatureTimeline is the recent scoring history of one feature.
type FeatureTimeline struct {
	Feature string              `json:"feature"`
	Scores  []drift.DriftResult `json:"scores"`
	Latest  float64             `json:"latest"`
	Trend   drift.Trend         `json:"trend"`
}

// FeatureStanding is a feature's drift rate over a lookback period.
type FeatureStanding struct {
	Feature   string         `json:"feature"`
	Since     core.Timestamp `json:"since"`
	DriftRate float64        `json:"drift_rate"`
	Health    drift.Health   `json:"health"`
}

// HistoryService answers questions about persisted drift runs: fetching a
// stored result set, a feature's recent score timeline and its standing
// drift rate.
type HistoryService struct {
	logger  *internal.Logger
	history ports.DriftHistory
}

// NewHistoryService creates the query service
func NewHistoryService(history ports.DriftHistory) (*HistoryService, error) {
	if history == nil {
		return nil, core.NewConfigurationError("history", "no history store given")
	}
	return &HistoryService{
		logger:  internal.NewDefaultLogger(),
		history: history,
	}, nil
}

// Run loads one persisted result set by its run ID
func (s *HistoryService) Run(ctx context.Context, runID core.RunID) (*drift.DriftResultSet, error) {
	return s.history.GetRun(ctx, runID)
}

// Timeline returns a feature's most recent scores, newest first, and the
// trend from the oldest of them to the newest.
func (s *HistoryService) Timeline(ctx context.Context, feature string, limit int) (*FeatureTimeline, error) {
	if feature == "" {
		return nil, core.NewConfigurationError("feature", "feature name is required")
	}

	scores, err := s.history.RecentScores(ctx, feature, limit)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores recorded for %s", core.ErrFeatureNotFound, feature)
	}

	newest := scores[0].Score
	oldest := scores[len(scores)-1].Score
	return &FeatureTimeline{
		Feature: feature,
		Scores:  scores,
		Latest:  newest,
		Trend:   drift.TrendBetween(oldest, newest),
	}, nil
}

// Standing computes a feature's drift rate since the given time and bands
// it into a health verdict.
func (s *HistoryService) Standing(ctx context.Context, feature string, since core.Timestamp) (*FeatureStanding, error) {
	if feature == "" {
		return nil, core.NewConfigurationError("feature", "feature name is required")
	}

	rate, err := s.history.FeatureDriftRate(ctx, feature, since)
	if err != nil {
		return nil, err
	}

	return &FeatureStanding{
		Feature:   feature,
		Since:     since,
		DriftRate: rate,
		Health:    drift.HealthForRate(rate),
	}, nil
}
