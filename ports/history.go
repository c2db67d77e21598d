package ports

import (
	"context"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
)

// DriftHistory persists scoring outcomes for later inspection. The
// scoring core owns no storage; this port is optional and consumed by
// callers that want an audit trail.
type DriftHistory interface {
	// Run persistence
	SaveResultSet(ctx context.Context, set drift.DriftResultSet) error
	SaveWindow(ctx context.Context, runID core.RunID, window drift.RollingWindowResult) error
	GetRun(ctx context.Context, runID core.RunID) (*drift.DriftResultSet, error)

	// Feature queries
	RecentScores(ctx context.Context, feature string, limit int) ([]drift.DriftResult, error)
	FeatureDriftRate(ctx context.Context, feature string, since core.Timestamp) (float64, error)
}
