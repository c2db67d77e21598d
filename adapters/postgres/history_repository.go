package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/ports"

	"github.com/jmoiron/sqlx"
)

// historyRepository implements the DriftHistory interface
type historyRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new drift history repository
func NewHistoryRepository(db *sqlx.DB) ports.DriftHistory {
	return &historyRepository{db: db}
}

// SaveResultSet persists one scoring run with all of its per-feature results
func (r *historyRepository) SaveResultSet(ctx context.Context, set drift.DriftResultSet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertResultSet(ctx, tx, set); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveWindow persists one rolling window: the window's result set plus
// the span that links it to its monitoring run
func (r *historyRepository) SaveWindow(ctx context.Context, runID core.RunID, window drift.RollingWindowResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertResultSet(ctx, tx, window.Results); err != nil {
		return err
	}

	query := `INSERT INTO drift_windows (
		monitor_run_id, window_index, result_run_id, period_start, period_end, first_row, row_count
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.ExecContext(ctx, query,
		runID.String(), window.Window.Index, window.Results.RunID.String(),
		nullTime(window.Window.Start), nullTime(window.Window.End),
		window.Window.FirstRow, window.Window.Rows,
	)
	if err != nil {
		return fmt.Errorf("failed to insert window: %w", err)
	}

	return tx.Commit()
}

// GetRun retrieves a persisted scoring run by its ID
func (r *historyRepository) GetRun(ctx context.Context, runID core.RunID) (*drift.DriftResultSet, error) {
	query := `SELECT id, method, threshold, errored, scored_at FROM drift_runs WHERE id = $1`

	var (
		id        string
		method    string
		threshold float64
		errored   bool
		scoredAt  time.Time
	)

	err := r.db.QueryRowContext(ctx, query, runID.String()).Scan(&id, &method, &threshold, &errored, &scoredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	set := &drift.DriftResultSet{
		RunID:     core.RunID(id),
		Method:    method,
		Threshold: threshold,
		Errored:   errored,
		ScoredAt:  core.NewTimestamp(scoredAt),
		Results:   make(map[string]drift.DriftResult),
	}

	resultQuery := `SELECT
		feature, method, score, threshold, drift, band, missing,
		COALESCE(reason, '') as reason, sample_size, bins, scored_at
	FROM drift_results WHERE run_id = $1 ORDER BY feature`

	rows, err := r.db.QueryContext(ctx, resultQuery, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		set.Results[res.Feature] = res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return set, nil
}

// RecentScores retrieves the latest scored results for one feature,
// newest first
func (r *historyRepository) RecentScores(ctx context.Context, feature string, limit int) ([]drift.DriftResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT
		feature, method, score, threshold, drift, band, missing,
		COALESCE(reason, '') as reason, sample_size, bins, scored_at
	FROM drift_results
	WHERE feature = $1 AND NOT missing
	ORDER BY scored_at DESC
	LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, feature, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var results []drift.DriftResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}

	return results, nil
}

// FeatureDriftRate computes the share of scored windows since the given
// time in which the feature drifted
func (r *historyRepository) FeatureDriftRate(ctx context.Context, feature string, since core.Timestamp) (float64, error) {
	query := `SELECT COALESCE(AVG(CASE WHEN drift THEN 1.0 ELSE 0.0 END), 0.0)
	FROM drift_results
	WHERE feature = $1 AND NOT missing AND scored_at >= $2`

	var rate float64
	err := r.db.QueryRowContext(ctx, query, feature, since.Time()).Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("failed to compute drift rate: %w", err)
	}

	return rate, nil
}

// insertResultSet writes the run row and one row per feature result
func insertResultSet(ctx context.Context, tx *sqlx.Tx, set drift.DriftResultSet) error {
	query := `INSERT INTO drift_runs (id, method, threshold, errored, scored_at)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.ExecContext(ctx, query,
		set.RunID.String(), set.Method, set.Threshold, set.Errored, set.ScoredAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	resultQuery := `INSERT INTO drift_results (
		run_id, feature, method, score, threshold, drift, band,
		missing, reason, sample_size, bins, scored_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, name := range set.Features() {
		res := set.Results[name]

		binsJSON, err := json.Marshal(res.Bins)
		if err != nil {
			return fmt.Errorf("failed to marshal bins: %w", err)
		}

		_, err = tx.ExecContext(ctx, resultQuery,
			set.RunID.String(), res.Feature, res.Method, res.Score, res.Threshold, res.Drift, res.Band,
			res.Missing, res.Reason, res.SampleSize, binsJSON, res.ScoredAt.Time(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", res.Feature, err)
		}
	}

	return nil
}

// scanResult reads one drift_results row
func scanResult(rows *sql.Rows) (drift.DriftResult, error) {
	var (
		res      drift.DriftResult
		binsJSON []byte
		scoredAt time.Time
	)

	err := rows.Scan(
		&res.Feature, &res.Method, &res.Score, &res.Threshold, &res.Drift, &res.Band,
		&res.Missing, &res.Reason, &res.SampleSize, &binsJSON, &scoredAt,
	)
	if err != nil {
		return drift.DriftResult{}, fmt.Errorf("failed to scan result: %w", err)
	}

	// Unmarshal bin detail
	if len(binsJSON) > 0 {
		if err := json.Unmarshal(binsJSON, &res.Bins); err != nil {
			return drift.DriftResult{}, fmt.Errorf("failed to unmarshal bins: %w", err)
		}
	}
	res.ScoredAt = core.NewTimestamp(scoredAt)

	return res, nil
}

func nullTime(t core.Timestamp) sql.NullTime {
	return sql.NullTime{Time: t.Time(), Valid: !t.IsZero()}
}
