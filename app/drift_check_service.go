package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/internal"
	"driftwatch/internal/binning"
	"driftwatch/ports"

	"golang.org/x/sync/semaphore"
)

// DriftCheckService scores observed batches against cached reference
// profiles. Profiles are built once from reference data and reused for
// every check; features score in parallel, bounded by MaxParallel.
type DriftCheckService struct {
	metric      ports.DriftMetric
	binning     binning.Options
	threshold   float64
	maxParallel int64
	logger      *internal.Logger

	mu       sync.RWMutex
	profiles map[string]drift.ReferenceProfile
}

// CheckOptions tunes profile construction and scoring
type CheckOptions struct {
	Binning     binning.Options
	Threshold   float64 // non-positive picks the metric's default
	MaxParallel int
}

// DefaultCheckOptions returns the standard tuning
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		Binning:     binning.DefaultOptions(),
		MaxParallel: 4,
	}
}

// NewDriftCheckService creates the check engine
func NewDriftCheckService(metric ports.DriftMetric, opts CheckOptions) (*DriftCheckService, error) {
	if metric == nil {
		return nil, core.NewConfigurationError("metric", "no drift metric given")
	}
	if err := opts.Binning.Validate(); err != nil {
		return nil, err
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = metric.DefaultThreshold()
	}
	maxParallel := opts.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &DriftCheckService{
		metric:      metric,
		binning:     opts.Binning,
		threshold:   threshold,
		maxParallel: int64(maxParallel),
		logger:      internal.NewDefaultLogger(),
		profiles:    make(map[string]drift.ReferenceProfile),
	}, nil
}

// BuildReference profiles the given features from reference data and
// replaces any previously cached profiles. With no features named,
// every column of the frame is profiled.
func (s *DriftCheckService) BuildReference(ctx context.Context, frame ports.Frame, features ...string) error {
	if frame == nil || frame.NumRows() == 0 {
		return fmt.Errorf("%w: reference frame is empty", core.ErrEmptyReference)
	}
	if len(features) == 0 {
		features = frame.Columns()
	}
	if len(features) == 0 {
		return core.NewConfigurationError("reference", "reference data has no columns")
	}

	start := time.Now()
	built := make(map[string]drift.ReferenceProfile, len(features))
	for _, name := range features {
		col, ok := frame.Column(name)
		if !ok {
			return core.NewFeatureMissingError(name)
		}
		profile, err := binning.BuildProfile(col, s.binning)
		if err != nil {
			return fmt.Errorf("build profile for %s: %w", name, err)
		}
		built[name] = profile
	}

	s.mu.Lock()
	s.profiles = built
	s.mu.Unlock()

	s.logger.Info("Reference built: %d profiles from %d rows in %.2fms",
		len(built), frame.NumRows(), float64(time.Since(start).Nanoseconds())/1e6)
	return nil
}

// RefreshReference rebuilds the cached profiles from new data, keeping
// the same feature set. Features absent from the frame, or whose
// rebuild fails, keep their previous profile. Returns how many profiles
// were replaced.
func (s *DriftCheckService) RefreshReference(ctx context.Context, frame ports.Frame) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshed := 0
	for name, old := range s.profiles {
		col, ok := frame.Column(name)
		if !ok {
			s.logger.Debug("Refresh: %s missing from new reference, keeping previous profile", name)
			continue
		}
		profile, err := binning.BuildProfile(col, s.binning)
		if err != nil {
			s.logger.Debug("Refresh: rebuilding %s failed (%v), keeping previous profile", name, err)
			continue
		}
		if profile.Fingerprint != old.Fingerprint {
			refreshed++
		}
		s.profiles[name] = profile
	}
	if refreshed > 0 {
		s.logger.Debug("Refresh: %d of %d profiles changed", refreshed, len(s.profiles))
	}
	return refreshed
}

// Run profiles the reference and scores the comparison in one call.
// The built profiles stay cached for subsequent Check calls.
func (s *DriftCheckService) Run(ctx context.Context, reference, comparison ports.Frame, features ...string) (*drift.DriftResultSet, error) {
	if err := s.BuildReference(ctx, reference, features...); err != nil {
		return nil, err
	}
	return s.Check(ctx, comparison)
}

// Check scores every cached profile against the comparison frame.
// Individual feature failures are recorded as missing entries; only a
// missing reference is an error. A set where nothing could be scored
// comes back valid with Errored set.
func (s *DriftCheckService) Check(ctx context.Context, frame ports.Frame) (*drift.DriftResultSet, error) {
	profiles := s.snapshotProfiles()
	if len(profiles) == 0 {
		return nil, core.NewConfigurationError("reference", "no reference profiles built")
	}

	start := time.Now()

	type scoredFeature struct {
		result drift.DriftResult
		index  int
	}
	results := make(chan scoredFeature, len(profiles))
	sem := semaphore.NewWeighted(s.maxParallel)

	var wg sync.WaitGroup
	for i, profile := range profiles {
		wg.Add(1)
		go func(idx int, p drift.ReferenceProfile) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results <- scoredFeature{
					result: drift.NewMissingResult(p.Feature, s.metric.Name(), s.threshold, err.Error()),
					index:  idx,
				}
				return
			}
			defer sem.Release(1)
			results <- scoredFeature{result: s.scoreOne(frame, p), index: idx}
		}(i, profile)
	}
	wg.Wait()
	close(results)

	ordered := make([]drift.DriftResult, len(profiles))
	for r := range results {
		ordered[r.index] = r.result
	}

	set := &drift.DriftResultSet{
		RunID:     core.NewRunID(),
		Method:    s.metric.Name(),
		Threshold: s.threshold,
		Results:   make(map[string]drift.DriftResult, len(ordered)),
		ScoredAt:  core.Now(),
	}
	scored := 0
	for _, r := range ordered {
		set.Results[r.Feature] = r
		if !r.Missing {
			scored++
		} else {
			s.logger.Debug("Feature %s not scored: %s", r.Feature, r.Reason)
		}
	}
	set.Errored = scored == 0

	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
	if set.Errored {
		s.logger.Error("Drift check %s: all %d features failed to score", set.RunID, len(profiles))
	} else {
		s.logger.Info("Drift check %s: %d/%d features scored, %d drifting (%.2fms)",
			set.RunID, scored, len(profiles), set.DriftCount(), elapsed)
	}
	return set, nil
}

// scoreOne scores a single feature, converting every failure mode,
// panics included, into a missing entry
func (s *DriftCheckService) scoreOne(frame ports.Frame, profile drift.ReferenceProfile) (result drift.DriftResult) {
	defer func() {
		if r := recover(); r != nil {
			result = drift.NewMissingResult(profile.Feature, s.metric.Name(), s.threshold,
				fmt.Sprintf("panic while scoring: %v", r))
		}
	}()

	col, ok := frame.Column(profile.Feature)
	if !ok {
		return drift.NewMissingResult(profile.Feature, s.metric.Name(), s.threshold,
			core.NewFeatureMissingError(profile.Feature).Error())
	}
	if col.Kind() != profile.Kind {
		return drift.NewMissingResult(profile.Feature, s.metric.Name(), s.threshold,
			core.NewKindMismatchError(profile.Feature, string(profile.Kind), string(col.Kind())).Error())
	}

	res, err := s.metric.Score(profile, col, s.threshold)
	if err != nil {
		return drift.NewMissingResult(profile.Feature, s.metric.Name(), s.threshold, err.Error())
	}
	return res
}

// Profiles returns the cached reference profiles ordered by feature name
func (s *DriftCheckService) Profiles() []drift.ReferenceProfile {
	return s.snapshotProfiles()
}

// Profile fetches one cached profile
func (s *DriftCheckService) Profile(feature string) (drift.ReferenceProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[feature]
	return p, ok
}

// HasReference reports whether profiles are cached
func (s *DriftCheckService) HasReference() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles) > 0
}

// Threshold returns the resolved drift threshold
func (s *DriftCheckService) Threshold() float64 { return s.threshold }

// Metric returns the scoring metric's name
func (s *DriftCheckService) Metric() string { return s.metric.Name() }

// Reset drops the cached profiles
func (s *DriftCheckService) Reset() {
	s.mu.Lock()
	s.profiles = make(map[string]drift.ReferenceProfile)
	s.mu.Unlock()
}

func (s *DriftCheckService) snapshotProfiles() []drift.ReferenceProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]drift.ReferenceProfile, 0, len(names))
	for _, name := range names {
		out = append(out, s.profiles[name])
	}
	return out
}
