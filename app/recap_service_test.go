package app

import (
	"math"
	"testing"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
)

func rollingWindow(index int, results ...drift.DriftResult) drift.RollingWindowResult {
	return drift.RollingWindowResult{
		Window:  drift.WindowSpan{Index: index, FirstRow: index * 10, Rows: 10},
		Results: resultSet(results...),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecapAggregatesFeatureSeries(t *testing.T) {
	windows := []drift.RollingWindowResult{
		rollingWindow(0, scoredResult("amount", 0.05), scoredResult("country", 0.50)),
		rollingWindow(1, scoredResult("amount", 0.30), scoredResult("country", 0.45)),
		rollingWindow(2, scoredResult("amount", 0.10), scoredResult("country", 0.60)),
	}

	recap, err := NewRecapService().BuildRecap(core.NewRunID(), windows)
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}

	if recap.Windows != 3 {
		t.Errorf("Windows = %d, want 3", recap.Windows)
	}
	if len(recap.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(recap.Features))
	}
	if recap.Features[0].Feature != "amount" || recap.Features[1].Feature != "country" {
		t.Errorf("features not sorted by name: %s, %s", recap.Features[0].Feature, recap.Features[1].Feature)
	}

	amount := recap.Features[0]
	if amount.Periods != 3 || amount.DriftPeriods != 1 {
		t.Errorf("amount periods = %d/%d, want 1 drift of 3", amount.DriftPeriods, amount.Periods)
	}
	if !almostEqual(amount.AvgScore, 0.15) {
		t.Errorf("amount avg = %f, want 0.15", amount.AvgScore)
	}
	if !almostEqual(amount.MaxScore, 0.30) || !almostEqual(amount.MinScore, 0.05) {
		t.Errorf("amount range = [%f, %f], want [0.05, 0.30]", amount.MinScore, amount.MaxScore)
	}
	if !almostEqual(amount.LatestScore, 0.10) {
		t.Errorf("amount latest = %f, want 0.10", amount.LatestScore)
	}
	if amount.Trend != drift.TrendDown {
		t.Errorf("amount trend = %s, want down (0.30 -> 0.10)", amount.Trend)
	}

	country := recap.Features[1]
	if country.DriftPeriods != 3 || !almostEqual(country.DriftRate, 1.0) {
		t.Errorf("country drifted %d times at rate %f, want every window", country.DriftPeriods, country.DriftRate)
	}
	if country.Trend != drift.TrendUp {
		t.Errorf("country trend = %s, want up (0.45 -> 0.60)", country.Trend)
	}

	if recap.DriftEvents != 4 {
		t.Errorf("DriftEvents = %d, want 4", recap.DriftEvents)
	}
	if !almostEqual(recap.OverallDriftRate, 4.0/6.0) {
		t.Errorf("OverallDriftRate = %f, want 4/6", recap.OverallDriftRate)
	}
	if recap.Health != drift.HealthCritical {
		t.Errorf("Health = %s, want critical at a 2/3 drift rate", recap.Health)
	}
}

func TestRecapSkipsMissingWindows(t *testing.T) {
	windows := []drift.RollingWindowResult{
		rollingWindow(0, scoredResult("amount", 0.05)),
		rollingWindow(1, drift.NewMissingResult("amount", "psi", 0.2, "feature missing")),
		rollingWindow(2, scoredResult("amount", 0.40)),
	}

	recap, err := NewRecapService().BuildRecap(core.NewRunID(), windows)
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}

	amount := recap.Features[0]
	if amount.Periods != 2 {
		t.Errorf("Periods = %d, want the missing window excluded", amount.Periods)
	}
	if amount.Trend != drift.TrendUp {
		t.Errorf("Trend = %s, want up across the two scored windows", amount.Trend)
	}
	if !almostEqual(recap.OverallDriftRate, 0.5) {
		t.Errorf("OverallDriftRate = %f, want 1 drift of 2 scored cells", recap.OverallDriftRate)
	}
}

func TestRecapTopConcernsRanking(t *testing.T) {
	windows := []drift.RollingWindowResult{
		rollingWindow(0,
			scoredResult("alpha", 0.30),
			scoredResult("beta", 0.50),
			scoredResult("gamma", 0.50),
			scoredResult("delta", 0.05)),
		rollingWindow(1,
			scoredResult("alpha", 0.30),
			scoredResult("beta", 0.50),
			scoredResult("gamma", 0.10),
			scoredResult("delta", 0.05)),
	}

	recap, err := NewRecapService().BuildRecap(core.NewRunID(), windows)
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}

	want := []string{"beta", "alpha", "gamma"}
	if len(recap.TopConcerns) != len(want) {
		t.Fatalf("got %d concerns %v, want %v", len(recap.TopConcerns), recap.TopConcerns, want)
	}
	for i, name := range want {
		if recap.TopConcerns[i].Feature != name {
			t.Errorf("concern %d = %s, want %s", i, recap.TopConcerns[i].Feature, name)
		}
	}
}

func TestRecapTopConcernsCapped(t *testing.T) {
	results := []drift.DriftResult{
		scoredResult("f0", 0.9),
		scoredResult("f1", 0.9),
		scoredResult("f2", 0.9),
		scoredResult("f3", 0.9),
		scoredResult("f4", 0.9),
		scoredResult("f5", 0.9),
		scoredResult("f6", 0.9),
	}

	recap, err := NewRecapService().BuildRecap(core.NewRunID(), []drift.RollingWindowResult{rollingWindow(0, results...)})
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}

	if len(recap.TopConcerns) != topConcernLimit {
		t.Fatalf("got %d concerns, want the cap of %d", len(recap.TopConcerns), topConcernLimit)
	}
	for i, c := range recap.TopConcerns {
		if want := "f" + string(rune('0'+i)); c.Feature != want {
			t.Errorf("concern %d = %s, want %s on the name tiebreak", i, c.Feature, want)
		}
	}
}

func TestRecapCalendarRange(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	windows := []drift.RollingWindowResult{
		{
			Window:  drift.WindowSpan{Index: 0, Start: core.Timestamp(day), End: core.Timestamp(day.AddDate(0, 0, 1)), Rows: 5},
			Results: resultSet(scoredResult("amount", 0.1)),
		},
		{
			Window:  drift.WindowSpan{Index: 1, Start: core.Timestamp(day.AddDate(0, 0, 1)), End: core.Timestamp(day.AddDate(0, 0, 2)), Rows: 5},
			Results: resultSet(scoredResult("amount", 0.1)),
		},
	}

	recap, err := NewRecapService().BuildRecap(core.NewRunID(), windows)
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}
	if !recap.Start.Time().Equal(day) {
		t.Errorf("Start = %v, want the first window boundary", recap.Start)
	}
	if !recap.End.Time().Equal(day.AddDate(0, 0, 2)) {
		t.Errorf("End = %v, want the last window boundary", recap.End)
	}
}

func TestRecapRowWindowsUseScoringTimes(t *testing.T) {
	windows := []drift.RollingWindowResult{
		rollingWindow(0, scoredResult("amount", 0.1)),
		rollingWindow(1, scoredResult("amount", 0.1)),
	}

	recap, err := NewRecapService().BuildRecap(core.NewRunID(), windows)
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}
	if recap.Start.IsZero() || recap.End.IsZero() {
		t.Error("row-count windows should fall back to scoring timestamps")
	}
}

func TestRecapEmptyRun(t *testing.T) {
	_, err := NewRecapService().BuildRecap(core.NewRunID(), nil)
	if !core.IsDataError(err) {
		t.Errorf("error = %v, want a data error", err)
	}
}

func TestRecapSingleWindowIsStable(t *testing.T) {
	recap, err := NewRecapService().BuildRecap(core.NewRunID(), []drift.RollingWindowResult{
		rollingWindow(0, scoredResult("amount", 0.3)),
	})
	if err != nil {
		t.Fatalf("BuildRecap: %v", err)
	}
	if recap.Features[0].Trend != drift.TrendStable {
		t.Errorf("trend = %s, want stable with one window", recap.Features[0].Trend)
	}
}

func TestCompareOrdersByMagnitude(t *testing.T) {
	before := resultSet(
		scoredResult("a", 0.10),
		scoredResult("b", 0.50),
		scoredResult("c", 0.30),
	)
	after := resultSet(
		scoredResult("a", 0.40),
		scoredResult("b", 0.10),
		scoredResult("c", 0.30),
	)

	deltas := NewCompareService().Compare(before, after)
	if len(deltas) != 3 {
		t.Fatalf("got %d deltas, want 3", len(deltas))
	}

	if deltas[0].Feature != "b" || deltas[1].Feature != "a" || deltas[2].Feature != "c" {
		t.Errorf("order = [%s %s %s], want largest movement first", deltas[0].Feature, deltas[1].Feature, deltas[2].Feature)
	}
	if deltas[0].Trend != drift.TrendDown || !deltas[0].ClearedDrifting {
		t.Errorf("b: trend %s cleared %v, want a cleared regression", deltas[0].Trend, deltas[0].ClearedDrifting)
	}
	if deltas[1].Trend != drift.TrendUp || !deltas[1].BecameDrifting {
		t.Errorf("a: trend %s became %v, want a fresh drift", deltas[1].Trend, deltas[1].BecameDrifting)
	}
	if deltas[2].Trend != drift.TrendStable {
		t.Errorf("c: trend = %s, want stable", deltas[2].Trend)
	}
}

func TestCompareTiesBreakByName(t *testing.T) {
	before := resultSet(scoredResult("y", 0.30), scoredResult("x", 0.10))
	after := resultSet(scoredResult("y", 0.20), scoredResult("x", 0.20))

	deltas := NewCompareService().Compare(before, after)
	if len(deltas) != 2 {
		t.Fatalf("got %d deltas, want 2", len(deltas))
	}
	if deltas[0].Feature != "x" || deltas[1].Feature != "y" {
		t.Errorf("equal magnitudes ordered [%s %s], want name ascending", deltas[0].Feature, deltas[1].Feature)
	}
}

func TestCompareSkipsUnsharedFeatures(t *testing.T) {
	before := resultSet(
		scoredResult("amount", 0.10),
		scoredResult("retired", 0.30),
		drift.NewMissingResult("flaky", "psi", 0.2, "feature missing"),
	)
	after := resultSet(
		scoredResult("amount", 0.20),
		scoredResult("added", 0.40),
		scoredResult("flaky", 0.50),
	)

	deltas := NewCompareService().Compare(before, after)
	if len(deltas) != 1 {
		t.Fatalf("got %d deltas %v, want only the feature scored on both sides", len(deltas), deltas)
	}
	if deltas[0].Feature != "amount" {
		t.Errorf("delta feature = %s, want amount", deltas[0].Feature)
	}
}

func TestCompareRegressions(t *testing.T) {
	before := resultSet(
		scoredResult("a", 0.10),
		scoredResult("b", 0.30),
		scoredResult("c", 0.15),
	)
	after := resultSet(
		scoredResult("a", 0.50),
		scoredResult("b", 0.10),
		scoredResult("c", 0.18),
	)

	regressions := NewCompareService().Regressions(before, after)
	if len(regressions) != 1 {
		t.Fatalf("got %d regressions, want 1", len(regressions))
	}
	if regressions[0].Feature != "a" || !regressions[0].BecameDrifting {
		t.Errorf("regression = %+v, want feature a crossing the threshold", regressions[0])
	}
}
