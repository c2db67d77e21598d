package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"

	"github.com/xuri/excelize/v2"
)

func sampleRecap() *drift.Recap {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	amount := drift.FeatureRecap{
		Feature: "amount", Periods: 4, DriftPeriods: 3, DriftRate: 0.75,
		AvgScore: 0.3125, MaxScore: 0.41, MinScore: 0.18, LatestScore: 0.41,
		Trend: drift.TrendUp,
	}
	country := drift.FeatureRecap{
		Feature: "country", Periods: 4, DriftPeriods: 0, DriftRate: 0,
		AvgScore: 0.02, MaxScore: 0.04, MinScore: 0.01, LatestScore: 0.01,
		Trend: drift.TrendStable,
	}
	return &drift.Recap{
		RunID:            core.NewRunID(),
		Windows:          4,
		Start:            core.NewTimestamp(start),
		End:              core.NewTimestamp(start.AddDate(0, 0, 4)),
		Features:         []drift.FeatureRecap{amount, country},
		DriftEvents:      3,
		OverallDriftRate: 3.0 / 8.0,
		Health:           drift.HealthWarning,
		TopConcerns:      []drift.FeatureRecap{amount},
	}
}

func sampleResultSet() drift.DriftResultSet {
	set := drift.DriftResultSet{
		RunID:     core.NewRunID(),
		Method:    "psi",
		Threshold: 0.2,
		Results:   make(map[string]drift.DriftResult),
		ScoredAt:  core.Now(),
	}
	set.Results["amount"] = drift.DriftResult{
		Feature: "amount", Method: "psi", Score: 0.35, Threshold: 0.2,
		Drift: true, Band: drift.BandSignificant, SampleSize: 120,
	}
	set.Results["country"] = drift.DriftResult{
		Feature: "country", Method: "psi", Score: 0.04, Threshold: 0.2,
		Band: drift.BandStable, SampleSize: 120,
	}
	set.Results["missing_col"] = drift.NewMissingResult("missing_col", "psi", 0.2, "feature missing from comparison data: missing_col")
	return set
}

func TestRenderRecapMarkdown(t *testing.T) {
	doc := string(NewMarkdown().RenderRecap(sampleRecap()))

	for _, want := range []string{
		"# Drift Recap",
		"**Health:** warning",
		"| amount | 4 | 0.75 |",
		"| country | 4 | 0.00 |",
		"## Top Concerns",
		"**amount** drifted in 3 of 4 windows",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("recap markdown missing %q:\n%s", want, doc)
		}
	}
}

func TestRenderResultSetMarkdown(t *testing.T) {
	doc := string(NewMarkdown().RenderResultSet(sampleResultSet()))

	for _, want := range []string{
		"# Drift Check",
		"**Drifting:** 1 of 2 scored features",
		"| amount | 0.3500 | significant | yes | 120 |",
		"| country | 0.0400 | stable |  | 120 |",
		"## Not Scored",
		"**missing_col**",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("check markdown missing %q:\n%s", want, doc)
		}
	}
}

func TestMarkdownToHTML(t *testing.T) {
	m := NewMarkdown()
	out := string(m.HTML(m.RenderRecap(sampleRecap())))

	if !strings.Contains(out, "<h1") {
		t.Error("HTML output missing heading")
	}
	if !strings.Contains(out, "<table>") {
		t.Error("HTML output missing the feature table")
	}
	if !strings.Contains(out, "<td>amount</td>") {
		t.Error("HTML output missing feature cells")
	}
}

func TestWriteRecapWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recap.xlsx")
	recap := sampleRecap()

	if err := NewExcel().WriteRecap(path, recap); err != nil {
		t.Fatalf("WriteRecap: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}

	var sawHealth, sawHeader, sawAmount bool
	for _, row := range rows {
		if len(row) >= 2 && row[0] == "Health" && row[1] == "warning" {
			sawHealth = true
		}
		if len(row) > 0 && row[0] == "Feature" {
			sawHeader = true
		}
		if len(row) > 0 && row[0] == "amount" {
			sawAmount = true
		}
	}
	if !sawHealth {
		t.Error("workbook missing the health summary row")
	}
	if !sawHeader {
		t.Error("workbook missing the feature table header")
	}
	if !sawAmount {
		t.Error("workbook missing the amount feature row")
	}
}
