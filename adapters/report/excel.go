package report

import (
	"fmt"

	"driftwatch/domain/drift"

	"github.com/xuri/excelize/v2"
)

// Excel writes recap workbooks for spreadsheet consumers
type Excel struct{}

// NewExcel creates the workbook writer
func NewExcel() *Excel {
	return &Excel{}
}

// WriteRecap writes one monitoring recap to an xlsx file: a summary
// block followed by the per-feature table
func (e *Excel) WriteRecap(path string, recap *drift.Recap) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"

	summary := [][]interface{}{
		{"Run", recap.RunID.String()},
		{"Health", string(recap.Health)},
		{"Windows", recap.Windows},
		{"Drift events", recap.DriftEvents},
		{"Overall drift rate", recap.OverallDriftRate},
	}
	if !recap.Start.IsZero() {
		summary = append(summary,
			[]interface{}{"Start", recap.Start.String()},
			[]interface{}{"End", recap.End.String()},
		)
	}

	row := 1
	for _, pair := range summary {
		for c, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write summary cell: %w", err)
			}
		}
		row++
	}

	// Feature table below the summary, separated by one blank row
	row++
	headers := []string{"Feature", "Windows", "Drift Periods", "Drift Rate", "Avg Score", "Max Score", "Min Score", "Latest Score", "Trend"}
	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, row)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for _, fr := range recap.Features {
		row++
		values := []interface{}{
			fr.Feature, fr.Periods, fr.DriftPeriods, fr.DriftRate,
			fr.AvgScore, fr.MaxScore, fr.MinScore, fr.LatestScore, string(fr.Trend),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write feature cell: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
