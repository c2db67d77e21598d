package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"driftwatch/domain/core"
)

// Inference thresholds. A column parses as numeric when at least 90% of
// its non-empty cells are numbers; low-cardinality numeric codes fall
// back to categorical.
const (
	numericRatioThreshold   = 0.9
	categoricalUniqueLimit  = 20
	categoricalUniqueRatio  = 0.1
	inferenceSampleMaxCells = 500
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// FromRecords builds a frame from header-plus-string-rows data as read
// from CSV or a spreadsheet. Column kinds are inferred per column. When
// timeColumn names a column it becomes the frame's time index instead
// of a feature.
func FromRecords(headers []string, records [][]string, timeColumn string) (*MemoryFrame, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no columns", core.ErrDataInvalid)
	}

	timeIdx := -1
	if timeColumn != "" {
		for i, h := range headers {
			if h == timeColumn {
				timeIdx = i
				break
			}
		}
		if timeIdx < 0 {
			return nil, fmt.Errorf("%w: time column %s", core.ErrFeatureMissing, timeColumn)
		}
	}

	builder := NewBuilder()
	for i, header := range headers {
		if header == "" {
			return nil, fmt.Errorf("%w: empty header at column %d", core.ErrDataInvalid, i)
		}
		if i == timeIdx {
			continue
		}
		cells := columnCells(records, i)
		if inferNumeric(cells) {
			builder.Numeric(header, parseFloats(cells)...)
		} else {
			builder.Categorical(header, cells...)
		}
	}

	if timeIdx >= 0 {
		times, err := parseTimes(columnCells(records, timeIdx), timeColumn)
		if err != nil {
			return nil, err
		}
		builder.Times(times...)
	}

	return builder.Build()
}

func columnCells(records [][]string, col int) []string {
	cells := make([]string, len(records))
	for i, row := range records {
		if col < len(row) {
			cells[i] = strings.TrimSpace(row[col])
		}
	}
	return cells
}

// inferNumeric decides a column's kind from a sample of its cells
func inferNumeric(cells []string) bool {
	sample := cells
	if len(sample) > inferenceSampleMaxCells {
		sample = sample[:inferenceSampleMaxCells]
	}

	numeric := 0
	nonEmpty := 0
	unique := make(map[string]bool)
	allIntegers := true
	for _, cell := range sample {
		if cell == "" {
			continue
		}
		nonEmpty++
		unique[cell] = true
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			numeric++
			if v != math.Trunc(v) {
				allIntegers = false
			}
		}
	}
	if nonEmpty == 0 {
		return false
	}
	if float64(numeric)/float64(nonEmpty) < numericRatioThreshold {
		return false
	}

	// Integer codes with few distinct values behave like categories
	uniqueRatio := float64(len(unique)) / float64(nonEmpty)
	if allIntegers && len(unique) <= categoricalUniqueLimit && uniqueRatio < categoricalUniqueRatio {
		return false
	}
	return true
}

// parseFloats converts cells to floats, keeping row alignment by
// marking blanks and junk as NaN
func parseFloats(cells []string) []float64 {
	vals := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = v
	}
	return vals
}

func parseTimes(cells []string, column string) ([]time.Time, error) {
	times := make([]time.Time, len(cells))
	for i, cell := range cells {
		if cell == "" {
			return nil, fmt.Errorf("%w: empty %s value at row %d", core.ErrDataInvalid, column, i+1)
		}
		t, err := parseTime(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: %s value %q at row %d", core.ErrDataInvalid, column, cell, i+1)
		}
		times[i] = t
	}
	return times, nil
}

func parseTime(cell string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", cell)
}
