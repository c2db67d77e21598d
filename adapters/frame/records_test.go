package frame

import (
	"errors"
	"math"
	"testing"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
)

func TestFromRecordsInfersKinds(t *testing.T) {
	headers := []string{"amount", "country"}
	records := [][]string{
		{"10.5", "US"},
		{"11", "DE"},
		{"12.25", "US"},
	}
	f, err := FromRecords(headers, records, "")
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	amount, _ := f.Column("amount")
	if amount.Kind() != drift.KindNumeric {
		t.Errorf("amount inferred as %s, want numeric", amount.Kind())
	}
	if got := amount.Floats(); got[0] != 10.5 || got[2] != 12.25 {
		t.Errorf("amount values = %v", got)
	}

	country, _ := f.Column("country")
	if country.Kind() != drift.KindCategorical {
		t.Errorf("country inferred as %s, want categorical", country.Kind())
	}
}

func TestFromRecordsJunkBecomesNaN(t *testing.T) {
	records := [][]string{
		{"1"}, {"2"}, {"3"}, {"4"}, {"5"},
		{"6"}, {"7"}, {"8"}, {"9"}, {"n/a"},
	}
	f, err := FromRecords([]string{"score"}, records, "")
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	col, _ := f.Column("score")
	if col.Kind() != drift.KindNumeric {
		t.Fatalf("90%% numeric column inferred as %s", col.Kind())
	}
	vals := col.Floats()
	if !math.IsNaN(vals[9]) {
		t.Errorf("junk cell parsed to %v, want NaN", vals[9])
	}
	if vals[0] != 1 || vals[8] != 9 {
		t.Errorf("numeric cells mangled: %v", vals)
	}
}

func TestFromRecordsMostlyTextIsCategorical(t *testing.T) {
	records := [][]string{
		{"1"}, {"2"}, {"low"}, {"high"}, {"low"},
	}
	f, err := FromRecords([]string{"tier"}, records, "")
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	col, _ := f.Column("tier")
	if col.Kind() != drift.KindCategorical {
		t.Errorf("mixed column inferred as %s, want categorical", col.Kind())
	}
	if got := col.Labels(); len(got) != 5 || got[2] != "low" {
		t.Errorf("labels = %v", got)
	}
}

func TestFromRecordsIntegerCodesAreCategorical(t *testing.T) {
	records := make([][]string, 100)
	codes := []string{"1", "2", "3", "4", "5"}
	for i := range records {
		records[i] = []string{codes[i%len(codes)]}
	}
	f, err := FromRecords([]string{"segment"}, records, "")
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	col, _ := f.Column("segment")
	if col.Kind() != drift.KindCategorical {
		t.Errorf("low-cardinality integer codes inferred as %s, want categorical", col.Kind())
	}
}

func TestFromRecordsTimeColumn(t *testing.T) {
	headers := []string{"ts", "amount"}
	records := [][]string{
		{"2024-03-10T09:00:00Z", "1"},
		{"2024-03-11 10:30:00", "2"},
		{"2024-03-12", "3"},
	}
	f, err := FromRecords(headers, records, "ts")
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}

	if got := f.Columns(); len(got) != 1 || got[0] != "amount" {
		t.Errorf("Columns() = %v, time column should not be a feature", got)
	}
	times := f.Times()
	if len(times) != 3 {
		t.Fatalf("Times() has %d entries, want 3", len(times))
	}
	want := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	if !times[0].Equal(want) {
		t.Errorf("times[0] = %s, want %s", times[0], want)
	}
	if times[2].Day() != 12 {
		t.Errorf("times[2] = %s, want March 12", times[2])
	}
}

func TestFromRecordsMissingTimeColumn(t *testing.T) {
	_, err := FromRecords([]string{"amount"}, [][]string{{"1"}}, "ts")
	if !errors.Is(err, core.ErrFeatureMissing) {
		t.Errorf("error = %v, want ErrFeatureMissing", err)
	}
}

func TestFromRecordsBadTimeValue(t *testing.T) {
	records := [][]string{
		{"2024-03-10", "1"},
		{"not a date", "2"},
	}
	_, err := FromRecords([]string{"ts", "amount"}, records, "ts")
	if !core.IsDataError(err) {
		t.Errorf("error = %v, want a data error", err)
	}
}

func TestFromRecordsShortRowsPadded(t *testing.T) {
	records := [][]string{
		{"a", "1"},
		{"b"},
	}
	f, err := FromRecords([]string{"label", "n"}, records, "")
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	col, _ := f.Column("n")
	if col.Len() != 2 {
		t.Errorf("short row broke alignment: len = %d", col.Len())
	}
}
