package window

import (
	"errors"
	"testing"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/ports"
)

type testColumn struct {
	name   string
	kind   drift.FeatureKind
	floats []float64
	labels []string
}

func (c testColumn) Name() string            { return c.name }
func (c testColumn) Kind() drift.FeatureKind { return c.kind }
func (c testColumn) Floats() []float64       { return c.floats }
func (c testColumn) Labels() []string        { return c.labels }

func (c testColumn) Len() int {
	if c.kind == drift.KindCategorical {
		return len(c.labels)
	}
	return len(c.floats)
}

type testFrame struct {
	names []string
	cols  map[string]testColumn
	times []time.Time
}

func (f testFrame) Columns() []string { return f.names }

func (f testFrame) Column(name string) (ports.Column, bool) {
	col, ok := f.cols[name]
	return col, ok
}

func (f testFrame) NumRows() int {
	if len(f.names) == 0 {
		return 0
	}
	return f.cols[f.names[0]].Len()
}

func (f testFrame) Times() []time.Time { return f.times }

func (f testFrame) Slice(first, rows int) ports.TimeFrame {
	sliced := testFrame{names: f.names, cols: map[string]testColumn{}, times: f.times[first : first+rows]}
	for name, col := range f.cols {
		col.floats = col.floats[first : first+rows]
		sliced.cols[name] = col
	}
	return sliced
}

func frameOfSize(rows int, times ...time.Time) testFrame {
	vals := make([]float64, rows)
	for i := range vals {
		vals[i] = float64(i)
	}
	return testFrame{
		names: []string{"amount"},
		cols:  map[string]testColumn{"amount": {name: "amount", kind: drift.KindNumeric, floats: vals}},
		times: times,
	}
}

func TestByCountPartition(t *testing.T) {
	cases := []struct {
		rows     int
		size     int
		want     int
		lastRows int
	}{
		{10, 3, 4, 1},
		{9, 3, 3, 3},
		{1, 5, 1, 1},
		{100, 50, 2, 50},
		{7, 7, 1, 7},
	}
	for _, tc := range cases {
		spans, err := ByCount(frameOfSize(tc.rows), tc.size)
		if err != nil {
			t.Fatalf("ByCount(%d rows, size %d): %v", tc.rows, tc.size, err)
		}
		if len(spans) != tc.want {
			t.Errorf("ByCount(%d, %d) = %d windows, want %d", tc.rows, tc.size, len(spans), tc.want)
			continue
		}
		if got := spans[len(spans)-1].Rows; got != tc.lastRows {
			t.Errorf("ByCount(%d, %d) final window has %d rows, want %d", tc.rows, tc.size, got, tc.lastRows)
		}

		covered := 0
		for i, s := range spans {
			if s.Index != i {
				t.Errorf("span %d carries index %d", i, s.Index)
			}
			if s.FirstRow != covered {
				t.Errorf("span %d starts at row %d, want %d", i, s.FirstRow, covered)
			}
			covered += s.Rows
		}
		if covered != tc.rows {
			t.Errorf("windows cover %d rows, want %d", covered, tc.rows)
		}
	}
}

func TestByCountRejectsBadSize(t *testing.T) {
	_, err := ByCount(frameOfSize(10), 0)
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestByCountEmptyFrame(t *testing.T) {
	_, err := ByCount(frameOfSize(0), 5)
	if !errors.Is(err, core.ErrEmptyStream) {
		t.Errorf("error = %v, want ErrEmptyStream", err)
	}
}

func TestByFrequencyDayBuckets(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	times := []time.Time{
		base, base.Add(4 * time.Hour),
		base.AddDate(0, 0, 1), base.AddDate(0, 0, 1).Add(time.Hour), base.AddDate(0, 0, 1).Add(2 * time.Hour),
		base.AddDate(0, 0, 2),
	}
	spans, err := ByFrequency(frameOfSize(len(times), times...), drift.FreqDay)
	if err != nil {
		t.Fatalf("ByFrequency: %v", err)
	}
	if len(spans) != 3 {
		t.Fatalf("got %d windows, want 3", len(spans))
	}

	wantRows := []int{2, 3, 1}
	for i, s := range spans {
		if s.Rows != wantRows[i] {
			t.Errorf("window %d has %d rows, want %d", i, s.Rows, wantRows[i])
		}
		wantStart := drift.FreqDay.Truncate(times[s.FirstRow])
		if !s.Start.Time().Equal(wantStart) {
			t.Errorf("window %d starts %s, want %s", i, s.Start, wantStart)
		}
		if !s.End.Time().Equal(wantStart.AddDate(0, 0, 1)) {
			t.Errorf("window %d ends %s, want next midnight", i, s.End)
		}
	}
}

func TestByFrequencyWeekBuckets(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		monday, monday.AddDate(0, 0, 3), monday.AddDate(0, 0, 6),
		monday.AddDate(0, 0, 7),
	}
	spans, err := ByFrequency(frameOfSize(len(times), times...), drift.FreqWeek)
	if err != nil {
		t.Fatalf("ByFrequency: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d windows, want 2", len(spans))
	}
	if spans[0].Rows != 3 || spans[1].Rows != 1 {
		t.Errorf("window rows = %d, %d, want 3, 1", spans[0].Rows, spans[1].Rows)
	}
}

func TestByFrequencyRequiresFrequency(t *testing.T) {
	times := []time.Time{time.Now()}
	_, err := ByFrequency(frameOfSize(1, times...), drift.FreqNone)
	if !errors.Is(err, core.ErrUnknownFrequency) {
		t.Errorf("error = %v, want ErrUnknownFrequency", err)
	}
}

func TestByFrequencyTimeIndexMismatch(t *testing.T) {
	frame := frameOfSize(3, time.Now())
	_, err := ByFrequency(frame, drift.FreqDay)
	if !core.IsDataError(err) {
		t.Errorf("error = %v, want a data error", err)
	}
}

func TestCapTrailingTrimsToRecentRows(t *testing.T) {
	spans := []drift.WindowSpan{
		{Index: 0, FirstRow: 0, Rows: 5},
		{Index: 1, FirstRow: 5, Rows: 2},
		{Index: 2, FirstRow: 7, Rows: 7},
	}
	capped := CapTrailing(spans, 3)

	if capped[0].FirstRow != 2 || capped[0].Rows != 3 {
		t.Errorf("span 0 = rows %d from %d, want 3 from 2", capped[0].Rows, capped[0].FirstRow)
	}
	if capped[1].FirstRow != 5 || capped[1].Rows != 2 {
		t.Errorf("span 1 = rows %d from %d, want untouched 2 from 5", capped[1].Rows, capped[1].FirstRow)
	}
	if capped[2].FirstRow != 11 || capped[2].Rows != 3 {
		t.Errorf("span 2 = rows %d from %d, want 3 from 11", capped[2].Rows, capped[2].FirstRow)
	}
	if len(capped) != 3 {
		t.Errorf("cap dropped windows: %d remain, want 3", len(capped))
	}
}

func TestCapTrailingDisabled(t *testing.T) {
	spans := []drift.WindowSpan{{Rows: 9}}
	if got := CapTrailing(spans, 0); got[0].Rows != 9 {
		t.Errorf("cap 0 trimmed rows to %d", got[0].Rows)
	}
}

func TestIterRestartable(t *testing.T) {
	frame := frameOfSize(10)
	spans, err := ByCount(frame, 4)
	if err != nil {
		t.Fatalf("ByCount: %v", err)
	}
	seq := Iter(frame, spans)

	for pass := 0; pass < 2; pass++ {
		var rows []int
		for span, win := range seq {
			if win.NumRows() != span.Rows {
				t.Errorf("pass %d: window frame has %d rows, span says %d", pass, win.NumRows(), span.Rows)
			}
			rows = append(rows, win.NumRows())
		}
		if len(rows) != 3 || rows[0] != 4 || rows[2] != 2 {
			t.Errorf("pass %d: window rows = %v, want [4 4 2]", pass, rows)
		}
	}
}

func TestIterEarlyStop(t *testing.T) {
	frame := frameOfSize(10)
	spans, _ := ByCount(frame, 2)

	seen := 0
	for range Iter(frame, spans) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("consumed %d windows before stopping, want 2", seen)
	}
}

func TestSliceView(t *testing.T) {
	frame := frameOfSize(6)
	view := Slice(frame, 2, 3)

	if view.NumRows() != 3 {
		t.Fatalf("view has %d rows, want 3", view.NumRows())
	}
	col, ok := view.Column("amount")
	if !ok {
		t.Fatal("amount column missing from view")
	}
	got := col.Floats()
	want := []float64{2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("view floats = %v, want %v", got, want)
			break
		}
	}
	if col.Len() != 3 {
		t.Errorf("view column len = %d, want 3", col.Len())
	}
}

func TestSliceClampsBounds(t *testing.T) {
	frame := frameOfSize(4)
	if got := Slice(frame, 3, 10).NumRows(); got != 1 {
		t.Errorf("over-long slice has %d rows, want 1", got)
	}
	if got := Slice(frame, -2, 2).NumRows(); got != 2 {
		t.Errorf("negative-first slice has %d rows, want 2", got)
	}
	if got := Slice(frame, 9, 2).NumRows(); got != 0 {
		t.Errorf("past-end slice has %d rows, want 0", got)
	}
}
