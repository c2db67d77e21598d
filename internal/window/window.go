package window

import (
	"fmt"
	"iter"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/ports"
)

// ByCount partitions the frame into consecutive windows of size rows.
// The final window keeps whatever remains, so a frame of N rows always
// yields ceil(N/size) windows and every row lands in exactly one.
func ByCount(frame ports.Frame, size int) ([]drift.WindowSpan, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: window size %d", core.ErrConfiguration, size)
	}
	total := frame.NumRows()
	if total == 0 {
		return nil, fmt.Errorf("%w: no rows to window", core.ErrEmptyStream)
	}

	spans := make([]drift.WindowSpan, 0, (total+size-1)/size)
	for first := 0; first < total; first += size {
		rows := size
		if first+rows > total {
			rows = total - first
		}
		spans = append(spans, drift.WindowSpan{
			Index:    len(spans),
			FirstRow: first,
			Rows:     rows,
		})
	}
	return spans, nil
}

// ByFrequency partitions the frame into calendar buckets. Rows are
// expected in time order; a new window opens whenever a row crosses
// into the next period. Spans carry the period boundaries.
func ByFrequency(frame ports.TimeFrame, freq drift.Frequency) ([]drift.WindowSpan, error) {
	if freq == drift.FreqNone {
		return nil, fmt.Errorf("%w: no frequency given", core.ErrUnknownFrequency)
	}
	times := frame.Times()
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no rows to window", core.ErrEmptyStream)
	}
	if len(times) != frame.NumRows() {
		return nil, fmt.Errorf("%w: %d time index entries for %d rows", core.ErrDataInvalid, len(times), frame.NumRows())
	}

	var spans []drift.WindowSpan
	first := 0
	period := freq.Truncate(times[0])
	for i := 1; i <= len(times); i++ {
		if i < len(times) && freq.Truncate(times[i]).Equal(period) {
			continue
		}
		spans = append(spans, drift.WindowSpan{
			Index:    len(spans),
			Start:    core.NewTimestamp(period),
			End:      core.NewTimestamp(freq.Next(period)),
			FirstRow: first,
			Rows:     i - first,
		})
		if i < len(times) {
			first = i
			period = freq.Truncate(times[i])
		}
	}
	return spans, nil
}

// CapTrailing trims each span to its last cap rows. Buckets are never
// dropped, only shortened, so a row cap combined with calendar windows
// keeps one window per period. A cap below 1 is a no-op.
func CapTrailing(spans []drift.WindowSpan, cap int) []drift.WindowSpan {
	if cap < 1 {
		return spans
	}
	capped := make([]drift.WindowSpan, len(spans))
	for i, s := range spans {
		if s.Rows > cap {
			s.FirstRow += s.Rows - cap
			s.Rows = cap
		}
		capped[i] = s
	}
	return capped
}

// Iter yields each span with its sliced frame. The sequence is lazy,
// slices are built only as the caller advances, and ranging over it
// again replays the windows from the start.
func Iter(frame ports.Frame, spans []drift.WindowSpan) iter.Seq2[drift.WindowSpan, ports.Frame] {
	return func(yield func(drift.WindowSpan, ports.Frame) bool) {
		for _, span := range spans {
			if !yield(span, Slice(frame, span.FirstRow, span.Rows)) {
				return
			}
		}
	}
}

// Slice returns a row-range view [first, first+rows) of the frame.
// The view shares the frame's backing data. Out-of-range bounds are
// clamped.
func Slice(frame ports.Frame, first, rows int) ports.Frame {
	total := frame.NumRows()
	if first < 0 {
		first = 0
	}
	if first > total {
		first = total
	}
	if first+rows > total {
		rows = total - first
	}
	if rows < 0 {
		rows = 0
	}
	return sliceFrame{base: frame, first: first, rows: rows}
}

type sliceFrame struct {
	base  ports.Frame
	first int
	rows  int
}

func (f sliceFrame) Columns() []string { return f.base.Columns() }
func (f sliceFrame) NumRows() int      { return f.rows }

func (f sliceFrame) Column(name string) (ports.Column, bool) {
	col, ok := f.base.Column(name)
	if !ok {
		return nil, false
	}
	return sliceColumn{base: col, first: f.first, rows: f.rows}, true
}

type sliceColumn struct {
	base  ports.Column
	first int
	rows  int
}

func (c sliceColumn) Name() string            { return c.base.Name() }
func (c sliceColumn) Kind() drift.FeatureKind { return c.base.Kind() }
func (c sliceColumn) Len() int                { return c.rows }

func (c sliceColumn) Floats() []float64 {
	vals := c.base.Floats()
	if len(vals) == 0 {
		return nil
	}
	return vals[c.first : c.first+c.rows]
}

func (c sliceColumn) Labels() []string {
	labels := c.base.Labels()
	if len(labels) == 0 {
		return nil
	}
	return labels[c.first : c.first+c.rows]
}
