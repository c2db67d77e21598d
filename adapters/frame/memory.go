package frame

import (
	"fmt"
	"time"

	"driftwatch/domain/core"
	"driftwatch/domain/drift"
	"driftwatch/ports"
)

// MemoryFrame holds columnar data in memory. It is the concrete frame
// behind the CSV and Excel readers and the one tests build directly.
type MemoryFrame struct {
	names []string
	cols  map[string]memColumn
	times []time.Time
	rows  int
}

var _ ports.TimeFrame = (*MemoryFrame)(nil)

type memColumn struct {
	name   string
	kind   drift.FeatureKind
	floats []float64
	labels []string
}

func (c memColumn) Name() string            { return c.name }
func (c memColumn) Kind() drift.FeatureKind { return c.kind }
func (c memColumn) Floats() []float64       { return c.floats }
func (c memColumn) Labels() []string        { return c.labels }

func (c memColumn) Len() int {
	if c.kind == drift.KindCategorical {
		return len(c.labels)
	}
	return len(c.floats)
}

// Columns lists feature names in insertion order
func (f *MemoryFrame) Columns() []string { return f.names }

// Column fetches one feature by name
func (f *MemoryFrame) Column(name string) (ports.Column, bool) {
	col, ok := f.cols[name]
	if !ok {
		return nil, false
	}
	return col, true
}

// NumRows returns the shared row count
func (f *MemoryFrame) NumRows() int { return f.rows }

// Times returns the row time index, nil when the frame has none
func (f *MemoryFrame) Times() []time.Time { return f.times }

// Slice returns a contiguous row-range view sharing the backing data
func (f *MemoryFrame) Slice(first, rows int) ports.TimeFrame {
	if first < 0 {
		first = 0
	}
	if first > f.rows {
		first = f.rows
	}
	if first+rows > f.rows {
		rows = f.rows - first
	}
	if rows < 0 {
		rows = 0
	}

	sliced := &MemoryFrame{
		names: f.names,
		cols:  make(map[string]memColumn, len(f.cols)),
		rows:  rows,
	}
	for name, col := range f.cols {
		if col.kind == drift.KindCategorical {
			col.labels = col.labels[first : first+rows]
		} else {
			col.floats = col.floats[first : first+rows]
		}
		sliced.cols[name] = col
	}
	if f.times != nil {
		sliced.times = f.times[first : first+rows]
	}
	return sliced
}

// Builder assembles a MemoryFrame column by column. The first column
// fixes the row count; later mismatches surface at Build.
type Builder struct {
	frame *MemoryFrame
	err   error
}

// NewBuilder starts an empty frame
func NewBuilder() *Builder {
	return &Builder{frame: &MemoryFrame{cols: make(map[string]memColumn), rows: -1}}
}

// Numeric adds a float column
func (b *Builder) Numeric(name string, vals ...float64) *Builder {
	b.add(memColumn{name: name, kind: drift.KindNumeric, floats: vals})
	return b
}

// Categorical adds a label column
func (b *Builder) Categorical(name string, labels ...string) *Builder {
	b.add(memColumn{name: name, kind: drift.KindCategorical, labels: labels})
	return b
}

// Times attaches a row time index
func (b *Builder) Times(times ...time.Time) *Builder {
	if b.err != nil {
		return b
	}
	b.frame.times = times
	return b
}

func (b *Builder) add(col memColumn) {
	if b.err != nil {
		return
	}
	if _, exists := b.frame.cols[col.name]; exists {
		b.err = fmt.Errorf("%w: duplicate column %s", core.ErrDataInvalid, col.name)
		return
	}
	if b.frame.rows < 0 {
		b.frame.rows = col.Len()
	} else if col.Len() != b.frame.rows {
		b.err = fmt.Errorf("%w: column %s has %d rows, frame has %d", core.ErrDataInvalid, col.name, col.Len(), b.frame.rows)
		return
	}
	b.frame.names = append(b.frame.names, col.name)
	b.frame.cols[col.name] = col
}

// Build finalizes the frame
func (b *Builder) Build() (*MemoryFrame, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.frame.rows < 0 {
		b.frame.rows = 0
	}
	if b.frame.times != nil && len(b.frame.times) != b.frame.rows {
		return nil, fmt.Errorf("%w: %d time index entries for %d rows", core.ErrDataInvalid, len(b.frame.times), b.frame.rows)
	}
	return b.frame, nil
}

// MustBuild is Build for hand-assembled frames in tests and examples
func (b *Builder) MustBuild() *MemoryFrame {
	frame, err := b.Build()
	if err != nil {
		panic(err)
	}
	return frame
}
