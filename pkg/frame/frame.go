// Package frame implements the immutable column-oriented table at the core
// of lattice.
//
// A Frame pairs an ordered list of column names with a name-to-vector map
// and a fixed row count. Frames never mutate in place: every operation
// returns a new Frame, and because vectors are immutable the cheap path is a
// shallow clone that shares column storage. Frames built from row-major
// input may keep the raw rows around as a cache; clones can drop it.
package frame

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/vector"
)

var frameSeq atomic.Uint64

// Frame is an immutable table of named columns with one shared row count.
type Frame struct {
	id      uint64
	names   []string
	columns map[string]vector.Vector
	rows    int

	// rawRows optionally caches the row-major input the frame was built
	// from. Shallow clones share it, ForceTyped and DropRawCache drop it.
	rawRows [][]interface{}
}

// New builds a frame from ordered column names and their vectors. Names must
// be unique and non-empty, and every vector must have the same length.
func New(names []string, vecs []vector.Vector) (*Frame, error) {
	if len(names) != len(vecs) {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"got %d names for %d columns", len(names), len(vecs))
	}

	columns := make(map[string]vector.Vector, len(names))
	rows := 0
	for i, name := range names {
		if name == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %d has an empty name", i)
		}
		if _, dup := columns[name]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"duplicate column %q", name)
		}
		if vecs[i] == nil {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q is nil", name)
		}
		if i == 0 {
			rows = vecs[i].Len()
		} else if vecs[i].Len() != rows {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q has %d rows, frame has %d", name, vecs[i].Len(), rows)
		}
		columns[name] = vecs[i]
	}

	f := &Frame{
		id:      frameSeq.Add(1),
		names:   append([]string(nil), names...),
		columns: columns,
		rows:    rows,
	}
	logger.Op("frame.new").Debug("frame built",
		zap.Uint64("frame_id", f.id),
		zap.Int("rows", f.rows),
		zap.Int("cols", len(f.names)))
	return f, nil
}

// Empty returns a frame with no columns and no rows.
func Empty() *Frame {
	f, _ := New(nil, nil)
	return f
}

// Names returns the column names in order. The slice is a copy.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

// RowCount returns the number of rows.
func (f *Frame) RowCount() int { return f.rows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.names) }

// HasColumn reports whether name is a column of the frame.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Column returns the vector stored under name.
func (f *Frame) Column(name string) (vector.Vector, error) {
	col, ok := f.columns[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown column %q", name).
			WithDetail("columns", f.Names())
	}
	return col, nil
}

// ColumnAt returns the name and vector at position i.
func (f *Frame) ColumnAt(i int) (string, vector.Vector, error) {
	if i < 0 || i >= len(f.names) {
		return "", nil, errors.Newf(errors.ErrorTypeValidation,
			"column index %d out of range [0, %d)", i, len(f.names))
	}
	name := f.names[i]
	return name, f.columns[name], nil
}

// Get returns the cell at (name, row), nil when the cell is null.
func (f *Frame) Get(name string, row int) (interface{}, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	return col.Get(row)
}

// Dtypes maps each column name to its kind tag.
func (f *Frame) Dtypes() map[string]string {
	out := make(map[string]string, len(f.names))
	for _, name := range f.names {
		out[name] = f.columns[name].Kind().String()
	}
	return out
}

// Row assembles row i as a name-to-value map with nil for null cells.
func (f *Frame) Row(i int) (map[string]interface{}, error) {
	if i < 0 || i >= f.rows {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"row %d out of range [0, %d)", i, f.rows)
	}
	out := make(map[string]interface{}, len(f.names))
	for _, name := range f.names {
		v, err := f.columns[name].Get(i)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// Rows materializes every row. Prefer column access in hot paths.
func (f *Frame) Rows() ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, f.rows)
	for i := 0; i < f.rows; i++ {
		row, err := f.Row(i)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// MemoryUsage estimates the bytes held by all column buffers plus the raw
// row cache when present.
func (f *Frame) MemoryUsage() int64 {
	var size int64
	for _, name := range f.names {
		size += f.columns[name].MemoryUsage()
	}
	if f.rawRows != nil {
		size += int64(len(f.rawRows)) * int64(len(f.names)) * 16
	}
	return size
}

// WithRawRows attaches a row-major cache of the frame's source data. The
// cache rides along on shallow clones until dropped.
func (f *Frame) WithRawRows(rows [][]interface{}) *Frame {
	g := f.shallow()
	g.rawRows = rows
	return g
}

// HasRawCache reports whether the frame still carries its row-major source.
func (f *Frame) HasRawCache() bool { return f.rawRows != nil }

// RawRow returns row i from the cache, or assembles it from the columns when
// no cache is attached. The returned slice follows column order.
func (f *Frame) RawRow(i int) ([]interface{}, error) {
	if i < 0 || i >= f.rows {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"row %d out of range [0, %d)", i, f.rows)
	}
	if f.rawRows != nil {
		return f.rawRows[i], nil
	}
	out := make([]interface{}, len(f.names))
	for j, name := range f.names {
		v, err := f.columns[name].Get(i)
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

// shallow copies the frame header, sharing column storage and the raw cache.
func (f *Frame) shallow() *Frame {
	columns := make(map[string]vector.Vector, len(f.columns))
	for name, col := range f.columns {
		columns[name] = col
	}
	return &Frame{
		id:      frameSeq.Add(1),
		names:   append([]string(nil), f.names...),
		columns: columns,
		rows:    f.rows,
		rawRows: f.rawRows,
	}
}
