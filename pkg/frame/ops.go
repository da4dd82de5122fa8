package frame

import (
	"sort"
	"strings"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/pkg/agg"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/vector"
)

// Select returns a frame with only the named columns, in the given order.
// Selecting columns invalidates the raw row cache.
func (f *Frame) Select(names ...string) (*Frame, error) {
	vecs := make([]vector.Vector, len(names))
	for i, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		vecs[i] = col
	}
	return New(names, vecs)
}

// Drop returns a frame without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	dropped := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := f.Column(name); err != nil {
			return nil, err
		}
		dropped[name] = true
	}
	keep := make([]string, 0, len(f.names))
	for _, name := range f.names {
		if !dropped[name] {
			keep = append(keep, name)
		}
	}
	return f.Select(keep...)
}

// Rename returns a frame with columns renamed per the old-to-new mapping.
func (f *Frame) Rename(renames map[string]string) (*Frame, error) {
	for old := range renames {
		if _, err := f.Column(old); err != nil {
			return nil, err
		}
	}

	names := make([]string, len(f.names))
	vecs := make([]vector.Vector, len(f.names))
	for i, name := range f.names {
		out := name
		if repl, ok := renames[name]; ok {
			out = repl
		}
		names[i] = out
		vecs[i] = f.columns[name]
	}
	return New(names, vecs)
}

// WithColumn returns a frame with data appended as a new column, or
// replacing an existing column of the same name. Backend selection runs on
// data unless it is already a Vector.
func (f *Frame) WithColumn(name string, data interface{}) (*Frame, error) {
	col, err := vector.New(data, vector.Options{})
	if err != nil {
		return nil, err
	}
	return f.WithVector(name, col)
}

// WithVector is WithColumn for a pre-built vector.
func (f *Frame) WithVector(name string, col vector.Vector) (*Frame, error) {
	if name == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "column name is empty")
	}
	if len(f.names) > 0 && col.Len() != f.rows {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"column %q has %d rows, frame has %d", name, col.Len(), f.rows)
	}

	names := f.Names()
	if !f.HasColumn(name) {
		names = append(names, name)
	}
	vecs := make([]vector.Vector, len(names))
	for i, n := range names {
		if n == name {
			vecs[i] = col
		} else {
			vecs[i] = f.columns[n]
		}
	}
	return New(names, vecs)
}

// Head returns the first n rows, fewer when the frame is shorter.
func (f *Frame) Head(n int) (*Frame, error) {
	if n < 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "negative row count %d", n)
	}
	if n > f.rows {
		n = f.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.Take(idx)
}

// Tail returns the last n rows, fewer when the frame is shorter.
func (f *Frame) Tail(n int) (*Frame, error) {
	if n < 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "negative row count %d", n)
	}
	if n > f.rows {
		n = f.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = f.rows - n + i
	}
	return f.Take(idx)
}

// Take gathers the given row indices into a new frame, preserving column
// kinds and backends. A negative index produces a null row in every column.
func (f *Frame) Take(indices []int) (*Frame, error) {
	vecs := make([]vector.Vector, len(f.names))
	for ci, name := range f.names {
		col := f.columns[name]
		values := make([]interface{}, len(indices))
		for ri, idx := range indices {
			if idx < 0 {
				continue
			}
			v, err := col.Get(idx)
			if err != nil {
				return nil, err
			}
			values[ri] = v
		}
		out, err := vector.Materialize(values, col.Kind(), col.Backend())
		if err != nil {
			return nil, err
		}
		vecs[ci] = out
	}
	return New(f.Names(), vecs)
}

// Filter returns the rows for which pred is true, in their original order.
// A predicate error aborts the whole operation.
func (f *Frame) Filter(pred func(Row) (bool, error)) (*Frame, error) {
	if pred == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil predicate")
	}
	idx := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		keep, err := pred(Row{f: f, idx: i})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation,
				"filter predicate failed")
		}
		if keep {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Row is a lightweight view of one frame row handed to predicates and
// row-wise transforms.
type Row struct {
	f   *Frame
	idx int
}

// RowAt returns a row view without materializing the row. The index is not
// bounds-checked until a cell is read.
func RowAt(f *Frame, i int) Row {
	return Row{f: f, idx: i}
}

// Index returns the row's position in the frame.
func (r Row) Index() int { return r.idx }

// Value returns the cell under name, nil when null.
func (r Row) Value(name string) (interface{}, error) {
	return r.f.Get(name, r.idx)
}

// Values returns the whole row in column order.
func (r Row) Values() ([]interface{}, error) {
	return r.f.RawRow(r.idx)
}

// SortKey names a column to sort by and its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// SortBy stably sorts rows by the given keys. Numeric cells compare
// numerically, anything else by canonical string form. Null sorts as the
// smallest value.
func (f *Frame) SortBy(sortKeys ...SortKey) (*Frame, error) {
	if len(sortKeys) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no sort keys")
	}
	cols := make([]vector.Vector, len(sortKeys))
	for i, k := range sortKeys {
		col, err := f.Column(k.Column)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	idx := make([]int, f.rows)
	for i := range idx {
		idx[i] = i
	}
	var iterErr error
	sort.SliceStable(idx, func(a, b int) bool {
		for i, col := range cols {
			va, err := col.Get(idx[a])
			if err != nil {
				iterErr = err
				return false
			}
			vb, err := col.Get(idx[b])
			if err != nil {
				iterErr = err
				return false
			}
			c := compareCells(va, vb)
			if c == 0 {
				continue
			}
			if sortKeys[i].Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if iterErr != nil {
		return nil, iterErr
	}
	return f.Take(idx)
}

// compareCells orders two boxed cells: nil first, numerics by value, the
// rest by canonical string form.
func compareCells(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	fa, aok := vector.AsFloat64(a)
	fb, bok := vector.AsFloat64(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(keys.Canonical(a), keys.Canonical(b))
}

// Describe summarizes every numeric column with count, mean, std, min and
// max. The result has one row per numeric column.
func (f *Frame) Describe() (*Frame, error) {
	numeric := make([]string, 0, len(f.names))
	for _, name := range f.names {
		if f.columns[name].Kind().IsNumeric() {
			numeric = append(numeric, name)
		}
	}

	colNames := make([]interface{}, len(numeric))
	counts := make([]float64, len(numeric))
	means := make([]float64, len(numeric))
	stds := make([]float64, len(numeric))
	mins := make([]float64, len(numeric))
	maxs := make([]float64, len(numeric))

	for i, name := range numeric {
		floats, err := f.columns[name].Float64s()
		if err != nil {
			return nil, err
		}
		sample := agg.Clean(floats)
		colNames[i] = name
		counts[i] = agg.Count(sample)
		means[i] = agg.Mean(sample)
		stds[i] = agg.Std(sample)
		mins[i] = agg.Min(sample)
		maxs[i] = agg.Max(sample)
	}

	nameCol, err := vector.New(colNames, vector.Options{NeverArrow: true})
	if err != nil {
		return nil, err
	}
	return New(
		[]string{"column", "count", "mean", "std", "min", "max"},
		[]vector.Vector{
			nameCol,
			vector.FromFloat64s(counts),
			vector.FromFloat64s(means),
			vector.FromFloat64s(stds),
			vector.FromFloat64s(mins),
			vector.FromFloat64s(maxs),
		},
	)
}
