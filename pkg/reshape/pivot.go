// Package reshape implements pivot, melt, stack and unstack between long and
// wide frame layouts.
//
// Grouping keys travel as canonical composite strings. Distinct values are
// ordered lexicographically by canonical form, and the reserved null token
// sorts before every canonical value, so null groups always come first. That
// ordering governs output row and column order and is deterministic across
// runs.
package reshape

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/internal/parallel"
	"github.com/latticedata/lattice/pkg/agg"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// nullColumnName labels output columns derived from a null column key.
const nullColumnName = "null"

// PivotOptions configures Pivot.
type PivotOptions struct {
	// Index columns become the output's row identity. Output rows are the
	// Cartesian product of each index column's distinct values, so
	// combinations that never occur still get a (null-filled) row.
	Index []string
	// Columns are the pivot columns whose distinct values spread into output
	// columns, again as a Cartesian product when more than one is given.
	Columns []string
	// Value is the numeric column aggregated into the spread cells.
	Value string
	// Aggs names the reducers to apply, "sum" when empty. With more than one
	// reducer each spread column is emitted once per reducer.
	Aggs []string
}

// Pivot spreads a long frame into a wide one. Source rows are bucketed by
// (index key, column key); each bucket is reduced after stripping nulls, so
// the default sum counts null cells as zero. Buckets the Cartesian product
// implies but the data never fills come back as null cells.
func Pivot(ctx context.Context, f *frame.Frame, opts PivotOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("pivot", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	if len(opts.Index) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "pivot needs at least one index column")
	}
	if len(opts.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "pivot needs at least one pivot column")
	}
	if opts.Value == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "pivot needs a value column")
	}

	idxCols, err := frame.ValidateColumns(f, opts.Index...)
	if err != nil {
		return nil, err
	}
	pivCols, err := frame.ValidateColumns(f, opts.Columns...)
	if err != nil {
		return nil, err
	}
	valueFloats, err := frame.ValidateNumeric(f, opts.Value)
	if err != nil {
		return nil, err
	}

	aggNames := opts.Aggs
	if len(aggNames) == 0 {
		aggNames = []string{"sum"}
	}
	aggFns := make([]agg.Func, len(aggNames))
	for i, name := range aggNames {
		fn, err := agg.Lookup(name)
		if err != nil {
			return nil, err
		}
		aggFns[i] = fn
	}

	// One pass over the source: record distinct values per key column and
	// bucket the value cells under their composite keys.
	idxDistinct := newDistinctSets(len(idxCols))
	pivDistinct := newDistinctSets(len(pivCols))
	buckets := make(map[string]map[string][]float64)

	idxBuf := make([]string, len(idxCols))
	pivBuf := make([]string, len(pivCols))
	for row := 0; row < f.RowCount(); row++ {
		if row%8192 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := canonicalRow(idxCols, row, idxBuf, idxDistinct); err != nil {
			return nil, err
		}
		if err := canonicalRow(pivCols, row, pivBuf, pivDistinct); err != nil {
			return nil, err
		}

		idxKey := keys.Join(idxBuf)
		colKey := keys.Join(pivBuf)
		cell := buckets[idxKey]
		if cell == nil {
			cell = make(map[string][]float64)
			buckets[idxKey] = cell
		}
		cell[colKey] = append(cell[colKey], valueFloats[row])
	}

	idxTuples := idxDistinct.product()
	colTuples := pivDistinct.product()

	names := make([]string, 0, len(opts.Index)+len(colTuples)*len(aggNames))
	vecs := make([]vector.Vector, 0, cap(names))

	// Index columns come back from the canonical tuples with their source
	// kind and backend where the originals still fit.
	for c, name := range opts.Index {
		values := make([]interface{}, len(idxTuples))
		for r, tup := range idxTuples {
			values[r] = idxDistinct.original(c, tup[c])
		}
		col, err := vector.Materialize(values, idxCols[c].Kind(), idxCols[c].Backend())
		if err != nil {
			col = vector.FromValues(values)
		}
		names = append(names, name)
		vecs = append(vecs, col)
	}

	type spread struct {
		name   string
		colKey string
		aggIdx int
	}
	plan := make([]spread, 0, len(colTuples)*len(aggNames))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	multiAgg := len(aggNames) > 1
	for _, tup := range colTuples {
		base := spreadName(tup)
		for ai, aggName := range aggNames {
			name := base
			if multiAgg {
				name = base + "_" + aggName
			}
			if taken[name] {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"pivot output column %q collides", name)
			}
			taken[name] = true
			plan = append(plan, spread{name: name, colKey: keys.Join(tup), aggIdx: ai})
		}
	}

	idxKeys := make([]string, len(idxTuples))
	for r, tup := range idxTuples {
		idxKeys[r] = keys.Join(tup)
	}

	spreadVecs := make([]vector.Vector, len(plan))
	err = parallel.ForEach(ctx, len(plan), 0, func(pi int) error {
		p := plan[pi]
		outVals := make([]float64, len(idxKeys))
		for r, idxKey := range idxKeys {
			sample, ok := buckets[idxKey][p.colKey]
			if !ok {
				outVals[r] = math.NaN()
				continue
			}
			outVals[r] = aggFns[p.aggIdx](agg.Clean(sample))
		}
		spreadVecs[pi] = vector.FromFloat64s(outVals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for pi, p := range plan {
		names = append(names, p.name)
		vecs = append(vecs, spreadVecs[pi])
	}

	out, err = frame.New(names, vecs)
	if err != nil {
		return nil, err
	}
	logger.Op("pivot").Debug("pivot done",
		zap.Int("in_rows", f.RowCount()),
		zap.Int("out_rows", out.RowCount()),
		zap.Int("spread_cols", len(plan)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// spreadName flattens a column-key tuple into one column name, underscoring
// the levels together and labelling null parts.
func spreadName(tup []string) string {
	name := ""
	for i, part := range tup {
		if keys.IsNull(part) {
			part = nullColumnName
		}
		if i > 0 {
			name += "_"
		}
		name += part
	}
	return name
}

// canonicalRow fills buf with the canonical forms of row's cells across cols
// and records each in the per-column distinct sets.
func canonicalRow(cols []vector.Vector, row int, buf []string, ds *distinctSets) error {
	for c, col := range cols {
		v, err := col.Get(row)
		if err != nil {
			return err
		}
		buf[c] = ds.add(c, v)
	}
	return nil
}

// distinctSets tracks the distinct canonical values seen per key column,
// remembering one original value per canonical form so output columns can be
// rebuilt in their source type.
type distinctSets struct {
	seen      []map[string]bool
	originals []map[string]interface{}
}

func newDistinctSets(n int) *distinctSets {
	ds := &distinctSets{
		seen:      make([]map[string]bool, n),
		originals: make([]map[string]interface{}, n),
	}
	for i := 0; i < n; i++ {
		ds.seen[i] = make(map[string]bool)
		ds.originals[i] = make(map[string]interface{})
	}
	return ds
}

func (ds *distinctSets) add(col int, value interface{}) string {
	k := keys.Canonical(value)
	if !ds.seen[col][k] {
		ds.seen[col][k] = true
		ds.originals[col][k] = value
	}
	return k
}

func (ds *distinctSets) original(col int, canonical string) interface{} {
	return ds.originals[col][canonical]
}

// product enumerates the Cartesian product of the per-column distinct sets,
// each level sorted lexicographically so the first column varies slowest.
func (ds *distinctSets) product() [][]string {
	sorted := make([][]string, len(ds.seen))
	total := 1
	for c, set := range ds.seen {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		sorted[c] = vals
		total *= len(vals)
	}
	if len(ds.seen) == 0 || total == 0 {
		return nil
	}

	out := make([][]string, 0, total)
	tup := make([]string, len(sorted))
	var walk func(level int)
	walk = func(level int) {
		if level == len(sorted) {
			out = append(out, append([]string(nil), tup...))
			return
		}
		for _, v := range sorted[level] {
			tup[level] = v
			walk(level + 1)
		}
	}
	walk(0)
	return out
}

// sortedKeys orders composite keys lexicographically. The null token sorts
// before any canonical value, so null groups always lead.
func sortedKeys(m map[string][]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
