package reshape

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// UnstackOptions configures Unstack.
type UnstackOptions struct {
	// Index columns identify output rows, one row per distinct combination.
	Index []string
	// Column is the long-form column whose values become output column names.
	Column string
	// Value is the long-form column whose cells fill the spread columns.
	Value string
}

// Unstack widens a long frame without aggregating: each (index, column) pair
// must occur at most once, and duplicates are a domain error. Combinations
// that never occur come back as null cells. Unlike Pivot, value cells move
// as-is, so non-numeric values survive the reshape.
func Unstack(ctx context.Context, f *frame.Frame, opts UnstackOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("unstack", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	if len(opts.Index) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "unstack needs at least one index column")
	}
	if opts.Column == "" || opts.Value == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "unstack needs column and value columns")
	}

	idxCols, err := frame.ValidateColumns(f, opts.Index...)
	if err != nil {
		return nil, err
	}
	colCol, err := f.Column(opts.Column)
	if err != nil {
		return nil, err
	}
	valCol, err := f.Column(opts.Value)
	if err != nil {
		return nil, err
	}

	type cellRef struct {
		row int
		set bool
	}
	cells := make(map[string]map[string]cellRef)
	idxTuples := make(map[string][]interface{})
	colSeen := make(map[string]bool)

	idxBuf := make([]interface{}, len(idxCols))
	for row := 0; row < f.RowCount(); row++ {
		if row%8192 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for c, col := range idxCols {
			v, err := col.Get(row)
			if err != nil {
				return nil, err
			}
			idxBuf[c] = v
		}
		idxKey := keys.Composite(idxBuf)
		if _, ok := idxTuples[idxKey]; !ok {
			idxTuples[idxKey] = append([]interface{}(nil), idxBuf...)
			cells[idxKey] = make(map[string]cellRef)
		}

		colVal, err := colCol.Get(row)
		if err != nil {
			return nil, err
		}
		colKey := keys.Canonical(colVal)
		colSeen[colKey] = true

		if prev, ok := cells[idxKey][colKey]; ok && prev.set {
			return nil, errors.Newf(errors.ErrorTypeDomain,
				"duplicate entry for index %q column %q, aggregate with pivot instead",
				displayKey(idxKey), displayKey(colKey))
		}
		cells[idxKey][colKey] = cellRef{row: row, set: true}
	}

	idxKeys := sortedKeys(idxTuples)
	colKeys := make([]string, 0, len(colSeen))
	for k := range colSeen {
		colKeys = append(colKeys, k)
	}
	sort.Strings(colKeys)

	names := make([]string, 0, len(opts.Index)+len(colKeys))
	vecs := make([]vector.Vector, 0, cap(names))
	for c, name := range opts.Index {
		values := make([]interface{}, len(idxKeys))
		for r, k := range idxKeys {
			values[r] = idxTuples[k][c]
		}
		col, err := vector.Materialize(values, idxCols[c].Kind(), idxCols[c].Backend())
		if err != nil {
			col = vector.FromValues(values)
		}
		names = append(names, name)
		vecs = append(vecs, col)
	}

	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	for _, colKey := range colKeys {
		name := colKey
		if keys.IsNull(name) {
			name = nullColumnName
		}
		if taken[name] {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"unstack output column %q collides", name)
		}
		taken[name] = true

		values := make([]interface{}, len(idxKeys))
		for r, idxKey := range idxKeys {
			if ref := cells[idxKey][colKey]; ref.set {
				v, err := valCol.Get(ref.row)
				if err != nil {
					return nil, err
				}
				values[r] = v
			}
		}
		col, err := vector.Materialize(values, valCol.Kind(), valCol.Backend())
		if err != nil {
			col = vector.FromValues(values)
		}
		names = append(names, name)
		vecs = append(vecs, col)
	}

	out, err = frame.New(names, vecs)
	if err != nil {
		return nil, err
	}
	logger.Op("unstack").Debug("unstack done",
		zap.Int("in_rows", f.RowCount()),
		zap.Int("out_rows", out.RowCount()),
		zap.Int("spread_cols", len(colKeys)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// displayKey renders a composite key for error messages, with the reserved
// null token shown as "null" and parts joined with commas.
func displayKey(key string) string {
	parts := keys.Split(key, -1)
	for i, p := range parts {
		if keys.IsNull(p) {
			parts[i] = nullColumnName
		}
	}
	return strings.Join(parts, ",")
}
