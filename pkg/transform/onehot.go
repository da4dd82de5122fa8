package transform

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// OneHotOptions configures OneHot.
type OneHotOptions struct {
	// Column is the column to encode.
	Column string
	// Prefix names the indicator columns "<prefix>_<value>"; the source
	// column name when empty.
	Prefix string
	// DropFirst omits the first indicator, leaving it implied by the others.
	DropFirst bool
	// Drop removes the source column from the output.
	Drop bool
}

// OneHot expands a column into 0/1 indicator columns, one per distinct value
// in lexicographic order with null first. Null cells count as a distinct
// value and get their own indicator. Indicators append after the existing
// columns; the source column stays unless Drop is set.
func OneHot(ctx context.Context, f *frame.Frame, opts OneHotOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("onehot", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	col, err := f.Column(opts.Column)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = opts.Column
	}

	// One pass to canonicalize cells and collect the distinct set.
	canon := make([]string, col.Len())
	seen := make(map[string]bool)
	for i := 0; i < col.Len(); i++ {
		v, err := col.Get(i)
		if err != nil {
			return nil, err
		}
		k := keys.Canonical(v)
		canon[i] = k
		seen[k] = true
	}
	distinct := make([]string, 0, len(seen))
	for k := range seen {
		distinct = append(distinct, k)
	}
	sort.Strings(distinct)
	if opts.DropFirst && len(distinct) > 0 {
		distinct = distinct[1:]
	}

	out = f
	if opts.Drop {
		out, err = out.Drop(opts.Column)
		if err != nil {
			return nil, err
		}
	}
	for _, k := range distinct {
		label := k
		if keys.IsNull(label) {
			label = "null"
		}
		name := prefix + "_" + label
		if out.HasColumn(name) {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"indicator column %q collides with an existing column", name)
		}
		cells := make([]float64, len(canon))
		for i, c := range canon {
			if c == k {
				cells[i] = 1
			}
		}
		out, err = out.WithVector(name, vector.FromFloat64s(cells))
		if err != nil {
			return nil, err
		}
	}

	logger.Op("onehot").Debug("one-hot encoded",
		zap.String("column", opts.Column),
		zap.Int("indicators", len(distinct)))
	return out, nil
}
