package reshape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// MeltOptions configures Melt.
type MeltOptions struct {
	// IDVars are carried through unchanged, repeated once per melted column.
	IDVars []string
	// ValueVars are the columns to unpivot. Empty means every column that is
	// not an id var, in frame order.
	ValueVars []string
	// VarName is the output column holding melted column names, "variable"
	// when empty.
	VarName string
	// ValueName is the output column holding melted cells, "value" when
	// empty.
	ValueName string
}

// Melt unpivots a wide frame into long form. Every input row yields one
// output row per value var, input rows outermost: row 0's vars in order, then
// row 1's, and so on.
//
// The value column takes the narrowest type that holds every melted column:
// float64 when every source column is numeric, boxed generic otherwise.
func Melt(ctx context.Context, f *frame.Frame, opts MeltOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("melt", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}

	varName := opts.VarName
	if varName == "" {
		varName = "variable"
	}
	valueName := opts.ValueName
	if valueName == "" {
		valueName = "value"
	}
	if varName == valueName {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"variable and value columns both named %q", varName)
	}

	for _, n := range []string{varName, valueName} {
		if f.HasColumn(n) {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"output column %q already exists in the frame", n)
		}
	}

	idSet := make(map[string]bool, len(opts.IDVars))
	var idCols []vector.Vector
	if len(opts.IDVars) > 0 {
		idCols, err = frame.ValidateColumns(f, opts.IDVars...)
		if err != nil {
			return nil, err
		}
		for _, n := range opts.IDVars {
			idSet[n] = true
		}
	}

	valueVars := opts.ValueVars
	if len(valueVars) == 0 {
		for _, n := range f.Names() {
			if !idSet[n] {
				valueVars = append(valueVars, n)
			}
		}
	}
	if len(valueVars) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no columns to melt")
	}
	for _, n := range valueVars {
		if idSet[n] {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q is both an id var and a value var", n)
		}
	}
	valueCols, err := frame.ValidateColumns(f, valueVars...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inRows := f.RowCount()
	outRows := inRows * len(valueVars)

	names := make([]string, 0, len(opts.IDVars)+2)
	vecs := make([]vector.Vector, 0, cap(names))

	// Each id value repeats once per value var, keeping the source kind and
	// backend when the repeated values still fit it.
	for c, name := range opts.IDVars {
		src := idCols[c].ToSlice()
		repeated := make([]interface{}, 0, outRows)
		for _, v := range src {
			for range valueVars {
				repeated = append(repeated, v)
			}
		}
		col, err := vector.Materialize(repeated, idCols[c].Kind(), idCols[c].Backend())
		if err != nil {
			col = vector.FromValues(repeated)
		}
		names = append(names, name)
		vecs = append(vecs, col)
	}

	varCells := make([]string, 0, outRows)
	for i := 0; i < inRows; i++ {
		varCells = append(varCells, valueVars...)
	}
	varCol, err := vector.New(varCells, vector.Options{})
	if err != nil {
		return nil, err
	}
	names = append(names, varName)
	vecs = append(vecs, varCol)

	valueCol, err := meltValues(valueCols, inRows)
	if err != nil {
		return nil, err
	}
	names = append(names, valueName)
	vecs = append(vecs, valueCol)

	out, err = frame.New(names, vecs)
	if err != nil {
		return nil, err
	}
	logger.Op("melt").Debug("melt done",
		zap.Int("in_rows", inRows),
		zap.Int("out_rows", outRows),
		zap.Int("value_vars", len(valueVars)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// Stack is Melt under its other common name.
func Stack(ctx context.Context, f *frame.Frame, opts MeltOptions) (*frame.Frame, error) {
	return Melt(ctx, f, opts)
}

// meltValues interleaves the melted columns into one value column, widening
// to the common supertype. Any non-numeric source column forces the whole
// value column to boxed generic.
func meltValues(cols []vector.Vector, inRows int) (vector.Vector, error) {
	numeric := true
	for _, col := range cols {
		if !col.Kind().IsNumeric() {
			numeric = false
			break
		}
	}

	if numeric {
		floats := make([][]float64, len(cols))
		for c, col := range cols {
			fs, err := col.Float64s()
			if err != nil {
				return nil, err
			}
			floats[c] = fs
		}
		values := make([]float64, 0, inRows*len(cols))
		for i := 0; i < inRows; i++ {
			for c := range cols {
				values = append(values, floats[c][i])
			}
		}
		return vector.FromFloat64s(values), nil
	}

	boxed := make([][]interface{}, len(cols))
	for c, col := range cols {
		boxed[c] = col.ToSlice()
	}
	values := make([]interface{}, 0, inRows*len(cols))
	for i := 0; i < inRows; i++ {
		for c := range cols {
			values = append(values, boxed[c][i])
		}
	}
	return vector.FromValues(values), nil
}
