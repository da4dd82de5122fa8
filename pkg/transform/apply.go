// Package transform implements per-cell and per-row column derivation: apply,
// mutate, one-hot encoding and numeric binning.
//
// Caller-supplied functions get per-cell failure tolerance: a panic or
// returned error nulls that cell and the operation keeps going. Shape
// problems (missing columns, bad option combinations) stay fail-fast.
package transform

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

// CellFunc maps one cell to a new value. Returning an error nulls the cell.
type CellFunc func(value interface{}) (interface{}, error)

// RowFunc derives one value from a whole row. Returning an error nulls the
// cell.
type RowFunc func(row frame.Row) (interface{}, error)

// Apply maps fn over one column and returns a frame with that column
// replaced. The result column goes back through backend selection, since fn
// may change the value distribution entirely.
func Apply(ctx context.Context, f *frame.Frame, column string, fn CellFunc) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("apply", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	if fn == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil cell function")
	}
	col, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]interface{}, col.Len())
	failed := 0
	for i := 0; i < col.Len(); i++ {
		v, err := col.Get(i)
		if err != nil {
			return nil, err
		}
		mapped, ok := applyCell(fn, v)
		if !ok {
			failed++
			continue
		}
		values[i] = mapped
	}

	vec, err := vector.New(values, vector.Options{})
	if err != nil {
		return nil, err
	}
	out, err = f.WithVector(column, vec)
	if err != nil {
		return nil, err
	}
	if failed > 0 {
		logger.Op("apply").Warn("cell function failures downgraded to null",
			zap.String("column", column),
			zap.Int("failed_cells", failed))
	}
	return out, nil
}

// Mutate derives a new column from each row and returns a frame carrying it.
// An existing column of the same name is replaced in place; a new name is
// appended after the existing columns.
func Mutate(ctx context.Context, f *frame.Frame, name string, fn RowFunc) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("mutate", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	if name == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "empty column name")
	}
	if fn == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil row function")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]interface{}, f.RowCount())
	failed := 0
	for i := 0; i < f.RowCount(); i++ {
		derived, ok := applyRow(fn, frame.RowAt(f, i))
		if !ok {
			failed++
			continue
		}
		values[i] = derived
	}

	vec, err := vector.New(values, vector.Options{})
	if err != nil {
		return nil, err
	}
	out, err = f.WithVector(name, vec)
	if err != nil {
		return nil, err
	}
	if failed > 0 {
		logger.Op("mutate").Warn("row function failures downgraded to null",
			zap.String("column", name),
			zap.Int("failed_cells", failed))
	}
	return out, nil
}

// applyCell runs fn with panic containment. ok is false when the cell failed
// and must read as null.
func applyCell(fn CellFunc, v interface{}) (out interface{}, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = nil, false
		}
	}()
	mapped, err := fn(v)
	if err != nil {
		return nil, false
	}
	return mapped, true
}

func applyRow(fn RowFunc, row frame.Row) (out interface{}, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = nil, false
		}
	}()
	derived, err := fn(row)
	if err != nil {
		return nil, false
	}
	return derived, true
}
