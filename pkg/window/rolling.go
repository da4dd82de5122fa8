// Package window implements rolling windows, exponential smoothing and
// classical seasonal decomposition over numeric frame columns.
//
// Every operator returns a float64 series the length of its input, with NaN
// marking null cells. Reducers run on null-stripped samples; a window holding
// fewer valid observations than its minimum emits null instead of a value.
package window

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/agg"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
)

// RollingOptions configures Rolling.
type RollingOptions struct {
	// Column is the numeric column to roll over.
	Column string
	// Window is the number of rows per window.
	Window int
	// Agg names a registered reducer, "mean" when empty. Ignored when Func is
	// set.
	Agg string
	// Func is a caller-supplied reducer. A panic inside it nulls that window's
	// cell instead of aborting the whole operation.
	Func agg.Func
	// Center positions each window symmetrically around its row. Rows within
	// half a window of either edge emit null; centered windows are never
	// partial.
	Center bool
	// MinPeriods is the minimum count of non-null values a window needs to
	// emit a value. Zero means the window size.
	MinPeriods int
}

// Rolling computes a windowed aggregate over a numeric column. Trailing
// windows for row i span [i-window+1, i] clamped to the frame; centered
// windows span window rows around i and emit null at the edges.
func Rolling(ctx context.Context, f *frame.Frame, opts RollingOptions) (out []float64, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOp("rolling", start, len(out), err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	fn, err := resolveReducer(opts.Agg, opts.Func)
	if err != nil {
		return nil, err
	}
	minPeriods, err := resolveMinPeriods(opts.Window, opts.MinPeriods)
	if err != nil {
		return nil, err
	}
	values, err := frame.ValidateNumeric(f, opts.Column)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out = rollSeries(values, opts.Window, fn, opts.Center, minPeriods)
	logger.Op("rolling").Debug("rolling done",
		zap.String("column", opts.Column),
		zap.Int("window", opts.Window),
		zap.Bool("center", opts.Center),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// ExpandingOptions configures Expanding.
type ExpandingOptions struct {
	Column string
	// Agg names a registered reducer, "mean" when empty. Ignored when Func is
	// set.
	Agg  string
	Func agg.Func
	// MinPeriods is the minimum count of non-null values needed to emit a
	// value, 1 when zero.
	MinPeriods int
}

// Expanding computes a cumulative aggregate: the window for row i is every
// row from the start through i.
func Expanding(ctx context.Context, f *frame.Frame, opts ExpandingOptions) (out []float64, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOp("expanding", start, len(out), err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	fn, err := resolveReducer(opts.Agg, opts.Func)
	if err != nil {
		return nil, err
	}
	minPeriods := opts.MinPeriods
	if minPeriods == 0 {
		minPeriods = 1
	}
	if minPeriods < 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "minPeriods must not be negative")
	}
	values, err := frame.ValidateNumeric(f, opts.Column)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out = make([]float64, len(values))
	sample := make([]float64, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			sample = append(sample, v)
		}
		if len(sample) < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = applyReducer(fn, sample)
	}
	return out, nil
}

// rollSeries is the window core shared with seasonal decomposition.
func rollSeries(values []float64, window int, fn agg.Func, center bool, minPeriods int) []float64 {
	n := len(values)
	out := make([]float64, n)
	sample := make([]float64, 0, window)

	for i := 0; i < n; i++ {
		var lo, hi int
		if center {
			lo = i - window/2
			hi = i + (window+1)/2
			if lo < 0 || hi > n {
				out[i] = math.NaN()
				continue
			}
		} else {
			lo = i - window + 1
			if lo < 0 {
				lo = 0
			}
			hi = i + 1
		}

		sample = sample[:0]
		for j := lo; j < hi; j++ {
			if !math.IsNaN(values[j]) {
				sample = append(sample, values[j])
			}
		}
		if len(sample) < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = applyReducer(fn, sample)
	}
	return out
}

// applyReducer runs fn and downgrades a panic to a null cell. Caller-supplied
// reducers get the same per-window failure tolerance as the built-ins'
// null-skipping.
func applyReducer(fn agg.Func, sample []float64) (out float64) {
	defer func() {
		if r := recover(); r != nil {
			out = math.NaN()
		}
	}()
	return fn(sample)
}

func resolveReducer(name string, fn agg.Func) (agg.Func, error) {
	if fn != nil {
		return fn, nil
	}
	if name == "" {
		name = "mean"
	}
	return agg.Lookup(name)
}

func resolveMinPeriods(window, minPeriods int) (int, error) {
	if window < 1 {
		return 0, errors.New(errors.ErrorTypeValidation, "window must be at least 1")
	}
	if minPeriods < 0 {
		return 0, errors.New(errors.ErrorTypeValidation, "minPeriods must not be negative")
	}
	if minPeriods == 0 {
		return window, nil
	}
	if minPeriods > window {
		return 0, errors.Newf(errors.ErrorTypeValidation,
			"minPeriods %d exceeds window %d", minPeriods, window)
	}
	return minPeriods, nil
}
