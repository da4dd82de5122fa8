package transform

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// CutOptions configures Cut.
type CutOptions struct {
	// Column is the numeric column to bin.
	Column string
	// Bins are the interval edges, strictly increasing, at least two. N edges
	// define N-1 intervals; the first is closed on both sides, the rest are
	// half-open (lo, hi].
	Bins []float64
	// Labels name the intervals. Empty derives "(lo, hi]" style labels;
	// otherwise exactly one label per interval is required.
	Labels []string
	// Into names the output column, "<column>_bin" when empty.
	Into string
}

// Cut assigns each value of a numeric column to an interval label and appends
// the label column. Values outside every interval, and null cells, come back
// as null labels.
func Cut(ctx context.Context, f *frame.Frame, opts CutOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("cut", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	if len(opts.Bins) < 2 {
		return nil, errors.New(errors.ErrorTypeValidation, "cut needs at least two bin edges")
	}
	for i := 1; i < len(opts.Bins); i++ {
		if opts.Bins[i] <= opts.Bins[i-1] {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"bin edges must increase, edge %d (%v) is not above %v",
				i, opts.Bins[i], opts.Bins[i-1])
		}
	}
	intervals := len(opts.Bins) - 1
	labels := opts.Labels
	if len(labels) == 0 {
		labels = make([]string, intervals)
		for i := 0; i < intervals; i++ {
			labels[i] = intervalLabel(opts.Bins[i], opts.Bins[i+1])
		}
	} else if len(labels) != intervals {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"label count %d does not match bin count minus one (%d)",
			len(labels), intervals)
	}

	values, err := frame.ValidateNumeric(f, opts.Column)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	into := opts.Into
	if into == "" {
		into = opts.Column + "_bin"
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		if bin, ok := locateBin(opts.Bins, v); ok {
			cells[i] = labels[bin]
		}
	}
	vec, err := vector.New(cells, vector.Options{})
	if err != nil {
		return nil, err
	}
	out, err = f.WithVector(into, vec)
	if err != nil {
		return nil, err
	}

	logger.Op("cut").Debug("binned column",
		zap.String("column", opts.Column),
		zap.String("into", into),
		zap.Int("intervals", intervals))
	return out, nil
}

// locateBin finds the interval holding v: [b0, b1] for the first, (lo, hi]
// after that. NaN and out-of-range values have no bin.
func locateBin(bins []float64, v float64) (int, bool) {
	if v != v {
		return 0, false
	}
	if v < bins[0] || v > bins[len(bins)-1] {
		return 0, false
	}
	if v <= bins[1] {
		return 0, true
	}
	lo, hi := 1, len(bins)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if v <= bins[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo - 1, true
}

func intervalLabel(lo, hi float64) string {
	return "(" + strconv.FormatFloat(lo, 'g', -1, 64) +
		", " + strconv.FormatFloat(hi, 'g', -1, 64) + "]"
}
