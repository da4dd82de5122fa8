package window

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
)

// EWMAOptions configures EWMA. Exactly one of Alpha, Span, Com or Halflife
// must be set; the other three stay zero.
type EWMAOptions struct {
	// Column is the numeric column to smooth.
	Column string
	// Alpha is the smoothing factor, in (0, 1].
	Alpha float64
	// Span derives alpha as 2/(span+1), span >= 1.
	Span float64
	// Com derives alpha as 1/(1+com), com > 0.
	Com float64
	// Halflife derives alpha as 1-exp(ln(1/2)/halflife), halflife > 0.
	Halflife float64
	// Adjusted divides by the accumulating weight sum instead of running the
	// plain recursive form, removing the startup bias toward the seed value.
	Adjusted bool
}

// EWMA exponentially smooths a numeric column. The first non-null value seeds
// the recursion; cells before it are null. A null cell carries the prior
// smoothed value forward without decaying or reweighting it, so gaps neither
// reset nor bias the average.
func EWMA(ctx context.Context, f *frame.Frame, opts EWMAOptions) (out []float64, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOp("ewma", start, len(out), err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	alpha, err := resolveAlpha(opts)
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

	out = make([]float64, len(values))
	decay := 1 - alpha

	if opts.Adjusted {
		var num, den float64
		seeded := false
		for i, x := range values {
			if math.IsNaN(x) {
				if seeded {
					out[i] = num / den
				} else {
					out[i] = math.NaN()
				}
				continue
			}
			num = x + decay*num
			den = 1 + decay*den
			seeded = true
			out[i] = num / den
		}
	} else {
		var y float64
		seeded := false
		for i, x := range values {
			if math.IsNaN(x) {
				if seeded {
					out[i] = y
				} else {
					out[i] = math.NaN()
				}
				continue
			}
			if !seeded {
				y = x
				seeded = true
			} else {
				y = alpha*x + decay*y
			}
			out[i] = y
		}
	}

	logger.Op("ewma").Debug("ewma done",
		zap.String("column", opts.Column),
		zap.Float64("alpha", alpha),
		zap.Bool("adjusted", opts.Adjusted),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// resolveAlpha derives the smoothing factor from whichever parameter is set
// and rejects ambiguous or out-of-range combinations.
func resolveAlpha(opts EWMAOptions) (float64, error) {
	set := 0
	if opts.Alpha != 0 {
		set++
	}
	if opts.Span != 0 {
		set++
	}
	if opts.Com != 0 {
		set++
	}
	if opts.Halflife != 0 {
		set++
	}
	if set == 0 {
		return 0, errors.New(errors.ErrorTypeValidation,
			"one of alpha, span, com or halflife is required")
	}
	if set > 1 {
		return 0, errors.New(errors.ErrorTypeValidation,
			"alpha, span, com and halflife are mutually exclusive")
	}

	var alpha float64
	switch {
	case opts.Alpha != 0:
		alpha = opts.Alpha
	case opts.Span != 0:
		if opts.Span < 1 {
			return 0, errors.New(errors.ErrorTypeValidation, "span must be at least 1")
		}
		alpha = 2 / (opts.Span + 1)
	case opts.Com != 0:
		if opts.Com < 0 {
			return 0, errors.New(errors.ErrorTypeValidation, "com must not be negative")
		}
		alpha = 1 / (1 + opts.Com)
	default:
		if opts.Halflife <= 0 {
			return 0, errors.New(errors.ErrorTypeValidation, "halflife must be positive")
		}
		alpha = 1 - math.Exp(math.Ln2/-opts.Halflife)
	}

	if alpha <= 0 || alpha > 1 {
		return 0, errors.Newf(errors.ErrorTypeValidation,
			"alpha %v out of range (0, 1]", alpha)
	}
	return alpha, nil
}
