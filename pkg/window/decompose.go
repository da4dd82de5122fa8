package window

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/agg"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// Model selects how trend, seasonality and residual combine.
type Model int

const (
	// Additive models the series as trend + seasonal + residual.
	Additive Model = iota
	// Multiplicative models the series as trend * seasonal * residual.
	Multiplicative
)

func (m Model) String() string {
	switch m {
	case Additive:
		return "additive"
	case Multiplicative:
		return "multiplicative"
	default:
		return "unknown"
	}
}

// ParseModel resolves a decomposition model name.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "additive", "add":
		return Additive, nil
	case "multiplicative", "mul":
		return Multiplicative, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeDomain, "unknown decomposition model %q", s)
	}
}

// DecomposeOptions configures Decompose.
type DecomposeOptions struct {
	// Column is the numeric column to decompose.
	Column string
	// Period is the seasonal cycle length in rows, at least 2.
	Period int
	// Model picks additive or multiplicative composition.
	Model Model
}

// Decomposition holds the component series of a seasonal decomposition, each
// the length of the input with NaN for null cells.
type Decomposition struct {
	Observed []float64
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
	Model    Model
}

// Frame lays the components out as a four-column frame in packed storage.
func (d *Decomposition) Frame() (*frame.Frame, error) {
	return frame.New(
		[]string{"observed", "trend", "seasonal", "residual"},
		[]vector.Vector{
			vector.FromFloat64s(d.Observed),
			vector.FromFloat64s(d.Trend),
			vector.FromFloat64s(d.Seasonal),
			vector.FromFloat64s(d.Residual),
		},
	)
}

// Decompose splits a series into trend, seasonal and residual components.
// The trend is a centered rolling mean of one period; the seasonal component
// averages the detrended series by phase within the period, normalized to sum
// to zero (additive) or average to one (multiplicative). The series must hold
// at least two full periods of observations.
func Decompose(ctx context.Context, f *frame.Frame, opts DecomposeOptions) (d *Decomposition, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if d != nil {
			rows = len(d.Observed)
		}
		metrics.ObserveOp("decompose", start, rows, err)
	}()

	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	if opts.Period < 2 {
		return nil, errors.New(errors.ErrorTypeValidation, "period must be at least 2")
	}
	if opts.Model != Additive && opts.Model != Multiplicative {
		return nil, errors.Newf(errors.ErrorTypeDomain, "unknown decomposition model %d", opts.Model)
	}
	values, err := frame.ValidateNumeric(f, opts.Column)
	if err != nil {
		return nil, err
	}
	if len(values) < 2*opts.Period {
		return nil, errors.Newf(errors.ErrorTypeDomain,
			"decomposition needs at least %d rows, have %d", 2*opts.Period, len(values)).
			WithDetail("period", opts.Period)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(values)
	period := opts.Period
	mul := opts.Model == Multiplicative

	trend := rollSeries(values, period, agg.Mean, true, period)

	// Detrend, then average by phase within the period.
	detrended := make([]float64, n)
	for i := range values {
		switch {
		case math.IsNaN(values[i]) || math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case mul:
			if trend[i] == 0 {
				detrended[i] = math.NaN()
			} else {
				detrended[i] = values[i] / trend[i]
			}
		default:
			detrended[i] = values[i] - trend[i]
		}
	}

	indices := make([]float64, period)
	for p := 0; p < period; p++ {
		var sum float64
		var cnt int
		for i := p; i < n; i += period {
			if !math.IsNaN(detrended[i]) {
				sum += detrended[i]
				cnt++
			}
		}
		if cnt == 0 {
			indices[p] = math.NaN()
		} else {
			indices[p] = sum / float64(cnt)
		}
	}
	normalizeIndices(indices, mul)

	seasonal := make([]float64, n)
	for i := range seasonal {
		seasonal[i] = indices[i%period]
	}

	residual := make([]float64, n)
	for i := range residual {
		switch {
		case math.IsNaN(values[i]) || math.IsNaN(trend[i]) || math.IsNaN(seasonal[i]):
			residual[i] = math.NaN()
		case mul:
			den := trend[i] * seasonal[i]
			if den == 0 {
				residual[i] = math.NaN()
			} else {
				residual[i] = values[i] / den
			}
		default:
			residual[i] = values[i] - trend[i] - seasonal[i]
		}
	}

	d = &Decomposition{
		Observed: append([]float64(nil), values...),
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Period:   period,
		Model:    opts.Model,
	}
	logger.Op("decompose").Debug("decompose done",
		zap.String("column", opts.Column),
		zap.Int("period", period),
		zap.String("model", opts.Model.String()),
		zap.Duration("elapsed", time.Since(start)))
	return d, nil
}

// normalizeIndices centers the seasonal indices: additive indices shift to
// sum to zero, multiplicative indices scale to average one. NaN indices are
// left alone and excluded from the normalization.
func normalizeIndices(indices []float64, mul bool) {
	var sum float64
	var cnt int
	for _, v := range indices {
		if !math.IsNaN(v) {
			sum += v
			cnt++
		}
	}
	if cnt == 0 {
		return
	}
	mean := sum / float64(cnt)
	for i, v := range indices {
		if math.IsNaN(v) {
			continue
		}
		if mul {
			if mean != 0 {
				indices[i] = v / mean
			}
		} else {
			indices[i] = v - mean
		}
	}
}
