// Package agg provides the named reducers shared by pivot tables, rolling
// windows and frame summaries. Reducers operate on cleaned float64 samples:
// callers strip nulls (NaN) with Clean before applying, so each reducer only
// defines its empty-input result.
package agg

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/latticedata/lattice/pkg/errors"
)

// Func reduces a cleaned sample to a single value. An empty sample must
// return the reducer's identity, or NaN when it has none.
type Func func(values []float64) float64

var registry = map[string]Func{
	"sum":    Sum,
	"mean":   Mean,
	"min":    Min,
	"max":    Max,
	"median": Median,
	"mode":   Mode,
	"count":  Count,
	"std":    Std,
	"var":    Var,
	"first":  First,
	"last":   Last,
}

// Lookup resolves a reducer by name. Unknown names are domain errors so
// callers can surface them verbatim.
func Lookup(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeDomain, "unknown aggregator %q", name)
	}
	return fn, nil
}

// Names lists the registered reducer names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clean strips NaN cells from values, returning the non-null sample.
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Sum adds the sample. The empty sum is 0.
func Sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// Mean averages the sample. The empty mean is NaN.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m, err := stats.Mean(values)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Min returns the smallest value, NaN when empty.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m, err := stats.Min(values)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Max returns the largest value, NaN when empty.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m, err := stats.Max(values)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Median returns the middle value, NaN when empty.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m, err := stats.Median(values)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Mode returns the smallest of the most frequent values, NaN when empty or
// when no value repeats.
func Mode(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	modes, err := stats.Mode(values)
	if err != nil || len(modes) == 0 {
		return math.NaN()
	}
	m, err := stats.Min(modes)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Count returns the sample size.
func Count(values []float64) float64 {
	return float64(len(values))
}

// Std is the population standard deviation (N denominator), NaN when empty.
func Std(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return math.NaN()
	}
	return s
}

// Var is the population variance (N denominator), NaN when empty.
func Var(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	v, err := stats.PopulationVariance(values)
	if err != nil {
		return math.NaN()
	}
	return v
}

// First returns the first value, NaN when empty.
func First(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[0]
}

// Last returns the last value, NaN when empty.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
