package window

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/vector"
)

func seriesFrame(t *testing.T, values []float64) *frame.Frame {
	t.Helper()
	f, err := frame.New([]string{"x"}, []vector.Vector{vector.FromFloat64s(values)})
	require.NoError(t, err)
	return f
}

// assertSeries compares float slices treating NaN as equal to NaN.
func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "row %d: want null, got %v", i, got[i])
		} else {
			assert.InDelta(t, want[i], got[i], 1e-9, "row %d", i)
		}
	}
}

func TestRolling_TrailingMean(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3, 4, 5})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 3, Agg: "mean",
	})
	require.NoError(t, err)
	assertSeries(t, []float64{math.NaN(), math.NaN(), 2, 3, 4}, out)
}

func TestRolling_WindowOneIsIdentity(t *testing.T) {
	f := seriesFrame(t, []float64{3, math.NaN(), 7})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 1,
	})
	require.NoError(t, err)
	assertSeries(t, []float64{3, math.NaN(), 7}, out)
}

func TestRolling_MinPeriodsAllowsPartialWindows(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 3, MinPeriods: 1,
	})
	require.NoError(t, err)
	assertSeries(t, []float64{1, 1.5, 2}, out)
}

func TestRolling_NullsDontCount(t *testing.T) {
	f := seriesFrame(t, []float64{1, math.NaN(), 3})

	relaxed, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 2, MinPeriods: 1,
	})
	require.NoError(t, err)
	assertSeries(t, []float64{1, 1, 3}, relaxed)

	strict, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 2, MinPeriods: 2,
	})
	require.NoError(t, err)
	assertSeries(t, []float64{math.NaN(), math.NaN(), math.NaN()}, strict)
}

func TestRolling_Centered(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3, 4, 5})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 3, Center: true,
	})
	require.NoError(t, err)
	// No partial windows at either edge.
	assertSeries(t, []float64{math.NaN(), 2, 3, 4, math.NaN()}, out)
}

func TestRolling_CenteredEvenWindow(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3, 4, 5})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 4, Center: true,
	})
	require.NoError(t, err)
	// Window spans [i-2, i+2): row 2 covers rows 0..3, row 3 covers 1..4.
	assertSeries(t, []float64{math.NaN(), math.NaN(), 2.5, 3.5, math.NaN()}, out)
}

func TestRolling_RollingSum(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3, 4})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x", Window: 2, Agg: "sum",
	})
	require.NoError(t, err)
	assertSeries(t, []float64{math.NaN(), 3, 5, 7}, out)
}

func TestRolling_CustomReducerPanicNullsCell(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3, 4})

	out, err := Rolling(context.Background(), f, RollingOptions{
		Column: "x",
		Window: 2,
		Func: func(sample []float64) float64 {
			if sample[0] == 2 {
				panic("bad window")
			}
			return sample[0]
		},
	})
	require.NoError(t, err)
	// Only the window starting at 2 fails; its neighbors still compute.
	assertSeries(t, []float64{math.NaN(), 1, math.NaN(), 3}, out)
}

func TestRolling_Validation(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3})
	ctx := context.Background()

	cases := []struct {
		name string
		opts RollingOptions
		kind errors.ErrorType
	}{
		{"zero window", RollingOptions{Column: "x"}, errors.ErrorTypeValidation},
		{"negative minPeriods", RollingOptions{Column: "x", Window: 2, MinPeriods: -1}, errors.ErrorTypeValidation},
		{"minPeriods over window", RollingOptions{Column: "x", Window: 2, MinPeriods: 3}, errors.ErrorTypeValidation},
		{"unknown column", RollingOptions{Column: "ghost", Window: 2}, errors.ErrorTypeValidation},
		{"unknown agg", RollingOptions{Column: "x", Window: 2, Agg: "p99"}, errors.ErrorTypeDomain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Rolling(ctx, f, tc.opts)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tc.kind), "got %v", err)
		})
	}
}

func TestExpanding_Sum(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3, math.NaN(), 5})

	out, err := Expanding(context.Background(), f, ExpandingOptions{
		Column: "x", Agg: "sum",
	})
	require.NoError(t, err)
	// The null row carries the running total without contributing.
	assertSeries(t, []float64{1, 3, 6, 6, 11}, out)
}

func TestExpanding_MinPeriods(t *testing.T) {
	f := seriesFrame(t, []float64{1, 2, 3})

	out, err := Expanding(context.Background(), f, ExpandingOptions{
		Column: "x", MinPeriods: 2,
	})
	require.NoError(t, err)
	assertSeries(t, []float64{math.NaN(), 1.5, 2}, out)
}
