package window

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
)

func TestParseModel(t *testing.T) {
	m, err := ParseModel("additive")
	require.NoError(t, err)
	assert.Equal(t, Additive, m)

	m, err = ParseModel("MUL")
	require.NoError(t, err)
	assert.Equal(t, Multiplicative, m)

	_, err = ParseModel("seasonal")
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestDecompose_AdditivePureSeason(t *testing.T) {
	// Alternating series around a flat level: the trend is the level, the
	// seasonal indices carry the alternation, residuals vanish.
	f := seriesFrame(t, []float64{1, 3, 1, 3, 1, 3})

	d, err := Decompose(context.Background(), f, DecomposeOptions{
		Column: "x", Period: 2, Model: Additive,
	})
	require.NoError(t, err)

	assertSeries(t, []float64{math.NaN(), 2, 2, 2, 2, 2}, d.Trend)
	assertSeries(t, []float64{-1, 1, -1, 1, -1, 1}, d.Seasonal)
	assertSeries(t, []float64{math.NaN(), 0, 0, 0, 0, 0}, d.Residual)
	assertSeries(t, []float64{1, 3, 1, 3, 1, 3}, d.Observed)
}

func TestDecompose_AdditiveIndicesSumToZero(t *testing.T) {
	f := seriesFrame(t, []float64{4, 9, 5, 3, 8, 6, 2, 7, 7, 5, 9, 4})

	d, err := Decompose(context.Background(), f, DecomposeOptions{
		Column: "x", Period: 3, Model: Additive,
	})
	require.NoError(t, err)

	sum := d.Seasonal[0] + d.Seasonal[1] + d.Seasonal[2]
	assert.InDelta(t, 0, sum, 1e-9)
	// The index repeats every period.
	assert.Equal(t, d.Seasonal[0], d.Seasonal[3])
	assert.Equal(t, d.Seasonal[1], d.Seasonal[7])
}

func TestDecompose_Multiplicative(t *testing.T) {
	f := seriesFrame(t, []float64{2, 6, 2, 6})

	d, err := Decompose(context.Background(), f, DecomposeOptions{
		Column: "x", Period: 2, Model: Multiplicative,
	})
	require.NoError(t, err)

	assertSeries(t, []float64{math.NaN(), 4, 4, 4}, d.Trend)
	assertSeries(t, []float64{0.5, 1.5, 0.5, 1.5}, d.Seasonal)
	assertSeries(t, []float64{math.NaN(), 1, 1, 1}, d.Residual)

	// Indices average to one.
	assert.InDelta(t, 1, (d.Seasonal[0]+d.Seasonal[1])/2, 1e-9)
}

func TestDecompose_FrameLayout(t *testing.T) {
	f := seriesFrame(t, []float64{1, 3, 1, 3})

	d, err := Decompose(context.Background(), f, DecomposeOptions{
		Column: "x", Period: 2, Model: Additive,
	})
	require.NoError(t, err)

	out, err := d.Frame()
	require.NoError(t, err)
	assert.Equal(t, []string{"observed", "trend", "seasonal", "residual"}, out.Names())
	assert.Equal(t, 4, out.RowCount())
}

func TestDecompose_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("too few rows", func(t *testing.T) {
		f := seriesFrame(t, []float64{1, 2, 3})
		_, err := Decompose(ctx, f, DecomposeOptions{Column: "x", Period: 2, Model: Additive})
		require.Error(t, err)
		assert.True(t, errors.IsDomain(err))
	})

	t.Run("period too small", func(t *testing.T) {
		f := seriesFrame(t, []float64{1, 2, 3, 4})
		_, err := Decompose(ctx, f, DecomposeOptions{Column: "x", Period: 1, Model: Additive})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("unknown model", func(t *testing.T) {
		f := seriesFrame(t, []float64{1, 2, 3, 4})
		_, err := Decompose(ctx, f, DecomposeOptions{Column: "x", Period: 2, Model: Model(7)})
		require.Error(t, err)
		assert.True(t, errors.IsDomain(err))
	})

	t.Run("unknown column", func(t *testing.T) {
		f := seriesFrame(t, []float64{1, 2, 3, 4})
		_, err := Decompose(ctx, f, DecomposeOptions{Column: "ghost", Period: 2, Model: Additive})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}
