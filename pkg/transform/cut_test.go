package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
)

func TestCut_AssignsLabeledBins(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{1, 10, 15, 25})

	out, err := Cut(context.Background(), f, CutOptions{
		Column: "v",
		Bins:   []float64{0, 10, 20, 30},
		Labels: []string{"low", "mid", "high"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"v", "v_bin"}, out.Names())
	assert.Equal(t, "low", cell(t, out, "v_bin", 0))
	assert.Equal(t, "low", cell(t, out, "v_bin", 1))
	assert.Equal(t, "mid", cell(t, out, "v_bin", 2))
	assert.Equal(t, "high", cell(t, out, "v_bin", 3))
}

func TestCut_EdgeValues(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{0, 10, 20})

	out, err := Cut(context.Background(), f, CutOptions{
		Column: "v",
		Bins:   []float64{0, 10, 20},
		Labels: []string{"a", "b"},
	})
	require.NoError(t, err)

	// The first interval is closed on both sides, the rest close on the
	// right only.
	assert.Equal(t, "a", cell(t, out, "v_bin", 0))
	assert.Equal(t, "a", cell(t, out, "v_bin", 1))
	assert.Equal(t, "b", cell(t, out, "v_bin", 2))
}

func TestCut_AutoLabels(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{0.25, 0.75})

	out, err := Cut(context.Background(), f, CutOptions{
		Column: "v",
		Bins:   []float64{0, 0.5, 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "(0, 0.5]", cell(t, out, "v_bin", 0))
	assert.Equal(t, "(0.5, 1]", cell(t, out, "v_bin", 1))
}

func TestCut_OutOfRangeAndNullAreNull(t *testing.T) {
	f := mk(t, []string{"v"}, []interface{}{-1.0, 5.0, 35.0, nil})

	out, err := Cut(context.Background(), f, CutOptions{
		Column: "v",
		Bins:   []float64{0, 10, 20, 30},
		Labels: []string{"low", "mid", "high"},
	})
	require.NoError(t, err)

	assert.Nil(t, cell(t, out, "v_bin", 0))
	assert.Equal(t, "low", cell(t, out, "v_bin", 1))
	assert.Nil(t, cell(t, out, "v_bin", 2))
	assert.Nil(t, cell(t, out, "v_bin", 3))
}

func TestCut_CustomInto(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{5})

	out, err := Cut(context.Background(), f, CutOptions{
		Column: "v",
		Bins:   []float64{0, 10},
		Into:   "bucket",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"v", "bucket"}, out.Names())
}

func TestCut_Validation(t *testing.T) {
	f := mk(t, []string{"v", "s"},
		[]float64{1, 2},
		[]string{"x", "y"},
	)
	ctx := context.Background()
	bins := []float64{0, 10}

	_, err := Cut(ctx, nil, CutOptions{Column: "v", Bins: bins})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Cut(ctx, f, CutOptions{Column: "ghost", Bins: bins})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Cut(ctx, f, CutOptions{Column: "s", Bins: bins})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))

	_, err = Cut(ctx, f, CutOptions{Column: "v", Bins: []float64{1}})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Cut(ctx, f, CutOptions{Column: "v", Bins: []float64{0, 5, 5}})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Cut(ctx, f, CutOptions{
		Column: "v",
		Bins:   []float64{0, 10, 20, 30},
		Labels: []string{"only", "two"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "does not match bin count")
}
