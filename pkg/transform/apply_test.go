package transform

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/vector"
)

func mk(t *testing.T, names []string, cols ...interface{}) *frame.Frame {
	t.Helper()
	require.Len(t, cols, len(names))

	vecs := make([]vector.Vector, len(cols))
	for i, c := range cols {
		v, err := vector.New(c, vector.Options{})
		require.NoError(t, err)
		vecs[i] = v
	}
	f, err := frame.New(names, vecs)
	require.NoError(t, err)
	return f
}

func cell(t *testing.T, f *frame.Frame, name string, row int) interface{} {
	t.Helper()
	v, err := f.Get(name, row)
	require.NoError(t, err)
	return v
}

func TestApply_MapsCells(t *testing.T) {
	f := mk(t, []string{"id", "v"},
		[]int32{1, 2},
		[]float64{1.5, 2.5},
	)

	out, err := Apply(context.Background(), f, "v", func(v interface{}) (interface{}, error) {
		return v.(float64) * 2, nil
	})
	require.NoError(t, err)

	// Column order is preserved and untouched columns are shared.
	assert.Equal(t, []string{"id", "v"}, out.Names())
	assert.Equal(t, 3.0, cell(t, out, "v", 0))
	assert.Equal(t, 5.0, cell(t, out, "v", 1))
	assert.Equal(t, int32(1), cell(t, out, "id", 0))

	// The input frame is untouched.
	assert.Equal(t, 1.5, cell(t, f, "v", 0))
}

func TestApply_FailuresNullTheCell(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{1, 2, 3})

	out, err := Apply(context.Background(), f, "v", func(v interface{}) (interface{}, error) {
		switch v.(float64) {
		case 1:
			return nil, fmt.Errorf("no")
		case 2:
			panic("boom")
		default:
			return v, nil
		}
	})
	require.NoError(t, err)

	col, err := out.Column("v")
	require.NoError(t, err)
	assert.True(t, col.IsNull(0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, 3.0, cell(t, out, "v", 2))
}

func TestApply_ReselectsBackendOnTypeChange(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{1, 2})

	out, err := Apply(context.Background(), f, "v", func(v interface{}) (interface{}, error) {
		return fmt.Sprintf("n%v", v), nil
	})
	require.NoError(t, err)

	col, err := out.Column("v")
	require.NoError(t, err)
	assert.Equal(t, vector.KindGeneric, col.Kind())
	assert.Equal(t, "n1", cell(t, out, "v", 0))
}

func TestApply_Validation(t *testing.T) {
	f := mk(t, []string{"v"}, []float64{1})
	ctx := context.Background()

	_, err := Apply(ctx, f, "ghost", func(v interface{}) (interface{}, error) { return v, nil })
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Apply(ctx, f, "v", nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Apply(ctx, nil, "v", func(v interface{}) (interface{}, error) { return v, nil })
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestMutate_DerivesColumn(t *testing.T) {
	f := mk(t, []string{"a", "b"},
		[]float64{1, 2},
		[]float64{10, 20},
	)

	out, err := Mutate(context.Background(), f, "sum", func(row frame.Row) (interface{}, error) {
		a, err := row.Value("a")
		if err != nil {
			return nil, err
		}
		b, err := row.Value("b")
		if err != nil {
			return nil, err
		}
		return a.(float64) + b.(float64), nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "sum"}, out.Names())
	assert.Equal(t, 11.0, cell(t, out, "sum", 0))
	assert.Equal(t, 22.0, cell(t, out, "sum", 1))
}

func TestMutate_ReplacesInPlace(t *testing.T) {
	f := mk(t, []string{"a", "b"},
		[]float64{1, 2},
		[]float64{10, 20},
	)

	out, err := Mutate(context.Background(), f, "a", func(row frame.Row) (interface{}, error) {
		v, err := row.Value("a")
		if err != nil {
			return nil, err
		}
		return v.(float64) * 100, nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, out.Names())
	assert.Equal(t, 100.0, cell(t, out, "a", 0))
}

func TestMutate_FailuresNullTheCell(t *testing.T) {
	f := mk(t, []string{"a"}, []float64{1, 2, 3})

	out, err := Mutate(context.Background(), f, "odd", func(row frame.Row) (interface{}, error) {
		if row.Index() == 1 {
			panic("skip me")
		}
		return float64(row.Index()), nil
	})
	require.NoError(t, err)

	col, err := out.Column("odd")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cell(t, out, "odd", 0))
	assert.True(t, col.IsNull(1))
	assert.Equal(t, 2.0, cell(t, out, "odd", 2))
}

func TestMutate_Validation(t *testing.T) {
	f := mk(t, []string{"a"}, []float64{1})
	ctx := context.Background()

	_, err := Mutate(ctx, f, "", func(frame.Row) (interface{}, error) { return 1, nil })
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Mutate(ctx, f, "x", nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
