package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
)

func TestOneHot_EncodesDistinctValues(t *testing.T) {
	f := mk(t, []string{"id", "tag"},
		[]int32{1, 2, 3, 4},
		[]interface{}{"b", "a", "b", nil},
	)

	out, err := OneHot(context.Background(), f, OneHotOptions{Column: "tag"})
	require.NoError(t, err)

	// Indicators append in lexicographic order with null first.
	assert.Equal(t, []string{"id", "tag", "tag_null", "tag_a", "tag_b"}, out.Names())

	assert.Equal(t, []interface{}{0.0, 0.0, 0.0, 1.0}, colCells(t, out, "tag_null"))
	assert.Equal(t, []interface{}{0.0, 1.0, 0.0, 0.0}, colCells(t, out, "tag_a"))
	assert.Equal(t, []interface{}{1.0, 0.0, 1.0, 0.0}, colCells(t, out, "tag_b"))

	// The source column survives by default.
	assert.Equal(t, "b", cell(t, out, "tag", 0))
}

func TestOneHot_NumericColumn(t *testing.T) {
	f := mk(t, []string{"v"}, []int32{2, 10, 2})

	out, err := OneHot(context.Background(), f, OneHotOptions{Column: "v"})
	require.NoError(t, err)

	// Distinct values order by canonical string form.
	assert.Equal(t, []string{"v", "v_10", "v_2"}, out.Names())
	assert.Equal(t, []interface{}{0.0, 1.0, 0.0}, colCells(t, out, "v_10"))
	assert.Equal(t, []interface{}{1.0, 0.0, 1.0}, colCells(t, out, "v_2"))
}

func TestOneHot_DropFirstAndSource(t *testing.T) {
	f := mk(t, []string{"tag"}, []string{"a", "b"})

	out, err := OneHot(context.Background(), f, OneHotOptions{
		Column:    "tag",
		DropFirst: true,
		Drop:      true,
	})
	require.NoError(t, err)

	// "a" is implied by tag_b being 0.
	assert.Equal(t, []string{"tag_b"}, out.Names())
	assert.Equal(t, []interface{}{0.0, 1.0}, colCells(t, out, "tag_b"))
}

func TestOneHot_CustomPrefix(t *testing.T) {
	f := mk(t, []string{"tag"}, []string{"x"})

	out, err := OneHot(context.Background(), f, OneHotOptions{Column: "tag", Prefix: "is"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tag", "is_x"}, out.Names())
}

func TestOneHot_CollisionFails(t *testing.T) {
	f := mk(t, []string{"tag", "tag_a"},
		[]string{"a"},
		[]float64{9},
	)

	_, err := OneHot(context.Background(), f, OneHotOptions{Column: "tag"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestOneHot_UnknownColumn(t *testing.T) {
	f := mk(t, []string{"tag"}, []string{"a"})

	_, err := OneHot(context.Background(), f, OneHotOptions{Column: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func colCells(t *testing.T, f *frame.Frame, name string) []interface{} {
	t.Helper()
	col, err := f.Column(name)
	require.NoError(t, err)
	return col.ToSlice()
}
