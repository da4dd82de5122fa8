package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/testutil"
	"github.com/latticedata/lattice/pkg/vector"
)

func sample(t *testing.T) *frame.Frame {
	t.Helper()
	return testutil.MustFrame(t,
		[]string{"id", "price", "note"},
		map[string]interface{}{
			"id":    []int32{1, 2, 3},
			"price": []interface{}{9.5, nil, 7.25},
			"note":  []string{"ok", "check", "ok"},
		},
		vector.Options{NeverArrow: true})
}

func TestString_RendersHeaderAndCells(t *testing.T) {
	out := String(sample(t), Options{})

	assert.Contains(t, out, "id")
	assert.Contains(t, out, "price")
	assert.Contains(t, out, "9.5")
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "null")
	assert.Contains(t, out, "[3 rows x 3 cols]")
}

func TestString_ShowDtypes(t *testing.T) {
	out := String(sample(t), Options{ShowDtypes: true})

	assert.Contains(t, out, "id (int32)")
	assert.Contains(t, out, "price (float64)")
	assert.Contains(t, out, "note (generic)")
}

func TestString_TruncatesLongFrames(t *testing.T) {
	n := 100
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	f := testutil.MustFrame(t, []string{"x"},
		map[string]interface{}{"x": vals}, vector.Options{NeverArrow: true})

	out := String(f, Options{MaxRows: 6})

	assert.Contains(t, out, "…")
	assert.Contains(t, out, "99") // tail survives
	assert.NotContains(t, out, "50")
	assert.Contains(t, out, "[100 rows x 1 cols]")
}

func TestString_NegativeMaxRowsDisablesTruncation(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = float64(i)
	}
	f := testutil.MustFrame(t, []string{"x"},
		map[string]interface{}{"x": vals}, vector.Options{NeverArrow: true})

	out := String(f, Options{MaxRows: -1})
	assert.NotContains(t, out, "…")
	assert.Contains(t, out, "29")
}

func TestString_TruncatesWideCells(t *testing.T) {
	f := testutil.MustFrame(t, []string{"s"},
		map[string]interface{}{"s": []string{strings.Repeat("a", 80)}},
		vector.Options{NeverArrow: true})

	out := String(f, Options{MaxColWidth: 10})
	assert.Contains(t, out, strings.Repeat("a", 9)+"…")
	assert.NotContains(t, out, strings.Repeat("a", 11))
}

func TestString_HideFooter(t *testing.T) {
	out := String(sample(t), Options{HideFooter: true})
	assert.NotContains(t, out, "rows x")
}

func TestString_SingularRow(t *testing.T) {
	f := testutil.MustFrame(t, []string{"x"},
		map[string]interface{}{"x": []float64{1}}, vector.Options{NeverArrow: true})

	out := String(f, Options{})
	assert.Contains(t, out, "[1 row x 1 cols]")
}

func TestString_EmptyFrame(t *testing.T) {
	out := String(frame.Empty(), Options{})
	assert.Contains(t, out, "[0 rows x 0 cols]")
}

func TestRender_NilFrame(t *testing.T) {
	err := Render(&strings.Builder{}, nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
