package vector

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
)

func TestSelect_TypedNumericStaysPacked(t *testing.T) {
	cases := []struct {
		name string
		data interface{}
		kind Kind
	}{
		{"float64", []float64{1, 2}, KindFloat64},
		{"int32", []int32{1, 2}, KindInt32},
		{"int", []int{1, 2}, KindInt32},
		{"int64", []int64{1, 2}, KindInt32},
		{"uint32", []uint32{1, 2}, KindUint32},
		{"bool", []bool{true}, KindBool},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			strat, err := Select(tc.data, Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.kind, strat.Kind)
			assert.Equal(t, PackedNumeric, strat.Backend)
		})
	}
}

func TestSelect_ConflictingOptions(t *testing.T) {
	_, err := Select([]float64{1}, Options{AlwaysArrow: true, NeverArrow: true})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSelect_ClassifyUntyped(t *testing.T) {
	cases := []struct {
		name string
		data []interface{}
		kind Kind
	}{
		{"ints", []interface{}{1, 2, 3}, KindInt32},
		{"ints with null", []interface{}{1, nil, 3}, KindInt32},
		{"floats", []interface{}{1.5, 2.5}, KindFloat64},
		{"mixed numeric widens", []interface{}{1, 2.5}, KindFloat64},
		{"bools", []interface{}{true, nil, false}, KindBool},
		{"strings", []interface{}{"a", "b"}, KindGeneric},
		{"string and number", []interface{}{"a", 1}, KindGeneric},
		{"bool and number", []interface{}{true, 1}, KindGeneric},
		{"all null", []interface{}{nil, nil}, KindGeneric},
		{"uints", []interface{}{uint32(1), uint32(2)}, KindUint32},
		{"big int widens", []interface{}{int64(math.MaxInt32) + 1}, KindFloat64},
		{"unknown type", []interface{}{time.Now()}, KindGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			strat, err := Select(tc.data, Options{NeverArrow: true})
			require.NoError(t, err)
			assert.Equal(t, tc.kind, strat.Kind)
		})
	}
}

func TestSelect_SentinelCollisionWidens(t *testing.T) {
	strat, err := Select([]interface{}{int64(math.MinInt32)}, Options{NeverArrow: true})
	require.NoError(t, err)
	assert.Equal(t, KindFloat64, strat.Kind)

	strat, err = Select([]interface{}{uint64(math.MaxUint32)}, Options{NeverArrow: true})
	require.NoError(t, err)
	assert.Equal(t, KindFloat64, strat.Kind)
}

func TestSelect_HugeUntypedSkipsAnalysis(t *testing.T) {
	data := make([]interface{}, analysisCutoff)
	for i := range data {
		data[i] = 1
	}

	strat, err := Select(data, Options{NeverArrow: true})
	require.NoError(t, err)
	assert.Equal(t, KindGeneric, strat.Kind)
	assert.Equal(t, GenericBacked, strat.Backend)
}

func TestSelect_StringsNeverArrow(t *testing.T) {
	strat, err := Select([]string{"a"}, Options{NeverArrow: true})
	require.NoError(t, err)
	assert.Equal(t, KindGeneric, strat.Kind)
	assert.Equal(t, GenericBacked, strat.Backend)
}

func TestNew_TypedPassThrough(t *testing.T) {
	buf := []float64{1, 2, 3}
	v, err := New(buf, Options{})
	require.NoError(t, err)

	fv, ok := v.(*Float64Vector)
	require.True(t, ok)

	// Pass-through wraps the caller's buffer without copying.
	buf[0] = 42
	assert.Equal(t, 42.0, fv.Values()[0])
}

func TestNew_IntConversion(t *testing.T) {
	v, err := New([]int{5, 6}, Options{})
	require.NoError(t, err)
	assert.Equal(t, KindInt32, v.Kind())

	got, err := v.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got)

	_, err = New([]int64{math.MaxInt32 + 1}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	// MinInt32 is reserved as the packed null sentinel.
	_, err = New([]int{math.MinInt32}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestNew_UntypedPackedMaterialization(t *testing.T) {
	v, err := New([]interface{}{1, nil, 3}, Options{NeverArrow: true})
	require.NoError(t, err)
	assert.Equal(t, KindInt32, v.Kind())
	assert.Equal(t, PackedNumeric, v.Backend())
	assert.True(t, v.IsNull(1))

	got, err := v.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), got)
}

func TestNew_FallbackWhenSampleMissesMixedTail(t *testing.T) {
	data := make([]interface{}, 200)
	for i := range data {
		data[i] = i
	}
	// Outside the default sample window, so classification says int32.
	data[190] = "surprise"

	v, err := New(data, Options{NeverArrow: true})
	require.NoError(t, err)
	assert.Equal(t, GenericBacked, v.Backend())

	got, err := v.Get(190)
	require.NoError(t, err)
	assert.Equal(t, "surprise", got)
}

func TestNew_VectorPassesThrough(t *testing.T) {
	orig := FromFloat64s([]float64{1})
	v, err := New(orig, Options{})
	require.NoError(t, err)
	assert.Same(t, orig, v)
}

func TestNew_UnsupportedInput(t *testing.T) {
	_, err := New(map[string]int{"a": 1}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
