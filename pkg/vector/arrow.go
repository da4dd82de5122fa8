//go:build !noarrow

package vector

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/latticedata/lattice/pkg/errors"
)

// arrowAvailable reports whether this build links the Arrow runtime. The
// noarrow build tag swaps in a stub that flips this to false.
const arrowAvailable = true

var arrowAllocator = memory.NewGoAllocator()

// ArrowVector adapts an Apache Arrow array to the Vector interface. Unlike
// packed buffers, Arrow carries a validity bitmap, so a float NaN cell and a
// null cell stay distinct here. Float64s still maps null to NaN so numeric
// pipelines behave the same across backends.
type ArrowVector struct {
	kind Kind
	arr  arrow.Array
}

// newArrowVector builds an Arrow-backed column of the given kind from boxed
// values. nil cells become Arrow nulls.
func newArrowVector(values []interface{}, kind Kind) (Vector, error) {
	switch kind {
	case KindFloat64:
		b := array.NewFloat64Builder(arrowAllocator)
		defer b.Release()
		for i, v := range values {
			if v == nil {
				b.AppendNull()
				continue
			}
			f, ok := AsFloat64(v)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d has non-numeric type %T", i, v)
			}
			b.Append(f)
		}
		return &ArrowVector{kind: kind, arr: b.NewArray()}, nil

	case KindInt32:
		b := array.NewInt32Builder(arrowAllocator)
		defer b.Release()
		for i, v := range values {
			if v == nil {
				b.AppendNull()
				continue
			}
			n, ok := asInt32(v)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d does not fit int32 (%T %v)", i, v, v)
			}
			b.Append(n)
		}
		return &ArrowVector{kind: kind, arr: b.NewArray()}, nil

	case KindUint32:
		b := array.NewUint32Builder(arrowAllocator)
		defer b.Release()
		for i, v := range values {
			if v == nil {
				b.AppendNull()
				continue
			}
			n, ok := asUint32(v)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d does not fit uint32 (%T %v)", i, v, v)
			}
			b.Append(n)
		}
		return &ArrowVector{kind: kind, arr: b.NewArray()}, nil

	case KindBool:
		b := array.NewBooleanBuilder(arrowAllocator)
		defer b.Release()
		for i, v := range values {
			if v == nil {
				b.AppendNull()
				continue
			}
			bv, ok := v.(bool)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d has non-bool type %T", i, v)
			}
			b.Append(bv)
		}
		return &ArrowVector{kind: kind, arr: b.NewArray()}, nil

	case KindGeneric:
		b := array.NewStringBuilder(arrowAllocator)
		defer b.Release()
		for i, v := range values {
			if v == nil {
				b.AppendNull()
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d has non-string type %T for arrow string column", i, v)
			}
			b.Append(s)
		}
		return &ArrowVector{kind: kind, arr: b.NewArray()}, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "unknown kind %d", kind)
	}
}

// WrapArrow adapts an existing Arrow array without copying. The array's
// physical type must match the declared kind.
func WrapArrow(arr arrow.Array, kind Kind) (*ArrowVector, error) {
	ok := false
	switch arr.(type) {
	case *array.Float64:
		ok = kind == KindFloat64
	case *array.Int32:
		ok = kind == KindInt32
	case *array.Uint32:
		ok = kind == KindUint32
	case *array.Boolean:
		ok = kind == KindBool
	case *array.String:
		ok = kind == KindGeneric
	}
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeBackend,
			"arrow array type %T does not match kind %s", arr, kind)
	}
	return &ArrowVector{kind: kind, arr: arr}, nil
}

// Kind returns the declared element kind.
func (v *ArrowVector) Kind() Kind { return v.kind }

// Backend returns ArrowBacked.
func (v *ArrowVector) Backend() Backend { return ArrowBacked }

// Len returns the column length.
func (v *ArrowVector) Len() int { return v.arr.Len() }

// Array exposes the wrapped Arrow array for zero-copy interop.
func (v *ArrowVector) Array() arrow.Array { return v.arr }

// Get returns the value at i, nil when the validity bitmap marks it null.
func (v *ArrowVector) Get(i int) (interface{}, error) {
	if i < 0 || i >= v.arr.Len() {
		return nil, errIndex(i, v.arr.Len())
	}
	if v.arr.IsNull(i) {
		return nil, nil
	}
	switch arr := v.arr.(type) {
	case *array.Float64:
		return arr.Value(i), nil
	case *array.Int32:
		return arr.Value(i), nil
	case *array.Uint32:
		return arr.Value(i), nil
	case *array.Boolean:
		return arr.Value(i), nil
	case *array.String:
		return arr.Value(i), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeBackend,
			"unsupported arrow array type %T", v.arr)
	}
}

// IsNull reports whether the validity bitmap marks the cell null.
func (v *ArrowVector) IsNull(i int) bool {
	return i >= 0 && i < v.arr.Len() && v.arr.IsNull(i)
}

// ToSlice materializes boxed values with nil for null cells.
func (v *ArrowVector) ToSlice() []interface{} {
	out := make([]interface{}, v.arr.Len())
	for i := range out {
		val, err := v.Get(i)
		if err == nil {
			out[i] = val
		}
	}
	return out
}

// Float64s materializes a float64 view with NaN for null cells.
func (v *ArrowVector) Float64s() ([]float64, error) {
	n := v.arr.Len()
	out := make([]float64, n)
	switch arr := v.arr.(type) {
	case *array.Float64:
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				out[i] = math.NaN()
			} else {
				out[i] = arr.Value(i)
			}
		}
	case *array.Int32:
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				out[i] = math.NaN()
			} else {
				out[i] = float64(arr.Value(i))
			}
		}
	case *array.Uint32:
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				out[i] = math.NaN()
			} else {
				out[i] = float64(arr.Value(i))
			}
		}
	case *array.Boolean:
		for i := 0; i < n; i++ {
			switch {
			case arr.IsNull(i):
				out[i] = math.NaN()
			case arr.Value(i):
				out[i] = 1
			default:
				out[i] = 0
			}
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"column of kind %s is not numeric", v.kind)
	}
	return out, nil
}

// MemoryUsage sums the lengths of the retained Arrow buffers.
func (v *ArrowVector) MemoryUsage() int64 {
	var size int64
	for _, buf := range v.arr.Data().Buffers() {
		if buf != nil {
			size += int64(buf.Len())
		}
	}
	return size
}
