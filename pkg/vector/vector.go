// Package vector provides the columnar storage abstraction for lattice.
//
// A Vector is a fixed-length, homogeneous column of values behind one of
// three backends: a packed numeric buffer, a generic boxed-value array, or an
// Apache Arrow array. The backend is chosen once at construction by the
// strategy selector (see selector.go) and never re-inspected downstream;
// operators program against the Vector interface only.
//
// Null representation depends on the backend. Packed numeric buffers encode
// null as NaN (float64) or a reserved sentinel (int32/uint32/bool-as-byte),
// so "missing" and NaN are indistinguishable at this layer. The generic and
// Arrow backends carry null as a first-class tag. This conflation is a
// documented property of the storage design, not a bug: callers must not
// assume NaN always means "missing" in numeric columns.
package vector

import (
	"math"

	"github.com/latticedata/lattice/pkg/errors"
)

// Kind is the declared logical element type of a Vector.
type Kind int

const (
	// KindFloat64 is a 64-bit float column.
	KindFloat64 Kind = iota
	// KindInt32 is a 32-bit signed integer column.
	KindInt32
	// KindUint32 is a 32-bit unsigned integer column.
	KindUint32
	// KindBool is a boolean column stored as one byte per value.
	KindBool
	// KindGeneric is a string or mixed boxed-value column.
	KindGeneric
)

// String returns the dtype tag used in Frame.Dtypes and display output.
func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindBool:
		return "bool"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this kind live in packed numeric
// buffers when the backend is PackedNumeric.
func (k Kind) IsNumeric() bool {
	return k == KindFloat64 || k == KindInt32 || k == KindUint32 || k == KindBool
}

// Backend identifies the concrete storage strategy behind a Vector.
type Backend int

const (
	// PackedNumeric stores values in a flat numeric buffer with sentinel nulls.
	PackedNumeric Backend = iota
	// GenericBacked stores boxed values in an []interface{} with nil nulls.
	GenericBacked
	// ArrowBacked stores values in an Apache Arrow array with a validity bitmap.
	ArrowBacked
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case PackedNumeric:
		return "packed"
	case GenericBacked:
		return "generic"
	case ArrowBacked:
		return "arrow"
	default:
		return "unknown"
	}
}

// Null sentinels for packed numeric storage. Float64 columns use NaN.
const (
	// NullInt32 marks a null cell in an int32 buffer.
	NullInt32 = math.MinInt32
	// NullUint32 marks a null cell in a uint32 buffer.
	NullUint32 = math.MaxUint32
	// NullBool marks a null cell in a bool-as-byte buffer.
	NullBool = byte(0xFF)
)

// Vector is a fixed-length columnar sequence of values of one logical kind.
// Implementations are immutable once published: no method mutates the
// underlying buffer, which is what makes shallow Frame clones safe.
type Vector interface {
	// Kind returns the declared element kind.
	Kind() Kind
	// Backend returns the storage strategy chosen at construction.
	Backend() Backend
	// Len returns the fixed length.
	Len() int
	// Get returns the value at i with logical null normalized to nil.
	// Indexing is bounds-checked.
	Get(i int) (interface{}, error)
	// IsNull reports whether the cell at i holds logical null. For packed
	// float columns this is true for NaN cells as well; the two cannot be
	// told apart at this layer.
	IsNull(i int) bool
	// ToSlice materializes the column as boxed values with nil for null.
	ToSlice() []interface{}
	// Float64s materializes a numeric view of the column with NaN for null.
	// Fails with a validation error when a non-null value cannot be
	// represented as a number.
	Float64s() ([]float64, error)
	// MemoryUsage estimates the bytes held by the underlying buffer.
	MemoryUsage() int64
}

// errIndex builds the shared bounds-check failure.
func errIndex(i, n int) error {
	return errors.Newf(errors.ErrorTypeValidation, "index %d out of range [0, %d)", i, n)
}

// Copy returns a deep copy of v: the underlying buffer is duplicated. The
// result keeps v's backend and kind.
func Copy(v Vector) Vector {
	switch src := v.(type) {
	case *Float64Vector:
		data := make([]float64, len(src.data))
		copy(data, src.data)
		return &Float64Vector{data: data}
	case *Int32Vector:
		data := make([]int32, len(src.data))
		copy(data, src.data)
		return &Int32Vector{data: data}
	case *Uint32Vector:
		data := make([]uint32, len(src.data))
		copy(data, src.data)
		return &Uint32Vector{data: data}
	case *BoolVector:
		data := make([]byte, len(src.data))
		copy(data, src.data)
		return &BoolVector{data: data}
	case *GenericVector:
		data := make([]interface{}, len(src.data))
		copy(data, src.data)
		return &GenericVector{data: data}
	default:
		// Arrow buffers are immutable by construction; rebuilding through the
		// boxed form is the only portable duplication.
		out, err := fromValues(v.ToSlice(), v.Kind(), v.Backend())
		if err != nil {
			return v
		}
		return out
	}
}

// AsFloat64 coerces a boxed scalar to float64. Booleans map to 1 and 0,
// matching the packed bool-as-byte storage rule.
func AsFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
