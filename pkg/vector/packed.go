package vector

import (
	"math"

	"github.com/latticedata/lattice/pkg/errors"
)

// Float64Vector is a packed column of float64 values. Null is NaN.
type Float64Vector struct {
	data []float64
}

// FromFloat64s wraps data in a packed float column without copying.
func FromFloat64s(data []float64) *Float64Vector {
	return &Float64Vector{data: data}
}

// Kind returns KindFloat64.
func (v *Float64Vector) Kind() Kind { return KindFloat64 }

// Backend returns PackedNumeric.
func (v *Float64Vector) Backend() Backend { return PackedNumeric }

// Len returns the column length.
func (v *Float64Vector) Len() int { return len(v.data) }

// Get returns the value at i, nil when the cell is NaN.
func (v *Float64Vector) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(v.data) {
		return nil, errIndex(i, len(v.data))
	}
	if math.IsNaN(v.data[i]) {
		return nil, nil
	}
	return v.data[i], nil
}

// IsNull reports whether the cell at i is NaN.
func (v *Float64Vector) IsNull(i int) bool {
	return i >= 0 && i < len(v.data) && math.IsNaN(v.data[i])
}

// ToSlice materializes boxed values with nil for NaN cells.
func (v *Float64Vector) ToSlice() []interface{} {
	out := make([]interface{}, len(v.data))
	for i, f := range v.data {
		if !math.IsNaN(f) {
			out[i] = f
		}
	}
	return out
}

// Float64s returns the raw buffer. The caller must not mutate it.
func (v *Float64Vector) Float64s() ([]float64, error) {
	return v.data, nil
}

// Values returns the raw buffer for zero-copy numeric pipelines.
func (v *Float64Vector) Values() []float64 { return v.data }

// MemoryUsage returns the buffer size in bytes.
func (v *Float64Vector) MemoryUsage() int64 { return int64(len(v.data)) * 8 }

// Int32Vector is a packed column of int32 values. Null is NullInt32.
type Int32Vector struct {
	data []int32
}

// FromInt32s wraps data in a packed int32 column without copying.
func FromInt32s(data []int32) *Int32Vector {
	return &Int32Vector{data: data}
}

// Kind returns KindInt32.
func (v *Int32Vector) Kind() Kind { return KindInt32 }

// Backend returns PackedNumeric.
func (v *Int32Vector) Backend() Backend { return PackedNumeric }

// Len returns the column length.
func (v *Int32Vector) Len() int { return len(v.data) }

// Get returns the value at i, nil when the cell holds the sentinel.
func (v *Int32Vector) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(v.data) {
		return nil, errIndex(i, len(v.data))
	}
	if v.data[i] == NullInt32 {
		return nil, nil
	}
	return v.data[i], nil
}

// IsNull reports whether the cell at i holds the sentinel.
func (v *Int32Vector) IsNull(i int) bool {
	return i >= 0 && i < len(v.data) && v.data[i] == NullInt32
}

// ToSlice materializes boxed values with nil for sentinel cells.
func (v *Int32Vector) ToSlice() []interface{} {
	out := make([]interface{}, len(v.data))
	for i, n := range v.data {
		if n != NullInt32 {
			out[i] = n
		}
	}
	return out
}

// Float64s widens the column to float64 with NaN for null.
func (v *Int32Vector) Float64s() ([]float64, error) {
	out := make([]float64, len(v.data))
	for i, n := range v.data {
		if n == NullInt32 {
			out[i] = math.NaN()
		} else {
			out[i] = float64(n)
		}
	}
	return out, nil
}

// Values returns the raw buffer for zero-copy numeric pipelines.
func (v *Int32Vector) Values() []int32 { return v.data }

// MemoryUsage returns the buffer size in bytes.
func (v *Int32Vector) MemoryUsage() int64 { return int64(len(v.data)) * 4 }

// Uint32Vector is a packed column of uint32 values. Null is NullUint32.
type Uint32Vector struct {
	data []uint32
}

// FromUint32s wraps data in a packed uint32 column without copying.
func FromUint32s(data []uint32) *Uint32Vector {
	return &Uint32Vector{data: data}
}

// Kind returns KindUint32.
func (v *Uint32Vector) Kind() Kind { return KindUint32 }

// Backend returns PackedNumeric.
func (v *Uint32Vector) Backend() Backend { return PackedNumeric }

// Len returns the column length.
func (v *Uint32Vector) Len() int { return len(v.data) }

// Get returns the value at i, nil when the cell holds the sentinel.
func (v *Uint32Vector) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(v.data) {
		return nil, errIndex(i, len(v.data))
	}
	if v.data[i] == NullUint32 {
		return nil, nil
	}
	return v.data[i], nil
}

// IsNull reports whether the cell at i holds the sentinel.
func (v *Uint32Vector) IsNull(i int) bool {
	return i >= 0 && i < len(v.data) && v.data[i] == NullUint32
}

// ToSlice materializes boxed values with nil for sentinel cells.
func (v *Uint32Vector) ToSlice() []interface{} {
	out := make([]interface{}, len(v.data))
	for i, n := range v.data {
		if n != NullUint32 {
			out[i] = n
		}
	}
	return out
}

// Float64s widens the column to float64 with NaN for null.
func (v *Uint32Vector) Float64s() ([]float64, error) {
	out := make([]float64, len(v.data))
	for i, n := range v.data {
		if n == NullUint32 {
			out[i] = math.NaN()
		} else {
			out[i] = float64(n)
		}
	}
	return out, nil
}

// Values returns the raw buffer for zero-copy numeric pipelines.
func (v *Uint32Vector) Values() []uint32 { return v.data }

// MemoryUsage returns the buffer size in bytes.
func (v *Uint32Vector) MemoryUsage() int64 { return int64(len(v.data)) * 4 }

// BoolVector is a packed column of booleans stored one byte per value
// (0=false, 1=true). Null is NullBool.
type BoolVector struct {
	data []byte
}

// FromBools packs data into a bool-as-byte column.
func FromBools(data []bool) *BoolVector {
	buf := make([]byte, len(data))
	for i, b := range data {
		if b {
			buf[i] = 1
		}
	}
	return &BoolVector{data: buf}
}

// FromBoolBytes wraps an already-packed byte buffer without copying.
// Bytes other than 0, 1 and NullBool are rejected.
func FromBoolBytes(data []byte) (*BoolVector, error) {
	for i, b := range data {
		if b != 0 && b != 1 && b != NullBool {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"invalid bool byte 0x%02X at row %d", b, i)
		}
	}
	return &BoolVector{data: data}, nil
}

// Kind returns KindBool.
func (v *BoolVector) Kind() Kind { return KindBool }

// Backend returns PackedNumeric.
func (v *BoolVector) Backend() Backend { return PackedNumeric }

// Len returns the column length.
func (v *BoolVector) Len() int { return len(v.data) }

// Get returns the value at i, nil when the cell holds the sentinel.
func (v *BoolVector) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(v.data) {
		return nil, errIndex(i, len(v.data))
	}
	if v.data[i] == NullBool {
		return nil, nil
	}
	return v.data[i] == 1, nil
}

// IsNull reports whether the cell at i holds the sentinel.
func (v *BoolVector) IsNull(i int) bool {
	return i >= 0 && i < len(v.data) && v.data[i] == NullBool
}

// ToSlice materializes boxed values with nil for sentinel cells.
func (v *BoolVector) ToSlice() []interface{} {
	out := make([]interface{}, len(v.data))
	for i, b := range v.data {
		if b != NullBool {
			out[i] = b == 1
		}
	}
	return out
}

// Float64s maps true to 1, false to 0 and null to NaN.
func (v *BoolVector) Float64s() ([]float64, error) {
	out := make([]float64, len(v.data))
	for i, b := range v.data {
		switch b {
		case NullBool:
			out[i] = math.NaN()
		case 1:
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return out, nil
}

// Bytes returns the raw packed buffer for zero-copy pipelines.
func (v *BoolVector) Bytes() []byte { return v.data }

// MemoryUsage returns the buffer size in bytes.
func (v *BoolVector) MemoryUsage() int64 { return int64(len(v.data)) }
