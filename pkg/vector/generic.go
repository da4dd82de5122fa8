package vector

import (
	"math"

	"github.com/latticedata/lattice/pkg/errors"
)

// GenericVector is a boxed-value column. Null is nil. Strings are routed
// through the shared intern pool at construction so categorical columns
// share one backing string per distinct value.
type GenericVector struct {
	data []interface{}
}

// FromValues copies data into a generic column, interning string cells.
func FromValues(data []interface{}) *GenericVector {
	out := make([]interface{}, len(data))
	for i, v := range data {
		if s, ok := v.(string); ok {
			out[i] = Intern(s)
		} else {
			out[i] = v
		}
	}
	return &GenericVector{data: out}
}

// FromStrings builds a generic column from string cells, interning each.
func FromStrings(data []string) *GenericVector {
	out := make([]interface{}, len(data))
	for i, s := range data {
		out[i] = Intern(s)
	}
	return &GenericVector{data: out}
}

// Kind returns KindGeneric.
func (v *GenericVector) Kind() Kind { return KindGeneric }

// Backend returns GenericBacked.
func (v *GenericVector) Backend() Backend { return GenericBacked }

// Len returns the column length.
func (v *GenericVector) Len() int { return len(v.data) }

// Get returns the boxed value at i, nil when the cell is null.
func (v *GenericVector) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(v.data) {
		return nil, errIndex(i, len(v.data))
	}
	return v.data[i], nil
}

// IsNull reports whether the cell at i is nil.
func (v *GenericVector) IsNull(i int) bool {
	return i >= 0 && i < len(v.data) && v.data[i] == nil
}

// ToSlice returns a copy of the boxed values.
func (v *GenericVector) ToSlice() []interface{} {
	out := make([]interface{}, len(v.data))
	copy(out, v.data)
	return out
}

// Float64s coerces every non-null cell to float64 with NaN for null. A cell
// that cannot be represented numerically fails the whole call.
func (v *GenericVector) Float64s() ([]float64, error) {
	out := make([]float64, len(v.data))
	for i, val := range v.data {
		if val == nil {
			out[i] = math.NaN()
			continue
		}
		f, ok := AsFloat64(val)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"cell at row %d has non-numeric type %T", i, val)
		}
		out[i] = f
	}
	return out, nil
}

// MemoryUsage estimates interface headers plus string payloads.
func (v *GenericVector) MemoryUsage() int64 {
	size := int64(len(v.data)) * 16
	for _, val := range v.data {
		if s, ok := val.(string); ok {
			size += int64(len(s))
		}
	}
	return size
}
