package frame

import (
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/vector"
)

// ValidateColumns resolves every name or fails on the first unknown one.
func ValidateColumns(f *Frame, names ...string) ([]vector.Vector, error) {
	if len(names) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no columns given")
	}
	out := make([]vector.Vector, len(names))
	for i, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

// ValidateKind resolves name and checks its kind against the allowed set.
// A kind mismatch is a domain error: the column exists but the operation
// cannot run on it.
func ValidateKind(f *Frame, name string, kinds ...vector.Kind) (vector.Vector, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if col.Kind() == k {
			return col, nil
		}
	}
	want := make([]string, len(kinds))
	for i, k := range kinds {
		want[i] = k.String()
	}
	return nil, errors.Newf(errors.ErrorTypeDomain,
		"column %q has kind %s", name, col.Kind()).
		WithDetail("want", want)
}

// ValidateNumeric resolves name and returns its float64 view, failing with a
// domain error when the column cannot be read numerically.
func ValidateNumeric(f *Frame, name string) ([]float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	floats, err := col.Float64s()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDomain,
			"column "+name+" is not numeric")
	}
	return floats, nil
}
