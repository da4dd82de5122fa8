//go:build noarrow

package vector

import "github.com/latticedata/lattice/pkg/errors"

// arrowAvailable reports whether this build links the Arrow runtime.
const arrowAvailable = false

func newArrowVector(values []interface{}, kind Kind) (Vector, error) {
	return nil, errors.New(errors.ErrorTypeBackend,
		"arrow backend is not available in this build")
}
