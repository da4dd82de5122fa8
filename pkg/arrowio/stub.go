//go:build noarrow

package arrowio

import (
	"context"
	"io"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
)

// Write fails: this build does not link the Arrow runtime.
func Write(_ context.Context, _ io.Writer, _ *frame.Frame, _ Options) error {
	return errors.New(errors.ErrorTypeBackend,
		"arrow interop is not available in this build")
}

// Read fails: this build does not link the Arrow runtime.
func Read(_ context.Context, _ io.Reader, _ Options) (*frame.Frame, error) {
	return nil, errors.New(errors.ErrorTypeBackend,
		"arrow interop is not available in this build")
}
