// Package arrowio serializes frames to and from the Apache Arrow IPC file
// format, the interchange surface for handing columns to other Arrow-aware
// processes without re-encoding cells.
//
// Write and Read are available in every build; under the noarrow build tag
// they fail with a backend error instead of linking the Arrow runtime. The
// zero-copy record conversions ToRecord and FromRecord exist only in Arrow
// builds.
package arrowio

import "github.com/latticedata/lattice/pkg/compress"

// Options configures Write and Read.
type Options struct {
	// Codec compresses the IPC payload, None (or empty) for raw bytes. Both
	// sides must agree: the codec is not recorded in the payload.
	Codec compress.Codec
	// Level is the compression level, compress.Default when zero.
	Level compress.Level
}

func (o Options) codec() compress.Codec {
	if o.Codec == "" {
		return compress.None
	}
	return o.Codec
}
