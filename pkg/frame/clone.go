package frame

import (
	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/vector"
)

// Depth selects how much storage a clone duplicates.
type Depth int

const (
	// Shallow shares column buffers with the source frame. Safe because
	// vectors are immutable.
	Shallow Depth = iota
	// Deep duplicates every column buffer.
	Deep
)

// Representation selects how a clone treats column backends.
type Representation int

const (
	// Preserve keeps each column's backend as selected at construction.
	Preserve Representation = iota
	// ForceTyped re-runs backend selection per column, upgrading generic
	// columns whose content turned out to be uniformly typed. Implies a
	// deep materialization and drops the raw row cache.
	ForceTyped
)

// CloneOptions controls Frame.Clone. The zero value is a shallow,
// representation-preserving clone that keeps the raw row cache.
type CloneOptions struct {
	Depth          Depth
	Representation Representation
	DropRawCache   bool
}

// Clone copies the frame per opts. The result is always a distinct frame
// header; what it shares with the source depends on Depth and
// Representation.
func (f *Frame) Clone(opts CloneOptions) (*Frame, error) {
	g := f.shallow()

	switch opts.Representation {
	case ForceTyped:
		for name, col := range g.columns {
			re, err := vector.New(col.ToSlice(), vector.Options{})
			if err != nil {
				return nil, err
			}
			g.columns[name] = re
		}
		g.rawRows = nil
	default:
		if opts.Depth == Deep {
			for name, col := range g.columns {
				g.columns[name] = vector.Copy(col)
			}
			if g.rawRows != nil {
				g.rawRows = copyRawRows(g.rawRows)
			}
		}
	}

	if opts.DropRawCache {
		g.rawRows = nil
	}

	logger.Op("frame.clone").Debug("frame cloned",
		zap.Uint64("from", f.id),
		zap.Uint64("to", g.id),
		zap.Bool("deep", opts.Depth == Deep),
		zap.Bool("force_typed", opts.Representation == ForceTyped))
	return g, nil
}

func copyRawRows(rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		dup := make([]interface{}, len(row))
		copy(dup, row)
		out[i] = dup
	}
	return out
}
