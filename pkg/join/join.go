// Package join implements hash equi-joins between frames.
//
// The right frame is indexed once into composite-key buckets, then the probe
// side streams through in order, so output rows are deterministic: matched
// rows follow the probe frame's order, and for outer joins the unmatched
// right rows append afterward in right-frame order. Null key cells encode to
// the reserved null token, so null keys match each other.
package join

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/internal/parallel"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// Kind is the join flavor.
type Kind int

const (
	Inner Kind = iota
	Left
	Right
	Outer
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Right:
		return "right"
	case Outer:
		return "outer"
	default:
		return "unknown"
	}
}

// ParseKind resolves a join kind from its name. "full" is accepted as an
// alias for outer.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "inner":
		return Inner, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "outer", "full":
		return Outer, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeDomain, "unknown join kind %q", name)
	}
}

// DefaultSuffix disambiguates right-side columns that collide with left
// column names.
const DefaultSuffix = "_right"

// Options configures a join. Set either On, or both LeftOn and RightOn with
// equal lengths.
type Options struct {
	Kind Kind
	// On names key columns present in both frames. The output carries one
	// merged column per key.
	On []string
	// LeftOn and RightOn name key columns independently. Both sides' key
	// columns survive in the output.
	LeftOn  []string
	RightOn []string
	// Suffix renames colliding right columns. Defaults to DefaultSuffix.
	Suffix string
}

// InnerJoin joins left and right on the shared key columns.
func InnerJoin(ctx context.Context, left, right *frame.Frame, on ...string) (*frame.Frame, error) {
	return Join(ctx, left, right, Options{Kind: Inner, On: on})
}

// LeftJoin keeps every left row, filling unmatched right cells with null.
func LeftJoin(ctx context.Context, left, right *frame.Frame, on ...string) (*frame.Frame, error) {
	return Join(ctx, left, right, Options{Kind: Left, On: on})
}

// RightJoin keeps every right row, filling unmatched left cells with null.
func RightJoin(ctx context.Context, left, right *frame.Frame, on ...string) (*frame.Frame, error) {
	return Join(ctx, left, right, Options{Kind: Right, On: on})
}

// OuterJoin keeps every row from both sides.
func OuterJoin(ctx context.Context, left, right *frame.Frame, on ...string) (*frame.Frame, error) {
	return Join(ctx, left, right, Options{Kind: Outer, On: on})
}

// Join runs the hash equi-join described by opts.
func Join(ctx context.Context, left, right *frame.Frame, opts Options) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("join", start, rows, err)
	}()

	if left == nil || right == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}
	leftOn, rightOn, err := resolveKeys(left, right, opts)
	if err != nil {
		return nil, err
	}

	leftKeyCols, err := frame.ValidateColumns(left, leftOn...)
	if err != nil {
		return nil, err
	}
	rightKeyCols, err := frame.ValidateColumns(right, rightOn...)
	if err != nil {
		return nil, err
	}

	index, err := buildIndex(ctx, rightKeyCols, right.RowCount())
	if err != nil {
		return nil, err
	}

	leftIdx, rightIdx, err := pair(ctx, opts.Kind, leftKeyCols, left.RowCount(), index, right.RowCount())
	if err != nil {
		return nil, err
	}

	out, err = assemble(ctx, left, right, leftOn, rightOn, opts, leftIdx, rightIdx)
	if err != nil {
		return nil, err
	}

	logger.Op("join").Debug("join done",
		zap.String("kind", opts.Kind.String()),
		zap.Int("left_rows", left.RowCount()),
		zap.Int("right_rows", right.RowCount()),
		zap.Int("out_rows", out.RowCount()),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

func resolveKeys(left, right *frame.Frame, opts Options) ([]string, []string, error) {
	switch {
	case len(opts.On) > 0:
		if len(opts.LeftOn) > 0 || len(opts.RightOn) > 0 {
			return nil, nil, errors.New(errors.ErrorTypeValidation,
				"On conflicts with LeftOn/RightOn")
		}
		return opts.On, opts.On, nil
	case len(opts.LeftOn) > 0 && len(opts.RightOn) > 0:
		if len(opts.LeftOn) != len(opts.RightOn) {
			return nil, nil, errors.Newf(errors.ErrorTypeValidation,
				"LeftOn has %d columns, RightOn has %d", len(opts.LeftOn), len(opts.RightOn))
		}
		return opts.LeftOn, opts.RightOn, nil
	default:
		return nil, nil, errors.New(errors.ErrorTypeValidation,
			"join keys missing: set On, or LeftOn and RightOn")
	}
}

// buildIndex buckets right-frame rows by composite key.
func buildIndex(ctx context.Context, keyCols []vector.Vector, rows int) (map[string][]int, error) {
	index := make(map[string][]int, rows)
	buf := make([]interface{}, len(keyCols))
	for i := 0; i < rows; i++ {
		if i%8192 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		k, err := rowKey(keyCols, i, buf)
		if err != nil {
			return nil, err
		}
		index[k] = append(index[k], i)
	}
	return index, nil
}

func rowKey(keyCols []vector.Vector, row int, buf []interface{}) (string, error) {
	for c, col := range keyCols {
		v, err := col.Get(row)
		if err != nil {
			return "", err
		}
		buf[c] = v
	}
	return keys.Composite(buf), nil
}

// pair computes aligned (left row, right row) index pairs with -1 for the
// missing side.
func pair(ctx context.Context, kind Kind, leftKeyCols []vector.Vector, leftRows int,
	index map[string][]int, rightRows int) ([]int, []int, error) {

	var leftIdx, rightIdx []int
	buf := make([]interface{}, len(leftKeyCols))

	probe := func(emitUnmatchedLeft bool, mark []bool) error {
		for i := 0; i < leftRows; i++ {
			if i%8192 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			k, err := rowKey(leftKeyCols, i, buf)
			if err != nil {
				return err
			}
			matches := index[k]
			if len(matches) == 0 {
				if emitUnmatchedLeft {
					leftIdx = append(leftIdx, i)
					rightIdx = append(rightIdx, -1)
				}
				continue
			}
			for _, r := range matches {
				leftIdx = append(leftIdx, i)
				rightIdx = append(rightIdx, r)
				if mark != nil {
					mark[r] = true
				}
			}
		}
		return nil
	}

	switch kind {
	case Inner:
		if err := probe(false, nil); err != nil {
			return nil, nil, err
		}

	case Left:
		if err := probe(true, nil); err != nil {
			return nil, nil, err
		}

	case Right:
		// Probe left rows to find matches, then reorder by right row so the
		// output follows right-frame order.
		matched := make([]bool, rightRows)
		if err := probe(false, matched); err != nil {
			return nil, nil, err
		}
		byRight := make(map[int][]int, rightRows)
		for p, r := range rightIdx {
			byRight[r] = append(byRight[r], leftIdx[p])
		}
		leftIdx = leftIdx[:0]
		rightIdx = rightIdx[:0]
		for r := 0; r < rightRows; r++ {
			if !matched[r] {
				leftIdx = append(leftIdx, -1)
				rightIdx = append(rightIdx, r)
				continue
			}
			for _, l := range byRight[r] {
				leftIdx = append(leftIdx, l)
				rightIdx = append(rightIdx, r)
			}
		}

	case Outer:
		matched := make([]bool, rightRows)
		if err := probe(true, matched); err != nil {
			return nil, nil, err
		}
		for r := 0; r < rightRows; r++ {
			if !matched[r] {
				leftIdx = append(leftIdx, -1)
				rightIdx = append(rightIdx, r)
			}
		}

	default:
		return nil, nil, errors.Newf(errors.ErrorTypeValidation, "unknown join kind %d", kind)
	}

	return leftIdx, rightIdx, nil
}

// outCol describes one output column and where its cells come from.
type outCol struct {
	name      string
	src       string
	fromLeft  bool
	mergedKey int // index into the key lists when this is a merged key, else -1
}

// assemble plans the output schema and gathers every column in parallel.
func assemble(ctx context.Context, left, right *frame.Frame, leftOn, rightOn []string,
	opts Options, leftIdx, rightIdx []int) (*frame.Frame, error) {

	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}

	merged := make(map[string]int) // left key name -> key position, On form only
	droppedRight := make(map[string]bool)
	for i := range leftOn {
		if leftOn[i] == rightOn[i] {
			merged[leftOn[i]] = i
			droppedRight[rightOn[i]] = true
		}
	}

	var plan []outCol
	taken := make(map[string]bool)
	for _, name := range left.Names() {
		mk := -1
		if pos, ok := merged[name]; ok {
			mk = pos
		}
		plan = append(plan, outCol{name: name, src: name, fromLeft: true, mergedKey: mk})
		taken[name] = true
	}
	for _, name := range right.Names() {
		if droppedRight[name] {
			continue
		}
		out := name
		if taken[out] {
			out = name + suffix
		}
		if taken[out] {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q collides after suffixing", out)
		}
		plan = append(plan, outCol{name: out, src: name, fromLeft: false, mergedKey: -1})
		taken[out] = true
	}

	names := make([]string, len(plan))
	vecs := make([]vector.Vector, len(plan))
	err := parallel.ForEach(ctx, len(plan), 0, func(ci int) error {
		pc := plan[ci]
		names[ci] = pc.name

		var srcCol vector.Vector
		var err error
		if pc.fromLeft {
			srcCol, err = left.Column(pc.src)
		} else {
			srcCol, err = right.Column(pc.src)
		}
		if err != nil {
			return err
		}

		var fill vector.Vector
		if pc.mergedKey >= 0 {
			fill, err = right.Column(rightOn[pc.mergedKey])
			if err != nil {
				return err
			}
		}

		values := make([]interface{}, len(leftIdx))
		for p := range leftIdx {
			srcRow := leftIdx[p]
			if !pc.fromLeft {
				srcRow = rightIdx[p]
			}
			switch {
			case srcRow >= 0:
				v, err := srcCol.Get(srcRow)
				if err != nil {
					return err
				}
				values[p] = v
			case fill != nil && rightIdx[p] >= 0:
				// Merged key cell for a right-only row.
				v, err := fill.Get(rightIdx[p])
				if err != nil {
					return err
				}
				values[p] = v
			}
		}

		col, err := vector.Materialize(values, srcCol.Kind(), srcCol.Backend())
		if err != nil {
			// Merged key backfill can bring values the left backend cannot
			// hold; keep them boxed instead of failing the join.
			col = vector.FromValues(values)
		}
		vecs[ci] = col
		return nil
	})
	if err != nil {
		return nil, err
	}

	return frame.New(names, vecs)
}
