// Package testutil provides testing utilities for Lattice
package testutil

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/vector"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// RequireNoError fails the test immediately if err is not nil.
// The msg parameter provides additional context in the failure message.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// MustFrame builds a frame from column slices and fails the test on error.
// Columns materialize through the regular constructor path, so the backend
// chosen follows opts exactly as production callers see it.
func MustFrame(t *testing.T, names []string, columns map[string]interface{}, opts vector.Options) *frame.Frame {
	t.Helper()
	vecs := make([]vector.Vector, len(names))
	for i, name := range names {
		data, ok := columns[name]
		if !ok {
			t.Fatalf("MustFrame: no data for column %q", name)
		}
		v, err := vector.New(data, opts)
		if err != nil {
			t.Fatalf("MustFrame: build column %q: %v", name, err)
		}
		vecs[i] = v
	}
	f, err := frame.New(names, vecs)
	if err != nil {
		t.Fatalf("MustFrame: %v", err)
	}
	return f
}

// RequireFrameEqual fails the test unless both frames carry the same column
// names in the same order and cell-for-cell equal content. Nulls compare
// equal to nulls regardless of backing representation, and float64 cells
// compare within tolerance 1e-9 (NaN cells count as null).
func RequireFrameEqual(t *testing.T, want, got *frame.Frame) {
	t.Helper()
	if want == nil || got == nil {
		if want != got {
			t.Fatalf("frame mismatch: want %v, got %v", want, got)
		}
		return
	}
	wantNames, gotNames := want.Names(), got.Names()
	if len(wantNames) != len(gotNames) {
		t.Fatalf("column count mismatch: want %v, got %v", wantNames, gotNames)
	}
	for i := range wantNames {
		if wantNames[i] != gotNames[i] {
			t.Fatalf("column order mismatch at %d: want %q, got %q", i, wantNames[i], gotNames[i])
		}
	}
	if want.RowCount() != got.RowCount() {
		t.Fatalf("row count mismatch: want %d, got %d", want.RowCount(), got.RowCount())
	}
	for _, name := range wantNames {
		wv, err := want.Column(name)
		RequireNoError(t, err, "want column "+name)
		gv, err := got.Column(name)
		RequireNoError(t, err, "got column "+name)
		for i := 0; i < want.RowCount(); i++ {
			if wv.IsNull(i) || gv.IsNull(i) {
				if wv.IsNull(i) != gv.IsNull(i) {
					t.Fatalf("column %q row %d: null mismatch (want null=%v, got null=%v)",
						name, i, wv.IsNull(i), gv.IsNull(i))
				}
				continue
			}
			wc, err := wv.Get(i)
			RequireNoError(t, err, "want cell")
			gc, err := gv.Get(i)
			RequireNoError(t, err, "got cell")
			if !cellEqual(wc, gc) {
				t.Fatalf("column %q row %d: want %v (%T), got %v (%T)", name, i, wc, wc, gc, gc)
			}
		}
	}
}

// cellEqual compares two non-null cells, tolerating float64 rounding and
// cross-width integer representations from different backends.
func cellEqual(a, b interface{}) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return math.Abs(af-bf) <= 1e-9
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
