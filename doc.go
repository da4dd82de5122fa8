// Package lattice provides an in-memory, column-oriented tabular data engine
// built around immutable frames of typed column vectors.
//
// A Frame is an ordered collection of named columns. Each column is a Vector:
// a fixed-length, homogeneous sequence stored behind one of three backends,
// chosen per column at construction time:
//
//   - Packed numeric buffers ([]float64, []int32, []uint32, bool-as-byte)
//     with sentinel-encoded nulls
//   - Generic boxed values ([]interface{}) with nil nulls
//   - Apache Arrow arrays with validity bitmaps
//
// Operators program against the Vector interface only, so a join or pivot
// behaves identically whatever mix of backends its inputs carry.
//
// # Architecture
//
// The engine follows three rules:
//
// 1. Immutability: published frames and vectors never change. Frame
// operations return new frames; shallow clones share column buffers safely,
// and copy-on-write keeps derived frames cheap.
//
// 2. One selection point: backend choice happens once, in the vector
// strategy selector, driven by input type, bounded content sampling and the
// Arrow availability of the build. Nothing downstream re-inspects storage.
//
// 3. Pure synchronous operators: every operation takes its inputs, returns
// its outputs and touches no global state. Internal parallelism (per-column
// materialization) always merges deterministically.
//
// # Quick Start
//
// Build a frame, join it against another, pivot the result:
//
//	import (
//	    "context"
//
//	    "github.com/latticedata/lattice/pkg/ingest"
//	    "github.com/latticedata/lattice/pkg/join"
//	    "github.com/latticedata/lattice/pkg/reshape"
//	    "github.com/latticedata/lattice/pkg/vector"
//	)
//
//	ctx := context.Background()
//
//	sales, _ := ingest.FromColumns(
//	    []string{"region", "month", "amount"},
//	    map[string]interface{}{
//	        "region": []string{"west", "west", "east"},
//	        "month":  []string{"jan", "feb", "jan"},
//	        "amount": []float64{100, 120, 90},
//	    }, vector.Options{})
//
//	targets, _ := ingest.ReadCSVFile(ctx, "targets.csv", ingest.CSVOptions{})
//
//	joined, _ := join.LeftJoin(ctx, sales, targets, "region")
//
//	wide, _ := reshape.Pivot(ctx, joined, reshape.PivotOptions{
//	    Index:   []string{"region"},
//	    Columns: []string{"month"},
//	    Value:   "amount",
//	    Aggs:    []string{"sum"},
//	})
//
// # Key Packages
//
//	pkg/vector    - Columnar storage: backends, strategy selector, null rules
//	pkg/frame     - Immutable frames: construction, cloning, column ops
//	pkg/join      - Hash equi-joins (inner, left, right, outer)
//	pkg/reshape   - Pivot, melt/stack, unstack
//	pkg/window    - Rolling windows, EWMA, seasonal decomposition
//	pkg/transform - Per-cell apply, row mutate, binning, one-hot encoding
//	pkg/agg       - Named reducers shared by pivot and rolling
//	pkg/ingest    - Frame construction from rows/columns/records, CSV, JSON
//	pkg/arrowio   - Arrow IPC interchange with optional compression
//	pkg/display   - Fixed-width table rendering for terminals
//	pkg/config    - Engine configuration with YAML + ${ENV} loading
//	pkg/errors    - Structured errors: validation, domain, backend, internal
//	pkg/logger    - Structured logging (zap)
//	pkg/metrics   - Prometheus counters and histograms per operation
//
// # Null Semantics
//
// Null representation depends on the backend. Packed float64 columns encode
// null as NaN, so "missing" and NaN are the same cell once a column is
// packed; int32/uint32/bool columns reserve one sentinel value each. Generic
// and Arrow columns carry null as a first-class tag. Vector.Get normalizes
// every representation to nil on the way out, and numeric pipelines read
// nulls back as NaN through Vector.Float64s.
//
// # Arrow Builds
//
// The Arrow backend and IPC interchange link github.com/apache/arrow-go.
// Building with the noarrow tag drops that dependency: backend selection
// degrades to packed/generic silently, forced-Arrow construction and
// arrowio.Write/Read fail with backend errors.
//
// # Configuration
//
// The CLI and embedding applications share one config shape:
//
//	type EngineConfig struct {
//	    Logging  LoggingConfig  // level, encoding, development mode
//	    Vector   VectorConfig   // sample size, Arrow preferences
//	    Display  DisplayConfig  // row/width rendering budgets
//	    Compress CompressConfig // default Arrow payload codec
//	}
//
// Config files are YAML with ${VAR_NAME} environment substitution; the
// lattice CLI also binds every setting to LATTICE_* environment variables.
package lattice
