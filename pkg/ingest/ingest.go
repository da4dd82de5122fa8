// Package ingest builds frames from raw row-oriented or column-oriented
// data and reads/writes the CSV and JSON interchange formats.
//
// Construction is where backend selection happens: every column built here
// goes through the vector strategy selector, so a CSV column of integers
// lands in a packed buffer while a mixed or string-heavy column lands in the
// generic or Arrow backend. Readers never guess a schema up front; they
// accumulate boxed cells per column and let content analysis classify them.
package ingest

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// FromColumns builds a frame from ordered names and per-column data. Each
// entry of columns may be a typed slice ([]float64, []int32, []string, ...),
// a boxed []interface{} or a pre-built vector.Vector; backend selection runs
// per column with opts.
func FromColumns(names []string, columns map[string]interface{}, opts vector.Options) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("ingest.columns", start, rows, err)
	}()

	if len(names) != len(columns) {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"got %d names for %d columns", len(names), len(columns))
	}
	vecs := make([]vector.Vector, len(names))
	for i, name := range names {
		data, ok := columns[name]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"no data for column %q", name)
		}
		col, err := vector.New(data, opts)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation,
				"column "+name)
		}
		vecs[i] = col
	}
	return frame.New(names, vecs)
}

// FromRows builds a frame from row-major cells. Every row must have one cell
// per name; nil cells are null. The rows ride along as the frame's raw row
// cache, which shallow clones share and DropRawCache discards.
func FromRows(names []string, rows [][]interface{}, opts vector.Options) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOp("ingest.rows", start, len(rows), err)
	}()

	if len(names) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no column names")
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"row %d has %d cells, want %d", i, len(row), len(names))
		}
	}

	vecs := make([]vector.Vector, len(names))
	for c := range names {
		cells := make([]interface{}, len(rows))
		for r, row := range rows {
			cells[r] = row[c]
		}
		col, err := vector.New(cells, opts)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation,
				"column "+names[c])
		}
		vecs[c] = col
	}

	f, err := frame.New(names, vecs)
	if err != nil {
		return nil, err
	}
	return f.WithRawRows(rows), nil
}

// FromRecords builds a frame from name-to-value maps, one per row. Columns
// are ordered by the first record that carries the key, ties alphabetically
// (map iteration order cannot be trusted); a record missing a key
// contributes a null cell there.
func FromRecords(records []map[string]interface{}, opts vector.Options) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOp("ingest.records", start, len(records), err)
	}()

	var names []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}
	orderRecordKeys(names, records)

	vecs := make([]vector.Vector, len(names))
	for c, name := range names {
		cells := make([]interface{}, len(records))
		for r, rec := range records {
			cells[r] = rec[name]
		}
		col, err := vector.New(cells, opts)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation,
				"column "+name)
		}
		vecs[c] = col
	}

	f, err := frame.New(names, vecs)
	if err != nil {
		return nil, err
	}
	logger.Op("ingest.records").Debug("frame built from records",
		zap.Int("rows", f.RowCount()),
		zap.Int("cols", f.NumCols()))
	return f, nil
}

// orderRecordKeys sorts names by (first record carrying the key, key name).
func orderRecordKeys(names []string, records []map[string]interface{}) {
	firstSeen := make(map[string]int, len(names))
	for _, name := range names {
		firstSeen[name] = len(records)
		for r, rec := range records {
			if _, ok := rec[name]; ok {
				firstSeen[name] = r
				break
			}
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		if firstSeen[names[i]] != firstSeen[names[j]] {
			return firstSeen[names[i]] < firstSeen[names[j]]
		}
		return names[i] < names[j]
	})
}
