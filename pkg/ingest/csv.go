package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/latticedata/lattice/internal/keys"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// defaultNulls are the cell spellings read as logical null when CSVOptions
// leaves Nulls nil.
var defaultNulls = []string{"", "null", "NA"}

// CSVOptions configures ReadCSV and WriteCSV.
type CSVOptions struct {
	// Comma is the field delimiter, ',' when zero.
	Comma rune
	// NoHeader treats the first record as data; columns are then named
	// column_0, column_1, ...
	NoHeader bool
	// Nulls lists the cell spellings read as logical null. nil means the
	// default set ("", "null", "NA"); an empty non-nil slice disables null
	// detection entirely.
	Nulls []string
	// Vector steers backend selection for the parsed columns.
	Vector vector.Options
}

func (o CSVOptions) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

func (o CSVOptions) nullSet() map[string]bool {
	src := o.Nulls
	if src == nil {
		src = defaultNulls
	}
	set := make(map[string]bool, len(src))
	for _, s := range src {
		set[s] = true
	}
	return set
}

// ReadCSV parses CSV into a frame. Cells are typed by parse attempts in the
// order integer, float, bool, string, and each finished column runs through
// backend selection, so a uniformly numeric column lands packed while a
// mixed one lands generic.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("csv.read", start, rows, err)
	}()

	cr := csv.NewReader(r)
	cr.Comma = opts.comma()
	cr.FieldsPerRecord = -1
	nulls := opts.nullSet()

	var names []string
	var cols [][]interface{}
	rows := 0

	for {
		if rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "read CSV record")
		}

		if names == nil {
			if opts.NoHeader {
				names = make([]string, len(record))
				for i := range record {
					names[i] = "column_" + strconv.Itoa(i)
				}
			} else {
				names = make([]string, len(record))
				for i, h := range record {
					names[i] = strings.TrimSpace(h)
				}
			}
			cols = make([][]interface{}, len(names))
			if !opts.NoHeader {
				continue
			}
		}

		if len(record) != len(names) {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"record %d has %d fields, header has %d", rows, len(record), len(names))
		}
		for c, cell := range record {
			cols[c] = append(cols[c], parseCell(cell, nulls))
		}
		rows++
	}

	if names == nil {
		return frame.Empty(), nil
	}

	vecs := make([]vector.Vector, len(names))
	for c, name := range names {
		col, err := vector.New(cols[c], opts.Vector)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "column "+name)
		}
		vecs[c] = col
	}

	out, err = frame.New(names, vecs)
	if err != nil {
		return nil, err
	}
	logger.Op("csv.read").Debug("CSV parsed",
		zap.Int("rows", out.RowCount()),
		zap.Int("cols", out.NumCols()))
	return out, nil
}

// ReadCSVFile is ReadCSV over a file path.
func ReadCSVFile(ctx context.Context, path string, opts CSVOptions) (*frame.Frame, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "open CSV file")
	}
	defer f.Close() //nolint:errcheck // read-only descriptor
	return ReadCSV(ctx, f, opts)
}

// parseCell types one raw CSV cell: null spellings first, then integer,
// float, bool, and finally the trimmed string itself.
func parseCell(cell string, nulls map[string]bool) interface{} {
	v := strings.TrimSpace(cell)
	if nulls[v] {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// WriteCSV renders the frame as CSV with a header row. Null cells write as
// empty fields.
func WriteCSV(ctx context.Context, w io.Writer, f *frame.Frame, opts CSVOptions) (err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if f != nil {
			rows = f.RowCount()
		}
		metrics.ObserveOp("csv.write", start, rows, err)
	}()

	if f == nil {
		return errors.New(errors.ErrorTypeValidation, "nil frame")
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.comma()

	names := f.Names()
	if !opts.NoHeader {
		if err := cw.Write(names); err != nil {
			return errors.Wrap(err, errors.ErrorTypeValidation, "write CSV header")
		}
	}

	record := make([]string, len(names))
	for i := 0; i < f.RowCount(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row, err := f.RawRow(i)
		if err != nil {
			return err
		}
		for c, cell := range row {
			record[c] = formatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeValidation, "write CSV record")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "flush CSV")
	}
	return nil
}

// WriteCSVFile is WriteCSV over a file path.
func WriteCSVFile(ctx context.Context, path string, f *frame.Frame, opts CSVOptions) error {
	out, err := os.Create(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "create CSV file")
	}
	if err := WriteCSV(ctx, out, f, opts); err != nil {
		out.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	return out.Close()
}

// formatCell renders one boxed cell for CSV output. Null cells write as
// empty fields; everything else uses its canonical string form.
func formatCell(v interface{}) string {
	if v == nil {
		return ""
	}
	return keys.Canonical(v)
}
