package ingest

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// JSONFormat selects the JSON file layout.
type JSONFormat string

const (
	// JSONArray is a single JSON array of objects.
	JSONArray JSONFormat = "array"
	// JSONLines is line-delimited JSON (NDJSON), one object per line.
	JSONLines JSONFormat = "lines"
)

// JSONOptions configures ReadJSON and WriteJSON.
type JSONOptions struct {
	// Format selects array or lines layout, JSONArray when empty.
	Format JSONFormat
	// Vector steers backend selection for the parsed columns.
	Vector vector.Options
}

func (o JSONOptions) format() JSONFormat {
	if o.Format == "" {
		return JSONArray
	}
	return o.Format
}

// maxLineBytes bounds one NDJSON line.
const maxLineBytes = 16 * 1024 * 1024

// ReadJSON parses a JSON array of objects or NDJSON into a frame. JSON
// numbers arrive as float64, which is the engine's native numeric kind;
// column order is deterministic per FromRecords.
func ReadJSON(ctx context.Context, r io.Reader, opts JSONOptions) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("json.read", start, rows, err)
	}()

	var records []map[string]interface{}

	switch opts.format() {
	case JSONArray:
		dec := gojson.NewDecoder(r)
		if err := dec.Decode(&records); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "parse JSON array")
		}

	case JSONLines:
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		line := 0
		for scanner.Scan() {
			line++
			if line%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}
			var rec map[string]interface{}
			if err := gojson.Unmarshal(raw, &rec); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeValidation,
					"parse NDJSON line").WithDetail("line", line)
			}
			records = append(records, rec)
		}
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "scan NDJSON")
		}

	default:
		return nil, errors.Newf(errors.ErrorTypeDomain, "unknown JSON format %q", opts.Format)
	}

	return FromRecords(records, opts.Vector)
}

// ReadJSONFile is ReadJSON over a file path.
func ReadJSONFile(ctx context.Context, path string, opts JSONOptions) (*frame.Frame, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "open JSON file")
	}
	defer f.Close() //nolint:errcheck // read-only descriptor
	return ReadJSON(ctx, f, opts)
}

// WriteJSON renders the frame as a JSON array of objects or as NDJSON.
// Null cells write as JSON null; packed-numeric null (NaN) is normalized to
// null on the way out, since JSON has no NaN.
func WriteJSON(ctx context.Context, w io.Writer, f *frame.Frame, opts JSONOptions) (err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if f != nil {
			rows = f.RowCount()
		}
		metrics.ObserveOp("json.write", start, rows, err)
	}()

	if f == nil {
		return errors.New(errors.ErrorTypeValidation, "nil frame")
	}

	switch opts.format() {
	case JSONArray:
		rows, err := orderedRows(ctx, f)
		if err != nil {
			return err
		}
		enc := gojson.NewEncoder(w)
		if err := enc.Encode(rows); err != nil {
			return errors.Wrap(err, errors.ErrorTypeValidation, "encode JSON array")
		}
		return nil

	case JSONLines:
		enc := gojson.NewEncoder(w)
		for i := 0; i < f.RowCount(); i++ {
			if i%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			row, err := f.Row(i)
			if err != nil {
				return err
			}
			if err := enc.Encode(row); err != nil {
				return errors.Wrap(err, errors.ErrorTypeValidation,
					"encode NDJSON line").WithDetail("row", i)
			}
		}
		return nil

	default:
		return errors.Newf(errors.ErrorTypeDomain, "unknown JSON format %q", opts.Format)
	}
}

// WriteJSONFile is WriteJSON over a file path.
func WriteJSONFile(ctx context.Context, path string, f *frame.Frame, opts JSONOptions) error {
	out, err := os.Create(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "create JSON file")
	}
	if err := WriteJSON(ctx, out, f, opts); err != nil {
		out.Close() //nolint:errcheck,gosec // already failing
		return err
	}
	return out.Close()
}

// orderedRows materializes every row as a map for array encoding.
func orderedRows(ctx context.Context, f *frame.Frame) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, f.RowCount())
	for i := 0; i < f.RowCount(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := f.Row(i)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}
