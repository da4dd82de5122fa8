//go:build !noarrow

package arrowio

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/latticedata/lattice/pkg/compress"
	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/logger"
	"github.com/latticedata/lattice/pkg/metrics"
	"github.com/latticedata/lattice/pkg/vector"
)

// ToRecord converts a frame into an Arrow record. Columns already on the
// Arrow backend are passed through without copying; other backends are
// materialized into Arrow arrays first. Generic columns must be uniformly
// string, since that is the only Arrow representation the engine maps them
// to. The caller owns the record and must Release it.
func ToRecord(f *frame.Frame) (arrow.Record, error) {
	if f == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil frame")
	}

	names := f.Names()
	fields := make([]arrow.Field, len(names))
	cols := make([]arrow.Array, len(names))
	for i, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		av, ok := col.(*vector.ArrowVector)
		if !ok {
			conv, err := vector.Materialize(col.ToSlice(), col.Kind(), vector.ArrowBacked)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeBackend,
					"column "+name+" to arrow")
			}
			av = conv.(*vector.ArrowVector)
		}
		dt, err := arrowType(col.Kind())
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
		cols[i] = av.Array()
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, cols, int64(f.RowCount())), nil
}

// FromRecord wraps an Arrow record's columns into a frame without copying
// buffers. Each column is retained, so the caller may release the record once
// FromRecord returns; the frame keeps the arrays alive.
func FromRecord(rec arrow.Record) (*frame.Frame, error) {
	if rec == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nil record")
	}

	schema := rec.Schema()
	n := int(rec.NumCols())
	names := make([]string, n)
	vecs := make([]vector.Vector, n)
	for i := 0; i < n; i++ {
		field := schema.Field(i)
		kind, err := kindOf(field.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeBackend, "column "+field.Name)
		}
		arr := rec.Column(i)
		arr.Retain()
		col, err := vector.WrapArrow(arr, kind)
		if err != nil {
			arr.Release()
			return nil, err
		}
		names[i] = field.Name
		vecs[i] = col
	}
	return frame.New(names, vecs)
}

// Write serializes the frame as an Arrow IPC file, optionally compressed.
func Write(ctx context.Context, w io.Writer, f *frame.Frame, opts Options) (err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if f != nil {
			rows = f.RowCount()
		}
		metrics.ObserveOp("arrow.write", start, rows, err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := ToRecord(f)
	if err != nil {
		return err
	}
	defer rec.Release()

	dst := w
	var buf *bytes.Buffer
	if opts.codec() != compress.None {
		buf = &bytes.Buffer{}
		dst = buf
	}

	fw, err := ipc.NewFileWriter(dst,
		ipc.WithSchema(rec.Schema()), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeBackend, "create arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		fw.Close() //nolint:errcheck,gosec // already failing
		return errors.Wrap(err, errors.ErrorTypeBackend, "write arrow record")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeBackend, "close arrow writer")
	}

	if buf != nil {
		comp, err := compress.New(&compress.Config{Codec: opts.codec(), Level: opts.Level})
		if err != nil {
			return err
		}
		if err := comp.CompressStream(w, buf); err != nil {
			return errors.Wrap(err, errors.ErrorTypeBackend, "compress arrow payload")
		}
	}

	logger.Op("arrow.write").Debug("frame serialized",
		zap.Int("rows", f.RowCount()),
		zap.Int("cols", f.NumCols()),
		zap.String("codec", string(opts.codec())))
	return nil
}

// Read deserializes an Arrow IPC file into a frame. Single-batch payloads
// wrap the arrays without copying; multi-batch payloads are concatenated
// column-wise. Every column comes back on the Arrow backend.
func Read(ctx context.Context, r io.Reader, opts Options) (out *frame.Frame, err error) {
	start := time.Now()
	defer func() {
		rows := 0
		if out != nil {
			rows = out.RowCount()
		}
		metrics.ObserveOp("arrow.read", start, rows, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeBackend, "read arrow payload")
	}
	if opts.codec() != compress.None {
		comp, err := compress.New(&compress.Config{Codec: opts.codec(), Level: opts.Level})
		if err != nil {
			return nil, err
		}
		payload, err = comp.Decompress(payload)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeBackend, "decompress arrow payload")
		}
	}

	rdr, err := ipc.NewFileReader(bytes.NewReader(payload),
		ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeBackend, "open arrow payload")
	}
	defer rdr.Close() //nolint:errcheck // wrapped frame retains its columns

	switch rdr.NumRecords() {
	case 0:
		return frame.Empty(), nil
	case 1:
		rec, err := rdr.Record(0)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeBackend, "read arrow record")
		}
		return FromRecord(rec)
	}

	fields := rdr.Schema().Fields()
	names := make([]string, len(fields))
	kinds := make([]vector.Kind, len(fields))
	for i, field := range fields {
		kind, err := kindOf(field.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeBackend, "column "+field.Name)
		}
		names[i] = field.Name
		kinds[i] = kind
	}

	cells := make([][]interface{}, len(names))
	for b := 0; b < rdr.NumRecords(); b++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := rdr.Record(b)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeBackend, "read arrow record")
		}
		for c := range names {
			col, err := vector.WrapArrow(rec.Column(c), kinds[c])
			if err != nil {
				return nil, err
			}
			cells[c] = append(cells[c], col.ToSlice()...)
		}
	}

	vecs := make([]vector.Vector, len(names))
	for c := range names {
		v, err := vector.Materialize(cells[c], kinds[c], vector.ArrowBacked)
		if err != nil {
			return nil, err
		}
		vecs[c] = v
	}
	return frame.New(names, vecs)
}

// arrowType maps a column kind to its Arrow physical type.
func arrowType(k vector.Kind) (arrow.DataType, error) {
	switch k {
	case vector.KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case vector.KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case vector.KindUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case vector.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case vector.KindGeneric:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "kind %s has no arrow type", k)
	}
}

// kindOf maps an Arrow physical type back to a column kind.
func kindOf(dt arrow.DataType) (vector.Kind, error) {
	switch dt.ID() {
	case arrow.FLOAT64:
		return vector.KindFloat64, nil
	case arrow.INT32:
		return vector.KindInt32, nil
	case arrow.UINT32:
		return vector.KindUint32, nil
	case arrow.BOOL:
		return vector.KindBool, nil
	case arrow.STRING:
		return vector.KindGeneric, nil
	default:
		return vector.KindGeneric, errors.Newf(errors.ErrorTypeBackend,
			"unsupported arrow type %s", dt)
	}
}
