package vector

import (
	"math"

	"github.com/latticedata/lattice/pkg/errors"
)

const (
	// DefaultSampleSize bounds how many leading cells content analysis
	// inspects when classifying untyped input.
	DefaultSampleSize = 128

	// analysisCutoff is the untyped input length past which per-cell
	// content analysis is skipped and the column goes straight to the
	// generic backend.
	analysisCutoff = 1_000_000
)

// Options steers backend selection. The zero value asks for the default
// policy: typed numeric input stays packed, strings go to Arrow when the
// runtime has it, untyped input is classified by bounded sampling.
type Options struct {
	// AlwaysArrow forces the Arrow backend. Construction fails with a
	// backend error when the runtime does not link Arrow.
	AlwaysArrow bool
	// NeverArrow forbids the Arrow backend even when available.
	NeverArrow bool
	// PreferArrow biases classified untyped input toward Arrow. It is a
	// hint, not a mandate: when Arrow is unavailable selection degrades
	// to the default backend without error.
	PreferArrow bool
	// SampleSize overrides DefaultSampleSize for content analysis.
	SampleSize int
}

func (o Options) sampleSize() int {
	if o.SampleSize > 0 {
		return o.SampleSize
	}
	return DefaultSampleSize
}

// Strategy is a selector decision: the logical kind paired with the storage
// backend that will hold it.
type Strategy struct {
	Kind    Kind
	Backend Backend
}

// Select decides the storage strategy for data without materializing it.
// New applies the same decision, so Select exists mainly for callers that
// want to inspect or log the choice up front.
func Select(data interface{}, opts Options) (Strategy, error) {
	if opts.AlwaysArrow && opts.NeverArrow {
		return Strategy{}, errors.New(errors.ErrorTypeValidation,
			"conflicting options: AlwaysArrow and NeverArrow")
	}
	if opts.AlwaysArrow && !arrowAvailable {
		return Strategy{}, errors.New(errors.ErrorTypeBackend,
			"arrow backend requested but not available in this build")
	}

	switch d := data.(type) {
	case Vector:
		// Tagged input keeps its backend, except when an Arrow option
		// forces it off (or onto) the Arrow runtime.
		if opts.AlwaysArrow && d.Backend() != ArrowBacked {
			return Strategy{Kind: d.Kind(), Backend: ArrowBacked}, nil
		}
		if opts.NeverArrow && d.Backend() == ArrowBacked {
			if d.Kind().IsNumeric() {
				return Strategy{Kind: d.Kind(), Backend: PackedNumeric}, nil
			}
			return Strategy{Kind: KindGeneric, Backend: GenericBacked}, nil
		}
		return Strategy{Kind: d.Kind(), Backend: d.Backend()}, nil

	case []float64:
		return typedStrategy(KindFloat64, opts), nil
	case []int32:
		return typedStrategy(KindInt32, opts), nil
	case []int:
		return typedStrategy(KindInt32, opts), nil
	case []int64:
		return typedStrategy(KindInt32, opts), nil
	case []uint32:
		return typedStrategy(KindUint32, opts), nil
	case []bool:
		return typedStrategy(KindBool, opts), nil

	case []string:
		if opts.AlwaysArrow {
			return Strategy{Kind: KindGeneric, Backend: ArrowBacked}, nil
		}
		if opts.NeverArrow || !arrowAvailable {
			return Strategy{Kind: KindGeneric, Backend: GenericBacked}, nil
		}
		return Strategy{Kind: KindGeneric, Backend: ArrowBacked}, nil

	case []interface{}:
		if opts.AlwaysArrow {
			k, _ := classify(d, opts.sampleSize())
			return Strategy{Kind: k, Backend: ArrowBacked}, nil
		}
		if len(d) >= analysisCutoff {
			// Per-cell inspection at this scale costs more than the
			// packed representation would save.
			return Strategy{Kind: KindGeneric, Backend: GenericBacked}, nil
		}
		k, stringsOnly := classify(d, opts.sampleSize())
		return Strategy{Kind: k, Backend: backendFor(k, stringsOnly, opts)}, nil

	default:
		return Strategy{}, errors.Newf(errors.ErrorTypeValidation,
			"unsupported input type %T", data)
	}
}

// typedStrategy keeps typed numeric slices packed unless Arrow is forced.
func typedStrategy(k Kind, opts Options) Strategy {
	if opts.AlwaysArrow {
		return Strategy{Kind: k, Backend: ArrowBacked}
	}
	return Strategy{Kind: k, Backend: PackedNumeric}
}

// backendFor maps a classified kind to its default backend, honoring the
// Arrow hints. Uniform string columns follow the []string rule and default
// to Arrow; mixed generic columns stay boxed unless Arrow is preferred.
func backendFor(k Kind, stringsOnly bool, opts Options) Backend {
	arrowOK := !opts.NeverArrow && arrowAvailable
	if k == KindGeneric {
		if arrowOK && (stringsOnly || opts.PreferArrow) {
			return ArrowBacked
		}
		return GenericBacked
	}
	if arrowOK && opts.PreferArrow {
		return ArrowBacked
	}
	return PackedNumeric
}

// classify inspects up to sampleSize leading cells and picks the narrowest
// kind that represents every sampled non-null value. Values that would
// collide with a packed null sentinel push the decision to a wider kind.
// The second result reports whether every sampled non-null cell was a
// string.
func classify(data []interface{}, sampleSize int) (Kind, bool) {
	n := len(data)
	if n > sampleSize {
		n = sampleSize
	}

	var ints, uints, floats, bools, strs, others int
	widen := false
	for _, v := range data[:n] {
		switch x := v.(type) {
		case nil:
		case bool:
			bools++
		case string:
			strs++
		case float64, float32:
			floats++
		case int, int8, int16, int32, int64:
			ints++
			f, _ := AsFloat64(x)
			if f < math.MinInt32+1 || f > math.MaxInt32 {
				widen = true
			}
		case uint, uint8, uint16, uint32, uint64:
			uints++
			f, _ := AsFloat64(x)
			if f >= math.MaxUint32 {
				widen = true
			}
		default:
			others++
		}
	}

	numeric := ints + uints + floats
	stringsOnly := strs > 0 && numeric == 0 && bools == 0 && others == 0
	switch {
	case others > 0 || strs > 0:
		return KindGeneric, stringsOnly
	case bools > 0 && numeric > 0:
		return KindGeneric, false
	case bools > 0:
		return KindBool, false
	case numeric == 0:
		// All sampled cells were null.
		return KindGeneric, false
	case floats > 0 || widen:
		return KindFloat64, false
	case uints > 0 && ints == 0:
		return KindUint32, false
	default:
		return KindInt32, false
	}
}

// New selects a backend for data and materializes the column. Typed numeric
// slices are wrapped without copying. Untyped input classified into a packed
// kind falls back to the generic backend when an unsampled cell violates the
// classification; forced Arrow construction propagates the failure instead.
func New(data interface{}, opts Options) (Vector, error) {
	strat, err := Select(data, opts)
	if err != nil {
		return nil, err
	}

	switch d := data.(type) {
	case Vector:
		if strat.Backend != d.Backend() {
			return fromValues(d.ToSlice(), strat.Kind, strat.Backend)
		}
		return d, nil

	case []float64:
		if strat.Backend == ArrowBacked {
			return newArrowVector(boxFloat64s(d), KindFloat64)
		}
		return FromFloat64s(d), nil

	case []int32:
		if strat.Backend == ArrowBacked {
			return newArrowVector(boxInt32s(d), KindInt32)
		}
		return FromInt32s(d), nil

	case []int:
		buf, err := int32Buffer(len(d), func(i int) int64 { return int64(d[i]) })
		if err != nil {
			return nil, err
		}
		if strat.Backend == ArrowBacked {
			return newArrowVector(boxInt32s(buf), KindInt32)
		}
		return FromInt32s(buf), nil

	case []int64:
		buf, err := int32Buffer(len(d), func(i int) int64 { return d[i] })
		if err != nil {
			return nil, err
		}
		if strat.Backend == ArrowBacked {
			return newArrowVector(boxInt32s(buf), KindInt32)
		}
		return FromInt32s(buf), nil

	case []uint32:
		if strat.Backend == ArrowBacked {
			out := make([]interface{}, len(d))
			for i, v := range d {
				out[i] = v
			}
			return newArrowVector(out, KindUint32)
		}
		return FromUint32s(d), nil

	case []bool:
		if strat.Backend == ArrowBacked {
			out := make([]interface{}, len(d))
			for i, v := range d {
				out[i] = v
			}
			return newArrowVector(out, KindBool)
		}
		return FromBools(d), nil

	case []string:
		if strat.Backend == ArrowBacked {
			out := make([]interface{}, len(d))
			for i, s := range d {
				out[i] = s
			}
			return newArrowVector(out, KindGeneric)
		}
		return FromStrings(d), nil

	case []interface{}:
		return materializeBoxed(d, strat, opts)

	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"unsupported input type %T", data)
	}
}

// materializeBoxed builds the column a classified untyped input asked for.
func materializeBoxed(d []interface{}, strat Strategy, opts Options) (Vector, error) {
	if strat.Backend == ArrowBacked {
		v, err := newArrowVector(d, strat.Kind)
		if err != nil && !opts.AlwaysArrow {
			// Classification was a sampled guess; degrade quietly.
			return FromValues(d), nil
		}
		return v, err
	}
	if strat.Kind == KindGeneric {
		return FromValues(d), nil
	}
	v, err := packFromBoxed(d, strat.Kind)
	if err != nil {
		return FromValues(d), nil
	}
	return v, nil
}

// Materialize builds a column of the given kind and backend from boxed
// values with nil as null. Row-gathering operations use it to rebuild
// columns without re-running selection.
func Materialize(values []interface{}, kind Kind, backend Backend) (Vector, error) {
	return fromValues(values, kind, backend)
}

// fromValues rebuilds a column of the given kind and backend from boxed
// values. Used for deep copies of backends without an addressable buffer.
func fromValues(values []interface{}, kind Kind, backend Backend) (Vector, error) {
	switch backend {
	case ArrowBacked:
		return newArrowVector(values, kind)
	case PackedNumeric:
		return packFromBoxed(values, kind)
	default:
		return FromValues(values), nil
	}
}

// packFromBoxed lowers boxed values into a packed buffer of the given kind.
// Values that collide with the kind's null sentinel are rejected so they
// cannot silently read back as null.
func packFromBoxed(values []interface{}, kind Kind) (Vector, error) {
	switch kind {
	case KindFloat64:
		buf := make([]float64, len(values))
		for i, v := range values {
			if v == nil {
				buf[i] = math.NaN()
				continue
			}
			f, ok := AsFloat64(v)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d has non-numeric type %T", i, v)
			}
			buf[i] = f
		}
		return FromFloat64s(buf), nil

	case KindInt32:
		buf := make([]int32, len(values))
		for i, v := range values {
			if v == nil {
				buf[i] = NullInt32
				continue
			}
			n, ok := asInt32(v)
			if !ok || n == NullInt32 {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d does not fit packed int32 (%T %v)", i, v, v)
			}
			buf[i] = n
		}
		return FromInt32s(buf), nil

	case KindUint32:
		buf := make([]uint32, len(values))
		for i, v := range values {
			if v == nil {
				buf[i] = NullUint32
				continue
			}
			n, ok := asUint32(v)
			if !ok || n == NullUint32 {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d does not fit packed uint32 (%T %v)", i, v, v)
			}
			buf[i] = n
		}
		return FromUint32s(buf), nil

	case KindBool:
		buf := make([]byte, len(values))
		for i, v := range values {
			if v == nil {
				buf[i] = NullBool
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeValidation,
					"cell at row %d has non-bool type %T", i, v)
			}
			if b {
				buf[i] = 1
			}
		}
		return &BoolVector{data: buf}, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeInternal,
			"kind %s has no packed representation", kind)
	}
}

func int32Buffer(n int, at func(int) int64) ([]int32, error) {
	buf := make([]int32, n)
	for i := 0; i < n; i++ {
		v := at(i)
		if v <= NullInt32 || v > math.MaxInt32 {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"value %d at row %d does not fit packed int32", v, i)
		}
		buf[i] = int32(v)
	}
	return buf, nil
}

func boxFloat64s(d []float64) []interface{} {
	out := make([]interface{}, len(d))
	for i, v := range d {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return out
}

func boxInt32s(d []int32) []interface{} {
	out := make([]interface{}, len(d))
	for i, v := range d {
		if v == NullInt32 {
			continue
		}
		out[i] = v
	}
	return out
}

// asInt32 coerces a boxed value to int32 without losing information.
func asInt32(v interface{}) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case int8:
		return int32(n), true
	case int16:
		return int32(n), true
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case uint8:
		return int32(n), true
	case uint16:
		return int32(n), true
	case uint32:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case uint, uint64:
		f, _ := AsFloat64(v)
		if f > math.MaxInt32 {
			return 0, false
		}
		return int32(f), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	case float32:
		return asInt32(float64(n))
	default:
		return 0, false
	}
}

// asUint32 coerces a boxed value to uint32 without losing information.
func asUint32(v interface{}) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case uint8:
		return uint32(n), true
	case uint16:
		return uint32(n), true
	case uint:
		if uint64(n) > math.MaxUint32 {
			return 0, false
		}
		return uint32(n), true
	case uint64:
		if n > math.MaxUint32 {
			return 0, false
		}
		return uint32(n), true
	case int, int8, int16, int32, int64:
		f, _ := AsFloat64(v)
		if f < 0 || f > math.MaxUint32 {
			return 0, false
		}
		return uint32(f), true
	case float64:
		if n != math.Trunc(n) || n < 0 || n > math.MaxUint32 {
			return 0, false
		}
		return uint32(n), true
	case float32:
		return asUint32(float64(n))
	default:
		return 0, false
	}
}
