// Package compress provides the payload codecs used when frames are encoded
// for interop, e.g. Arrow IPC streams produced by pkg/arrowio.
//
// Six codecs are supported: none, gzip, snappy, s2, lz4 and zstd. Speed
// (fastest to slowest): lz4 > snappy/s2 > zstd > gzip. Ratio (best to
// worst): zstd > gzip > snappy/s2 > lz4. All compressors are safe for
// concurrent use.
package compress

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/latticedata/lattice/pkg/errors"
)

// Codec names a compression algorithm.
type Codec string

const (
	// None passes payloads through untouched.
	None Codec = "none"
	// Gzip is the stdlib gzip codec.
	Gzip Codec = "gzip"
	// Snappy favors speed over ratio.
	Snappy Codec = "snappy"
	// S2 is snappy-compatible with better compression.
	S2 Codec = "s2"
	// LZ4 is the fastest codec here.
	LZ4 Codec = "lz4"
	// Zstd gives the best ratio at good speed.
	Zstd Codec = "zstd"
)

// ParseCodec resolves a codec from its name. The empty string means None.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "gzip":
		return Gzip, nil
	case "snappy":
		return Snappy, nil
	case "s2":
		return S2, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return "", errors.Newf(errors.ErrorTypeDomain, "unknown codec %q", name)
	}
}

// Level trades compression speed against ratio.
type Level int

const (
	// Fastest prioritizes speed over ratio.
	Fastest Level = 1
	// Default balances speed and ratio.
	Default Level = 5
	// Better improves ratio at some speed cost.
	Better Level = 7
	// Best maximizes ratio.
	Best Level = 9
)

// Compressor compresses and decompresses payloads, in memory or streaming.
type Compressor interface {
	// Compress returns the compressed form of data. data is not modified.
	Compress(data []byte) ([]byte, error)
	// Decompress returns the original form of data. data is not modified.
	Decompress(data []byte) ([]byte, error)
	// CompressStream compresses src into dst.
	CompressStream(dst io.Writer, src io.Reader) error
	// DecompressStream decompresses src into dst.
	DecompressStream(dst io.Writer, src io.Reader) error
	// Codec reports the algorithm.
	Codec() Codec
	// Level reports the configured level.
	Level() Level
}

// Config selects a codec and level for New.
type Config struct {
	Codec Codec
	Level Level
}

// DefaultConfig balances speed and ratio with snappy.
func DefaultConfig() *Config {
	return &Config{Codec: Snappy, Level: Default}
}

// New builds a compressor for the configured codec. A nil config gets
// DefaultConfig.
func New(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Level == 0 {
		config.Level = Default
	}

	switch config.Codec {
	case None, "":
		return &noneCompressor{base: base{codec: None, level: config.Level}}, nil
	case Gzip:
		return newGzipCompressor(config), nil
	case Snappy:
		return &snappyCompressor{base: base{codec: Snappy, level: config.Level}}, nil
	case S2:
		return &s2Compressor{base: base{codec: S2, level: config.Level}}, nil
	case LZ4:
		return newLZ4Compressor(config), nil
	case Zstd:
		return newZstdCompressor(config), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeDomain, "unknown codec %q", config.Codec)
	}
}

type base struct {
	codec Codec
	level Level
}

func (b *base) Codec() Codec { return b.codec }
func (b *base) Level() Level { return b.level }

type noneCompressor struct {
	base
}

func (nc *noneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (nc *noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

func (nc *noneCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

func (nc *noneCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}

// gzipCompressor pools its writers and readers: gzip allocates large state
// per instance and frames compress in bursts.
type gzipCompressor struct {
	base
	writerPool sync.Pool
	readerPool sync.Pool
}

func newGzipCompressor(config *Config) *gzipCompressor {
	level := mapGzipLevel(config.Level)
	gc := &gzipCompressor{base: base{codec: Gzip, level: config.Level}}
	gc.writerPool.New = func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, level)
		return w
	}
	gc.readerPool.New = func() interface{} {
		return new(gzip.Reader)
	}
	return gc
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := gc.CompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := gc.DecompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gc *gzipCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	w.Reset(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (gc *gzipCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := gc.readerPool.Get().(*gzip.Reader)
	defer gc.readerPool.Put(r)

	if err := r.Reset(src); err != nil {
		return err
	}
	_, err := io.Copy(dst, r) //nolint:gosec // G110: payloads are engine-produced
	return err
}

type snappyCompressor struct {
	base
}

func (sc *snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (sc *snappyCompressor) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

func (sc *snappyCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := snappy.NewBufferedWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *snappyCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := snappy.NewReader(src)
	_, err := io.Copy(dst, r) //nolint:gosec // G110: payloads are engine-produced
	return err
}

type s2Compressor struct {
	base
}

func (sc *s2Compressor) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (sc *s2Compressor) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}

func (sc *s2Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := s2.NewWriter(dst)
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (sc *s2Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := s2.NewReader(src)
	_, err := io.Copy(dst, r) //nolint:gosec // G110: payloads are engine-produced
	return err
}

type lz4Compressor struct {
	base
	compressionLevel lz4.CompressionLevel
}

func newLZ4Compressor(config *Config) *lz4Compressor {
	return &lz4Compressor{
		base:             base{codec: LZ4, level: config.Level},
		compressionLevel: mapLZ4Level(config.Level),
	}
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := lc.CompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := lc.DecompressStream(&buf, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lc *lz4Compressor) CompressStream(dst io.Writer, src io.Reader) error {
	w := lz4.NewWriter(dst)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return w.Close()
}

func (lc *lz4Compressor) DecompressStream(dst io.Writer, src io.Reader) error {
	r := lz4.NewReader(src)
	_, err := io.Copy(dst, r) //nolint:gosec // G110: payloads are engine-produced
	return err
}

// zstdCompressor pools encoders and decoders; zstd state is expensive to
// build.
type zstdCompressor struct {
	base
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(config *Config) *zstdCompressor {
	level := mapZstdLevel(config.Level)
	zc := &zstdCompressor{base: base{codec: Zstd, level: config.Level}}
	zc.encoderPool.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		return enc
	}
	zc.decoderPool.New = func() interface{} {
		dec, _ := zstd.NewReader(nil)
		return dec
	}
	return zc
}

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)
	return dec.DecodeAll(data, nil)
}

func (zc *zstdCompressor) CompressStream(dst io.Writer, src io.Reader) error {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)

	enc.Reset(dst)
	if _, err := io.Copy(enc, src); err != nil {
		return err
	}
	return enc.Close()
}

func (zc *zstdCompressor) DecompressStream(dst io.Writer, src io.Reader) error {
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	if err := dec.Reset(src); err != nil {
		return err
	}
	_, err := io.Copy(dst, dec) //nolint:gosec // G110: payloads are engine-produced
	return err
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
