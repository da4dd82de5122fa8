package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
)

func TestParseCodec(t *testing.T) {
	for name, want := range map[string]Codec{
		"":       None,
		"none":   None,
		"gzip":   Gzip,
		"GZIP":   Gzip,
		"snappy": Snappy,
		"s2":     S2,
		"lz4":    LZ4,
		"zstd":   Zstd,
	} {
		got, err := ParseCodec(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseCodec("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestRoundTrip_AllCodecs(t *testing.T) {
	payload := bytes.Repeat([]byte("columnar frame payload with repeating cells "), 64)

	for _, codec := range []Codec{None, Gzip, Snappy, S2, LZ4, Zstd} {
		t.Run(string(codec), func(t *testing.T) {
			comp, err := New(&Config{Codec: codec})
			require.NoError(t, err)
			assert.Equal(t, codec, comp.Codec())

			compressed, err := comp.Compress(payload)
			require.NoError(t, err)
			restored, err := comp.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)

			if codec != None {
				assert.Less(t, len(compressed), len(payload),
					"repetitive payload should shrink")
			}

			var enc bytes.Buffer
			require.NoError(t, comp.CompressStream(&enc, bytes.NewReader(payload)))
			var dec bytes.Buffer
			require.NoError(t, comp.DecompressStream(&dec, &enc))
			assert.Equal(t, payload, dec.Bytes())
		})
	}
}

func TestRoundTrip_Levels(t *testing.T) {
	payload := bytes.Repeat([]byte("level sweep "), 256)

	for _, level := range []Level{Fastest, Default, Better, Best} {
		for _, codec := range []Codec{Gzip, LZ4, Zstd} {
			comp, err := New(&Config{Codec: codec, Level: level})
			require.NoError(t, err)
			assert.Equal(t, level, comp.Level())

			compressed, err := comp.Compress(payload)
			require.NoError(t, err)
			restored, err := comp.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, restored)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	comp, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, Snappy, comp.Codec())
	assert.Equal(t, Default, comp.Level())
}

func TestCompress_Empty(t *testing.T) {
	comp, err := New(&Config{Codec: Zstd})
	require.NoError(t, err)

	compressed, err := comp.Compress(nil)
	require.NoError(t, err)
	restored, err := comp.Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestConcurrentUse(t *testing.T) {
	comp, err := New(&Config{Codec: Zstd})
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("shared compressor "), 128)
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			compressed, err := comp.Compress(payload)
			if err != nil {
				done <- err
				return
			}
			restored, err := comp.Decompress(compressed)
			if err != nil {
				done <- err
				return
			}
			if !bytes.Equal(payload, restored) {
				done <- errors.New(errors.ErrorTypeInternal, "round trip mismatch")
				return
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
