package ingest

import (
	"bufio"
	"context"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedata/lattice/pkg/errors"
	"github.com/latticedata/lattice/pkg/testutil"
	"github.com/latticedata/lattice/pkg/vector"
)

func TestReadJSON_Array(t *testing.T) {
	in := `[{"id":1,"name":"ada"},{"id":2,"name":null},{"id":3,"name":"lin"}]`

	f, err := ReadJSON(context.Background(), strings.NewReader(in),
		JSONOptions{Vector: vector.Options{NeverArrow: true}})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, f.Names())
	assert.Equal(t, 3, f.RowCount())

	// JSON numbers land as float64.
	id, err := f.Column("id")
	require.NoError(t, err)
	assert.Equal(t, vector.KindFloat64, id.Kind())

	name, err := f.Column("name")
	require.NoError(t, err)
	assert.True(t, name.IsNull(1))

	v, err := f.Get("name", 2)
	require.NoError(t, err)
	assert.Equal(t, "lin", v)
}

func TestReadJSON_Lines(t *testing.T) {
	in := strings.Join([]string{
		`{"a":1,"b":true}`,
		``,
		`{"a":2,"b":false}`,
		`{"a":3}`,
	}, "\n")

	f, err := ReadJSON(context.Background(), strings.NewReader(in),
		JSONOptions{Format: JSONLines, Vector: vector.Options{NeverArrow: true}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, f.Names())
	assert.Equal(t, 3, f.RowCount())

	b, err := f.Column("b")
	require.NoError(t, err)
	assert.Equal(t, vector.KindBool, b.Kind())
	assert.True(t, b.IsNull(2))
}

func TestReadJSON_BadFormat(t *testing.T) {
	_, err := ReadJSON(context.Background(), strings.NewReader("[]"),
		JSONOptions{Format: "yaml"})
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestReadJSON_Malformed(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		_, err := ReadJSON(context.Background(), strings.NewReader(`[{"a":`), JSONOptions{})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("lines", func(t *testing.T) {
		_, err := ReadJSON(context.Background(), strings.NewReader("{\"a\":1}\n{bad\n"),
			JSONOptions{Format: JSONLines})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})
}

func TestWriteJSON_ArrayRoundTrip(t *testing.T) {
	ctx, cancelCtx := testutil.TestContext(t)
	defer cancelCtx()

	want := testutil.MustFrame(t,
		[]string{"id", "label"},
		map[string]interface{}{
			"id":    []float64{1, 2, 3},
			"label": []interface{}{"x", nil, "z"},
		},
		vector.Options{NeverArrow: true})

	var sb strings.Builder
	require.NoError(t, WriteJSON(ctx, &sb, want, JSONOptions{}))

	got, err := ReadJSON(ctx, strings.NewReader(sb.String()),
		JSONOptions{Vector: vector.Options{NeverArrow: true}})
	require.NoError(t, err)
	testutil.RequireFrameEqual(t, want, got)
}

func TestWriteJSON_Lines(t *testing.T) {
	ctx := context.Background()

	f := testutil.MustFrame(t,
		[]string{"n"},
		map[string]interface{}{"n": []float64{1, 2}},
		vector.Options{NeverArrow: true})

	var sb strings.Builder
	require.NoError(t, WriteJSON(ctx, &sb, f, JSONOptions{Format: JSONLines}))

	scanner := bufio.NewScanner(strings.NewReader(sb.String()))
	var lines int
	for scanner.Scan() {
		var rec map[string]interface{}
		require.NoError(t, gojson.Unmarshal(scanner.Bytes(), &rec))
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 2, lines)
}

func TestWriteJSON_NullCellsBecomeJSONNull(t *testing.T) {
	f := testutil.MustFrame(t,
		[]string{"x"},
		map[string]interface{}{"x": []interface{}{1.5, nil}},
		vector.Options{NeverArrow: true})

	var sb strings.Builder
	require.NoError(t, WriteJSON(context.Background(), &sb, f, JSONOptions{Format: JSONLines}))
	assert.Contains(t, sb.String(), `{"x":null}`)
}

func TestJSONFile_RoundTrip(t *testing.T) {
	ctx, cancelCtx := testutil.TestContext(t)
	defer cancelCtx()

	want := testutil.MustFrame(t,
		[]string{"a", "b"},
		map[string]interface{}{
			"a": []float64{1.25, 2.5},
			"b": []string{"p", "q"},
		},
		vector.Options{NeverArrow: true})

	path := filepath.Join(t.TempDir(), "frame.ndjson")
	require.NoError(t, WriteJSONFile(ctx, path, want, JSONOptions{Format: JSONLines}))

	got, err := ReadJSONFile(ctx, path,
		JSONOptions{Format: JSONLines, Vector: vector.Options{NeverArrow: true}})
	require.NoError(t, err)
	testutil.RequireFrameEqual(t, want, got)
}

func TestWriteJSON_NilFrame(t *testing.T) {
	err := WriteJSON(context.Background(), &strings.Builder{}, nil, JSONOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
