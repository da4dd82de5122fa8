package reshape

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/vector"
)

func benchFrame(b *testing.B, names []string, cols ...interface{}) *frame.Frame {
	b.Helper()
	vecs := make([]vector.Vector, len(cols))
	for i, c := range cols {
		v, err := vector.New(c, vector.Options{})
		if err != nil {
			b.Fatal(err)
		}
		vecs[i] = v
	}
	f, err := frame.New(names, vecs)
	if err != nil {
		b.Fatal(err)
	}
	return f
}

// benchLong builds a long frame of n observations spread over r regions and
// m months.
func benchLong(b *testing.B, n, r, m int) *frame.Frame {
	b.Helper()

	regions := make([]interface{}, n)
	months := make([]int32, n)
	sales := make([]float64, n)
	for i := 0; i < n; i++ {
		regions[i] = fmt.Sprintf("region-%03d", i%r)
		months[i] = int32(i % m)
		sales[i] = float64(i%1000) * 1.5
	}
	return benchFrame(b, []string{"region", "month", "sales"}, regions, months, sales)
}

// benchWide builds a wide frame of n rows with an id column and m numeric
// value columns.
func benchWide(b *testing.B, n, m int) *frame.Frame {
	b.Helper()

	names := make([]string, 0, m+1)
	cols := make([]interface{}, 0, m+1)

	ids := make([]int32, n)
	for i := range ids {
		ids[i] = int32(i)
	}
	names = append(names, "id")
	cols = append(cols, ids)

	for j := 0; j < m; j++ {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(i+j) * 0.25
		}
		names = append(names, fmt.Sprintf("m%02d", j))
		cols = append(cols, vals)
	}
	return benchFrame(b, names, cols...)
}

// BenchmarkPivot measures long-to-wide throughput across input sizes.
func BenchmarkPivot(b *testing.B) {
	for _, n := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("Rows_%d", n), func(b *testing.B) {
			f := benchLong(b, n, 20, 12)
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				start := time.Now()
				_, err := Pivot(ctx, f, PivotOptions{
					Index:   []string{"region"},
					Columns: []string{"month"},
					Value:   "sales",
				})
				if err != nil {
					b.Fatal(err)
				}
				rowsPerSec := float64(n) / time.Since(start).Seconds()
				b.ReportMetric(rowsPerSec, "rows/sec")
			}
		})
	}
}

// BenchmarkPivot_Cardinality holds the row count fixed and varies how many
// output cells the pivot has to fill.
func BenchmarkPivot_Cardinality(b *testing.B) {
	cases := []struct {
		name string
		r, m int
	}{
		{"Cells_24", 2, 12},
		{"Cells_240", 20, 12},
		{"Cells_2400", 200, 12},
	}
	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			f := benchLong(b, 10000, tc.r, tc.m)
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				_, err := Pivot(ctx, f, PivotOptions{
					Index:   []string{"region"},
					Columns: []string{"month"},
					Value:   "sales",
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkMelt measures wide-to-long throughput across input sizes. Each
// input row unpivots into twelve output rows.
func BenchmarkMelt(b *testing.B) {
	for _, n := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("Rows_%d", n), func(b *testing.B) {
			f := benchWide(b, n, 12)
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				start := time.Now()
				out, err := Melt(ctx, f, MeltOptions{IDVars: []string{"id"}})
				if err != nil {
					b.Fatal(err)
				}
				rowsPerSec := float64(out.RowCount()) / time.Since(start).Seconds()
				b.ReportMetric(rowsPerSec, "rows/sec")
			}
		})
	}
}
