package window

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/latticedata/lattice/pkg/frame"
	"github.com/latticedata/lattice/pkg/vector"
)

// benchSeries builds a single-column frame of n observations with a null
// every 97th row.
func benchSeries(b *testing.B, n int) *frame.Frame {
	b.Helper()

	values := make([]float64, n)
	for i := range values {
		if i%97 == 0 {
			values[i] = math.NaN()
		} else {
			values[i] = math.Sin(float64(i) / 40)
		}
	}
	v, err := vector.New(values, vector.Options{})
	if err != nil {
		b.Fatal(err)
	}
	f, err := frame.New([]string{"x"}, []vector.Vector{v})
	if err != nil {
		b.Fatal(err)
	}
	return f
}

// BenchmarkRolling measures rolling mean throughput across series lengths.
func BenchmarkRolling(b *testing.B) {
	for _, n := range []int{10000, 100000, 1000000} {
		b.Run(fmt.Sprintf("Rows_%d", n), func(b *testing.B) {
			f := benchSeries(b, n)
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := Rolling(ctx, f, RollingOptions{Column: "x", Window: 20, MinPeriods: 1}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRolling_WindowSize holds the series length fixed and varies the
// window, which dominates the per-row reduce cost.
func BenchmarkRolling_WindowSize(b *testing.B) {
	f := benchSeries(b, 100000)
	ctx := context.Background()

	for _, w := range []int{5, 50, 500} {
		b.Run(fmt.Sprintf("Window_%d", w), func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := Rolling(ctx, f, RollingOptions{Column: "x", Window: w, MinPeriods: 1}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRolling_Centered compares trailing and centered window placement.
func BenchmarkRolling_Centered(b *testing.B) {
	f := benchSeries(b, 100000)
	ctx := context.Background()

	for _, centered := range []bool{false, true} {
		name := "Trailing"
		if centered {
			name = "Centered"
		}
		b.Run(name, func(b *testing.B) {
			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				opts := RollingOptions{Column: "x", Window: 21, Center: centered, MinPeriods: 1}
				if _, err := Rolling(ctx, f, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEWMA measures exponential smoothing throughput across series
// lengths.
func BenchmarkEWMA(b *testing.B) {
	for _, n := range []int{10000, 100000, 1000000} {
		b.Run(fmt.Sprintf("Rows_%d", n), func(b *testing.B) {
			f := benchSeries(b, n)
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := EWMA(ctx, f, EWMAOptions{Column: "x", Span: 20}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
