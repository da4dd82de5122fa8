// Package metrics exposes Prometheus collectors for the engine's operations.
// Every named operation (join, pivot, rolling, csv read, ...) records an
// outcome counter, a latency histogram and the number of rows it touched.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts engine operations by name and outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lattice_operations_total",
			Help: "Total number of engine operations",
		},
		[]string{"operation", "status"},
	)

	// OperationLatency tracks operation latency in nanoseconds. Buckets
	// span in-memory column scans up to multi-second reshapes.
	OperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lattice_operation_latency_nanoseconds",
			Help: "Engine operation latency in nanoseconds",
			Buckets: []float64{
				1000,  // 1μs
				10000, // 10μs
				1e5,   // 100μs
				1e6,   // 1ms
				1e7,   // 10ms
				1e8,   // 100ms
				1e9,   // 1s
				1e10,  // 10s
			},
		},
		[]string{"operation"},
	)

	// RowsProcessed counts rows flowing through each operation.
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lattice_rows_processed_total",
			Help: "Total number of rows processed per operation",
		},
		[]string{"operation"},
	)

	// MemoryInUse reports the estimated bytes held by live frames that
	// callers chose to register.
	MemoryInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lattice_frame_memory_bytes",
			Help: "Estimated bytes held by registered frames",
		},
	)
)

// Timer measures one operation from construction to Stop.
type Timer struct {
	start     time.Time
	operation string
}

// NewTimer starts timing the named operation.
func NewTimer(operation string) *Timer {
	return &Timer{start: time.Now(), operation: operation}
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ObserveOp records one finished operation: outcome, latency and row count.
func ObserveOp(operation string, start time.Time, rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationLatency.WithLabelValues(operation).
		Observe(float64(time.Since(start).Nanoseconds()))
	if rows > 0 {
		RowsProcessed.WithLabelValues(operation).Add(float64(rows))
	}
}
