// ============================================================================
// Executor Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/executor
// File: metrics.go
// Purpose: Collect and expose Prometheus metrics for the worker-pool Executor
//
// What the Pool can actually observe from the outside of task.Run, and
// nothing more: it never sees individual polls or repolls, since those
// happen inside Run.Run's private loop and resubmit to the executor only
// when the future actually parks. So instrumentation here is submission
// counts, per-dispatch wall time (dequeue to Run() returning, which may
// include several internal repolls), and queue depth, rather than a
// poll-by-poll breakdown.
//
// Metric Categories:
//
//   1. Counters - cumulative, monotonically increasing:
//      - taskloom_runs_submitted_total: Runs handed to Execute (initial
//        submissions plus every Unpark-driven resubmission)
//      - taskloom_runs_dispatched_total: Runs actually dequeued and driven
//        through Run()
//
//   2. Performance (Histogram):
//      - taskloom_run_duration_seconds: wall time of a single Run() call
//
//   3. Status (Gauge):
//      - taskloom_queue_depth: Runs currently buffered, awaiting a free
//        worker goroutine
//
// HTTP Endpoint:
//   Exposed via /metrics, served by promhttp.Handler() on a configurable port.
//
// ============================================================================

package executor

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for a Pool.
type Metrics struct {
	runsSubmitted  prometheus.Counter
	runsDispatched prometheus.Counter

	runDuration prometheus.Histogram

	queueDepth prometheus.Gauge
}

// NewMetrics creates and registers a fresh Metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		runsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskloom_runs_submitted_total",
			Help: "Total number of Runs handed to the executor (initial submissions plus Unpark-driven resubmissions)",
		}),
		runsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskloom_runs_dispatched_total",
			Help: "Total number of Runs dequeued and driven through Run()",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskloom_run_duration_seconds",
			Help:    "Wall time of a single Run() call, dequeue to return",
			Buckets: prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskloom_queue_depth",
			Help: "Current number of Runs buffered awaiting a worker goroutine",
		}),
	}

	prometheus.MustRegister(
		m.runsSubmitted,
		m.runsDispatched,
		m.runDuration,
		m.queueDepth,
	)

	return m
}

func (m *Metrics) recordSubmit()    { m.runsSubmitted.Inc() }
func (m *Metrics) recordDispatch(seconds float64) {
	m.runsDispatched.Inc()
	m.runDuration.Observe(seconds)
}
func (m *Metrics) setQueueDepth(n int) { m.queueDepth.Set(float64(n)) }

// StartServer starts the Prometheus metrics HTTP server on the given port.
// Blocks; run it in its own goroutine.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
