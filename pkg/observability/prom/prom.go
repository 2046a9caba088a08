// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/wsm/pkg/observability"
)

// Metrics records solver, cache and HTTP events. It implements
// [observability.SolverHooks], [observability.CacheHooks] and
// [observability.HTTPHooks].
type Metrics struct {
	initTotal      *prometheus.CounterVec
	initDuration   prometheus.Histogram
	solveCalls     *prometheus.CounterVec
	solveDuration  prometheus.Histogram
	iterations     prometheus.Counter
	bestWeight     prometheus.Gauge
	solutions      *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	cacheBytes     prometheus.Counter
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

var (
	_ observability.SolverHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)

// New registers the wsm metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		initTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsm_initialise_total",
			Help: "Solver initialisations by result",
		}, []string{"result"}),
		initDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wsm_initialise_duration_seconds",
			Help:    "Time spent building and filtering initial domains",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		solveCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsm_solve_calls_total",
			Help: "Calls into solver sessions by whether the search finished",
		}, []string{"finished"}),
		solveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wsm_solve_duration_seconds",
			Help:    "Wall-clock time per solve call",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		iterations: f.NewCounter(prometheus.CounterOpts{
			Name: "wsm_search_iterations_total",
			Help: "Search iterations across all sessions",
		}),
		bestWeight: f.NewGauge(prometheus.GaugeOpts{
			Name: "wsm_last_scalar_product",
			Help: "Scalar product of the most recently reported solution",
		}),
		solutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsm_solutions_total",
			Help: "Reported solutions by completeness",
		}, []string{"complete"}),
		cacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsm_cache_operations_total",
			Help: "Cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "wsm_cache_written_bytes_total",
			Help: "Bytes written to the result cache",
		}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsm_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wsm_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) OnInitialise(_ context.Context, _, _ int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.initTotal.WithLabelValues(result).Inc()
	m.initDuration.Observe(d.Seconds())
}

func (m *Metrics) OnSolve(_ context.Context, iterations uint64, d time.Duration, finished bool) {
	m.solveCalls.WithLabelValues(strconv.FormatBool(finished)).Inc()
	m.solveDuration.Observe(d.Seconds())
	m.iterations.Add(float64(iterations))
}

func (m *Metrics) OnSolution(_ context.Context, scalarProduct uint64, complete bool) {
	m.solutions.WithLabelValues(strconv.FormatBool(complete)).Inc()
	m.bestWeight.Set(float64(scalarProduct))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheTotal.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
