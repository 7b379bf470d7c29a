// Package prom implements the observability hooks on Prometheus collectors.
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/layerank/pkg/observability"
)

// Namespace prefixes every metric name.
const Namespace = "layerank"

// Metrics holds the collectors behind the rank, cache and HTTP hooks.
type Metrics struct {
	RankRunsTotal      *prometheus.CounterVec
	RankDuration       *prometheus.HistogramVec
	RankIterations     prometheus.Histogram
	RankGraphNodes     prometheus.Histogram
	RankGraphEdges     prometheus.Histogram
	RanksInFlight      prometheus.Gauge
	CacheOpsTotal      *prometheus.CounterVec
	CacheBytesWritten  *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
	HTTPInFlight       prometheus.Gauge

	gatherer prometheus.Gatherer
}

var (
	_ observability.RankHooks  = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)

// New registers the collectors with reg and returns them. A nil reg uses
// the default registry.
func New(reg *prometheus.Registry) *Metrics {
	var (
		r prometheus.Registerer = prometheus.DefaultRegisterer
		g prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		r, g = reg, reg
	}
	f := promauto.With(r)

	return &Metrics{
		RankRunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "rank",
				Name:      "runs_total",
				Help:      "Total number of ranking runs",
			},
			[]string{"balance", "status"},
		),
		RankDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rank",
				Name:      "duration_seconds",
				Help:      "Duration of ranking runs",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"balance"},
		),
		RankIterations: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rank",
				Name:      "iterations",
				Help:      "Pivots performed per ranking run",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		RankGraphNodes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rank",
				Name:      "graph_nodes",
				Help:      "Number of nodes in ranked graphs",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
		),
		RankGraphEdges: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "rank",
				Name:      "graph_edges",
				Help:      "Number of edges in ranked graphs",
				Buckets:   []float64{20, 100, 500, 1000, 5000, 10000, 50000, 100000},
			},
		),
		RanksInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "rank",
				Name:      "in_flight",
				Help:      "Ranking runs currently executing",
			},
		),
		CacheOpsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "operations_total",
				Help:      "Cache lookups and writes by result",
			},
			[]string{"key_type", "result"},
		),
		CacheBytesWritten: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "cache",
				Name:      "written_bytes_total",
				Help:      "Bytes written to the cache",
			},
			[]string{"key_type"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "HTTP requests currently being served",
			},
		),
		gatherer: g,
	}
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// OnRankStart implements observability.RankHooks.
func (m *Metrics) OnRankStart(_ context.Context, nodes, edges int) {
	m.RanksInFlight.Inc()
	m.RankGraphNodes.Observe(float64(nodes))
	m.RankGraphEdges.Observe(float64(edges))
}

// OnRankComplete implements observability.RankHooks.
func (m *Metrics) OnRankComplete(_ context.Context, ev observability.RankEvent) {
	m.RanksInFlight.Dec()
	balance := ev.Balance
	if balance == "" {
		balance = "none"
	}
	status := "success"
	switch {
	case ev.Err != nil:
		status = "error"
	case ev.Capped:
		status = "capped"
	}
	m.RankRunsTotal.WithLabelValues(balance, status).Inc()
	m.RankDuration.WithLabelValues(balance).Observe(ev.Duration.Seconds())
	if ev.Err == nil {
		m.RankIterations.Observe(float64(ev.Iterations))
	}
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheOpsTotal.WithLabelValues(keyType, "set").Inc()
	m.CacheBytesWritten.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, statusCode int, duration time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
