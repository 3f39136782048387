package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── Price resolution metrics ───────────────────────────────────────────

var (
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedscope",
		Subsystem: "pricing",
		Name:      "resolutions_total",
		Help:      "Total number of price resolutions per chain and outcome.",
	}, []string{"chain", "outcome"})

	PriceCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedscope",
		Subsystem: "pricing",
		Name:      "price_cache_requests_total",
		Help:      "Price cache lookups by result (hit, miss, error).",
	}, []string{"result"})
)

// ── Oracle read metrics ────────────────────────────────────────────────

var (
	OracleReadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "feedscope",
		Subsystem: "oracle",
		Name:      "read_duration_seconds",
		Help:      "Duration of the joined decimals/latestRoundData read per chain.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"chain"})
)

// ── HTTP request metrics ───────────────────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "feedscope",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "feedscope",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)
