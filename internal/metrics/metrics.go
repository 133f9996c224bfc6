// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tinylink"

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks requests currently being served.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of requests currently being served",
		},
	)

	// DBQueryDuration measures store statement latency by operation.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Store query duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// CacheHitsTotal counts existence cache hits.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of existence cache hits",
		},
	)

	// CacheMissesTotal counts existence cache misses.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of existence cache misses",
		},
	)

	// URLsCreatedTotal counts mappings created, by code origin.
	URLsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_created_total",
			Help:      "Total number of short URLs created",
		},
		[]string{"origin"},
	)

	// ShortenRejectedTotal counts registrations refused, by reason.
	ShortenRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shorten_rejected_total",
			Help:      "Total number of rejected shorten requests",
		},
		[]string{"reason"},
	)

	// RedirectsTotal counts successful redirects.
	RedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Total number of successful redirects",
		},
	)

	// RedirectMissesTotal counts redirects for unknown codes.
	RedirectMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirect_misses_total",
			Help:      "Total number of redirects for unknown short codes",
		},
	)

	// CodeCollisionsTotal counts generated candidates that were already taken.
	CodeCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Total number of generated short codes already in use",
		},
	)

	// CodeExhaustedTotal counts generations that ran out of attempts.
	CodeExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_exhausted_total",
			Help:      "Total number of short code generations that exhausted their attempts",
		},
	)
)

// Code origins for URLsCreatedTotal.
const (
	OriginCustom    = "custom"
	OriginGenerated = "generated"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request metric.
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDBQuery records a store query duration.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit records an existence cache hit.
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records an existence cache miss.
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordURLCreated records a mapping creation.
func RecordURLCreated(custom bool) {
	origin := OriginGenerated
	if custom {
		origin = OriginCustom
	}
	URLsCreatedTotal.WithLabelValues(origin).Inc()
}

// RecordShortenRejected records a refused registration.
func RecordShortenRejected(reason string) {
	ShortenRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordRedirect records a successful redirect.
func RecordRedirect() {
	RedirectsTotal.Inc()
}

// RecordRedirectMiss records a redirect for an unknown code.
func RecordRedirectMiss() {
	RedirectMissesTotal.Inc()
}

// RecordCodeCollision records a generated code that was already taken.
func RecordCodeCollision() {
	CodeCollisionsTotal.Inc()
}

// RecordCodeExhausted records a generation that ran out of attempts.
func RecordCodeExhausted() {
	CodeExhaustedTotal.Inc()
}
