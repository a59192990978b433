// Package metrics provides the Prometheus registry and HTTP handler for the
// service. Dispatcher, quota and cache metrics are defined in their own
// packages (client, ratelimit, cache) to avoid circular dependencies; this
// package documents them and owns the metrics of the HTTP worker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// HTTP worker metrics.
var (
	// ActivityLookups counts activity lookups served by mode and outcome.
	ActivityLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lol_activity_lookups_total",
		Help: "Activity lookups served by mode (normal, ranked) and outcome (ok, throttled, not_found, error)",
	}, []string{"mode", "outcome"})

	// ActivityLookupDuration observes end-to-end lookup latency.
	ActivityLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lol_activity_lookup_duration_seconds",
		Help:    "End-to-end activity lookup duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"mode"})
)

// Handler returns the /metrics handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Quota Metrics (pkg/ratelimit):
//   - lol_quota_remaining (Gauge): Requests believed left in the current quota window
//   - lol_quota_observations_total{outcome} (Counter): Rate-limit header observations (accepted, stale)
//
// Dispatcher Metrics (pkg/client):
//   - lol_requests_total{endpoint, status} (Counter): Upstream requests by endpoint and HTTP status
//   - lol_request_duration_seconds{endpoint} (Histogram): Request duration including retries
//   - lol_errors_total{class} (Counter): Failed submissions by error class
//   - lol_dispatch_batch_size (Histogram): Requests released per batch
//   - lol_quota_sleeps_total (Counter): Quota-window sleeps
//   - lol_orphaned_responses_total (Counter): Responses discarded after the caller gave up
//
// Retry Metrics (pkg/client):
//   - lol_retries_total{endpoint} (Counter): Throttled calls retried
//   - lol_retry_backoff_seconds (Histogram): Retry-After pauses honoured
//   - lol_retry_exhausted_total{endpoint} (Counter): Calls still throttled after the last attempt
//
// Cache Metrics (pkg/cache):
//   - lol_cache_hits_total{kind} (Counter): Cache hits
//   - lol_cache_misses_total{kind} (Counter): Cache misses
//   - lol_cache_stored_bytes_total{kind} (Counter): Bytes written
//   - lol_cache_errors_total{operation} (Counter): Cache operation errors
//
// HTTP Worker Metrics (pkg/metrics):
//   - lol_activity_lookups_total{mode, outcome} (Counter)
//   - lol_activity_lookup_duration_seconds{mode} (Histogram)
//
// Example Prometheus Queries:
//
//   # Throttling pressure
//   rate(lol_retries_total[5m])
//
//   # Quota headroom
//   lol_quota_remaining < 5
//
//   # Cache Hit Rate
//   sum(rate(lol_cache_hits_total[5m])) /
//   (sum(rate(lol_cache_hits_total[5m])) + sum(rate(lol_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(lol_request_duration_seconds_bucket[5m]))
