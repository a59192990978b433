package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lol_retries_total",
		Help: "Total number of throttled calls retried, by endpoint",
	}, []string{"endpoint"})

	retryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lol_retry_backoff_seconds",
		Help:    "Retry-After pause honoured before retrying a throttled call",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lol_retry_exhausted_total",
		Help: "Total number of calls still throttled after the last attempt, by endpoint",
	}, []string{"endpoint"})
)

// DefaultMaxAttempts is the attempt cap, including the first call.
const DefaultMaxAttempts = 5

// RetryPolicy decides how to react to a throttling response.
//
// Only HTTP 429 carrying a numeric Retry-After header is retried, after
// pausing exactly that many seconds. Everything else is terminal.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// Sleep pauses for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Sleep:       sleepContext,
	}
}

// RetryAfter returns the pause requested by a throttling response.
// ok is false when the response must not be retried: it is not a 429, or the
// Retry-After header is absent or not a non-negative number of seconds.
func RetryAfter(status int, headers http.Header) (wait time.Duration, ok bool) {
	if status != http.StatusTooManyRequests {
		return 0, false
	}

	value := strings.TrimSpace(headers.Get("Retry-After"))
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0, false
	}

	return time.Duration(seconds) * time.Second, true
}

// outcome is the result of a single HTTP attempt.
type outcome struct {
	status int
	header http.Header
	body   []byte
	err    error
}

// run calls fn until it yields a terminal outcome or the attempt cap is hit.
// exhausted is true when the last outcome was still a retryable 429.
func (p RetryPolicy) run(ctx context.Context, endpoint string, logger zerolog.Logger, fn func(attempt int) outcome) (last outcome, attempts int, exhausted bool) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempts = 1; attempts <= maxAttempts; attempts++ {
		last = fn(attempts)
		if last.err != nil {
			return last, attempts, false
		}

		wait, ok := RetryAfter(last.status, last.header)
		if !ok {
			return last, attempts, false
		}

		if attempts == maxAttempts {
			break
		}

		retriesTotal.WithLabelValues(endpoint).Inc()
		retryBackoffSeconds.Observe(wait.Seconds())

		logger.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempts).
			Dur("retry_after", wait).
			Msg("Throttled by upstream, retrying after pause")

		if err := sleep(ctx, wait); err != nil {
			logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempts).
				Msg("Dispatcher stopping during throttle pause")
			return last, attempts, false
		}
	}

	retryExhaustedTotal.WithLabelValues(endpoint).Inc()
	logger.Warn().
		Str("endpoint", endpoint).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return last, maxAttempts, true
}

// sleepContext waits for d with context cancellation support.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
