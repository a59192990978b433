// Package client provides the rate-controlled request dispatcher through which
// every outbound call to the upstream game-statistics API passes.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/gruposillas/lol-activity/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for dispatcher operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lol_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lol_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lol_errors_total",
		Help: "Total failed submissions by class",
	}, []string{"class"})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lol_dispatch_batch_size",
		Help:    "Number of requests released per dispatcher batch",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	quotaSleepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lol_quota_sleeps_total",
		Help: "Total number of times the dispatcher slept out an exhausted quota window",
	})

	orphanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lol_orphaned_responses_total",
		Help: "Responses discarded because the caller stopped waiting",
	})
)

// Config holds the dispatcher configuration.
type Config struct {
	// Quota ceilings
	PerSecond int
	PerMinute int

	// QuotaWindow is how long the loop sleeps once the quota is exhausted.
	QuotaWindow time.Duration

	// QueueSize is the capacity of the shared pending-request queue.
	QueueSize int

	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration

	// Retry is the throttling retry policy.
	Retry RetryPolicy

	// UserAgent is sent with every request when set.
	UserAgent string

	// HTTPClient overrides the shared connection pool (for testing).
	HTTPClient *http.Client

	// Snapshots persists the quota belief between restarts. Optional.
	Snapshots ratelimit.SnapshotStore
}

// DefaultConfig returns a configuration matching a development API key.
func DefaultConfig() Config {
	return Config{
		PerSecond:      20,
		PerMinute:      100,
		QuotaWindow:    1 * time.Second,
		QueueSize:      32,
		RequestTimeout: 30 * time.Second,
		Retry:          DefaultRetryPolicy(),
		UserAgent:      "lol-activity/1.0",
	}
}

// outboundRequest is owned by the dispatcher from submission until its
// single-use result channel has been fulfilled.
type outboundRequest struct {
	id         string
	url        *url.URL
	endpoint   string
	caller     context.Context
	enqueuedAt time.Time
	result     chan result
}

type result struct {
	body []byte
	err  error
}

// Dispatcher serializes all outbound calls behind one control loop.
// Submit is safe for concurrent use by any number of goroutines.
type Dispatcher struct {
	httpClient *http.Client
	queue      chan *outboundRequest
	tracker    *ratelimit.Tracker
	perMinute  *rate.Limiter
	config     Config
	logger     zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	stopped   chan struct{}
	closeOnce sync.Once
}

// New validates cfg and starts the dispatcher's control loop.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.PerSecond < 1 {
		return nil, fmt.Errorf("per_second must be >= 1 (got %d)", cfg.PerSecond)
	}
	if cfg.PerMinute < cfg.PerSecond {
		return nil, fmt.Errorf("per_minute must be >= per_second (got %d < %d)", cfg.PerMinute, cfg.PerSecond)
	}
	if cfg.QuotaWindow <= 0 {
		return nil, fmt.Errorf("quota_window must be positive")
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.Sleep == nil {
		cfg.Retry.Sleep = sleepContext
	}

	logger := logging.NewLogger("dispatcher")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		httpClient: httpClient,
		queue:      make(chan *outboundRequest, cfg.QueueSize),
		tracker:    ratelimit.NewTracker(cfg.PerSecond, cfg.PerMinute, cfg.Snapshots, logger),
		perMinute:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), cfg.PerMinute),
		config:     cfg,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		stopped:    make(chan struct{}),
	}

	seedCtx, seedCancel := context.WithTimeout(ctx, 2*time.Second)
	if _, err := d.tracker.Seed(seedCtx, cfg.QuotaWindow); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed quota from snapshot")
	}
	seedCancel()

	go d.run()

	logger.Info().
		Int("per_second", cfg.PerSecond).
		Int("per_minute", cfg.PerMinute).
		Dur("quota_window", cfg.QuotaWindow).
		Msg("Dispatcher started")

	return d, nil
}

// Submit queues a GET for rawURL and waits for its response.
//
// On a 2xx response the body is returned. Every other outcome is an *APIError
// (throttling that outlived the retry policy included). If ctx ends first,
// Submit returns ctx.Err(); the request still completes and its response is
// discarded.
func (d *Dispatcher) Submit(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse request url: %w", err)
	}

	req := &outboundRequest{
		id:         uuid.NewString(),
		url:        u,
		endpoint:   endpointLabel(u),
		caller:     ctx,
		enqueuedAt: time.Now(),
		result:     make(chan result, 1),
	}

	select {
	case d.queue <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.ctx.Done():
		return nil, ErrDispatcherClosed
	}

	select {
	case res := <-req.result:
		return res.body, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.stopped:
		select {
		case res := <-req.result:
			return res.body, res.err
		default:
			return nil, ErrDispatcherClosed
		}
	}
}

// Budget returns the quota belief as of the last completed batch.
// It is only safe to call after Close.
func (d *Dispatcher) Budget() ratelimit.Budget {
	return d.tracker.Budget()
}

// Close stops the control loop once the in-flight batch has completed.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		d.logger.Info().Msg("Stopping dispatcher")
		d.cancel()
	})
	<-d.stopped
	return nil
}

// run is the control loop. It is the only goroutine that touches the tracker.
func (d *Dispatcher) run() {
	defer close(d.stopped)

	windowStart := time.Now()

	for {
		var first *outboundRequest
		select {
		case <-d.ctx.Done():
			return
		case first = <-d.queue:
		}

		if time.Since(windowStart) >= d.config.QuotaWindow {
			d.tracker.Refill()
			windowStart = time.Now()
		}

		batch := d.admit(first)

		if err := d.perMinute.WaitN(d.ctx, len(batch)); err != nil {
			for _, req := range batch {
				d.deliver(req, result{err: ErrDispatcherClosed})
			}
			return
		}

		d.tracker.Consume(len(batch))
		batchSize.Observe(float64(len(batch)))

		observations, retries := d.dispatch(batch)
		if retries > 0 {
			d.tracker.Consume(retries)
		}
		d.tracker.Observe(observations...)

		if d.tracker.Exhausted() {
			budget := d.tracker.Budget()
			quotaSleepsTotal.Inc()
			d.logger.Warn().
				Int("used", budget.Used).
				Int("remaining", budget.Remaining).
				Dur("quota_window", d.config.QuotaWindow).
				Msg("Quota exhausted, pausing dispatch")

			if err := sleepContext(d.ctx, d.config.QuotaWindow); err != nil {
				d.saveSnapshot()
				return
			}
			d.tracker.Refill()
			windowStart = time.Now()
		}

		d.saveSnapshot()
	}
}

// admit drains already-queued requests up to the current allowance.
func (d *Dispatcher) admit(first *outboundRequest) []*outboundRequest {
	allowance := d.tracker.Allowance()
	batch := []*outboundRequest{first}

	for len(batch) < allowance {
		select {
		case req := <-d.queue:
			batch = append(batch, req)
		default:
			return batch
		}
	}
	return batch
}

// execution is what one request reports back to the control loop.
type execution struct {
	observations []ratelimit.Observation
	retries      int
}

// dispatch runs every request of the batch concurrently and returns once all
// of them have delivered, together with their rate-limit observations and the
// number of retry attempts they sent on top of the batch.
func (d *Dispatcher) dispatch(batch []*outboundRequest) ([]ratelimit.Observation, int) {
	perRequest := make([]execution, len(batch))

	var wg sync.WaitGroup
	for i, req := range batch {
		wg.Add(1)
		go func(i int, req *outboundRequest) {
			defer wg.Done()
			body, exec, err := d.execute(req)
			perRequest[i] = exec
			d.deliver(req, result{body: body, err: err})
		}(i, req)
	}
	wg.Wait()

	var (
		all     []ratelimit.Observation
		retries int
	)
	for _, exec := range perRequest {
		all = append(all, exec.observations...)
		retries += exec.retries
	}
	return all, retries
}

// deliver fulfils the request's result channel exactly once. The channel is
// buffered, so an abandoned caller never blocks the dispatcher.
func (d *Dispatcher) deliver(req *outboundRequest, res result) {
	if req.caller.Err() != nil {
		orphanedTotal.Inc()
		d.logger.Debug().
			Str("request_id", req.id).
			Str("endpoint", req.endpoint).
			Msg("Caller stopped waiting, discarding response")
	}
	req.result <- res
}

// execute performs the request under the retry policy. Every retry attempt
// takes a token from the per-minute limiter before it goes out.
func (d *Dispatcher) execute(req *outboundRequest) ([]byte, execution, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(req.endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var exec execution

	last, attempts, exhausted := d.config.Retry.run(d.ctx, req.endpoint, d.logger, func(attempt int) outcome {
		if attempt > 1 {
			if err := d.perMinute.Wait(d.ctx); err != nil {
				return outcome{err: ErrDispatcherClosed}
			}
			exec.retries++
		}

		out := d.call(req, attempt)
		if out.err != nil {
			return out
		}

		obs, ok, err := ratelimit.ParseObservation(out.header, time.Now())
		if err != nil {
			d.logger.Warn().Err(err).Str("endpoint", req.endpoint).Msg("Failed to read rate limit headers")
		} else if ok {
			exec.observations = append(exec.observations, obs)
		}
		return out
	})

	if last.err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, exec, &APIError{
			StatusCode: http.StatusInternalServerError,
			ErrorClass: ErrorClassNetwork,
			Message:    fmt.Sprintf("GET %s failed", req.endpoint),
			Err:        last.err,
		}
	}

	if last.status >= 200 && last.status < 300 {
		return last.body, exec, nil
	}

	class := classifyStatus(last.status)
	errorsTotal.WithLabelValues(string(class)).Inc()

	apiErr := &APIError{
		StatusCode: last.status,
		ErrorClass: class,
		Message:    fmt.Sprintf("GET %s returned %d %s", req.endpoint, last.status, http.StatusText(last.status)),
	}
	if exhausted {
		apiErr.Err = fmt.Errorf("%w after %d attempts", ErrRetryExhausted, attempts)
	}

	d.logger.Warn().
		Str("request_id", req.id).
		Str("endpoint", req.endpoint).
		Int("status", last.status).
		Str("error_class", string(class)).
		Int("attempts", attempts).
		Msg("Upstream request failed")

	return nil, exec, apiErr
}

// call performs a single HTTP attempt. It deliberately does not use the
// caller's context: an abandoned request still runs to completion.
func (d *Dispatcher) call(req *outboundRequest, attempt int) outcome {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.url.String(), nil)
	if err != nil {
		return outcome{err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	if d.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", d.config.UserAgent)
	}

	d.logger.Debug().
		Str("request_id", req.id).
		Str("endpoint", req.url.Path).
		Int("attempt", attempt).
		Dur("queued", time.Since(req.enqueuedAt)).
		Msg("Executing upstream request")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		requestsTotal.WithLabelValues(req.endpoint, "network_error").Inc()
		d.logger.Error().
			Str("request_id", req.id).
			Str("endpoint", req.endpoint).
			Str("error", redact(err.Error(), req.url)).
			Msg("HTTP request failed")
		return outcome{err: fmt.Errorf("GET %s: %s", req.endpoint, redact(err.Error(), req.url))}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(req.endpoint, "network_error").Inc()
		return outcome{err: fmt.Errorf("read response body: %w", err)}
	}

	requestsTotal.WithLabelValues(req.endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	return outcome{
		status: resp.StatusCode,
		header: resp.Header,
		body:   body,
	}
}

// saveSnapshot persists the quota belief, best effort.
func (d *Dispatcher) saveSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := d.tracker.Save(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to save quota snapshot")
	}
}

// endpointLabel reduces a request path to a low-cardinality metric label:
// the first four segments, plus a following "by-*" selector segment.
//
//	/lol/match/v5/matches/EUW1_1                -> /lol/match/v5/matches
//	/lol/match/v5/matches/by-puuid/abc/ids      -> /lol/match/v5/matches/by-puuid
func endpointLabel(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) <= 4 {
		return "/" + strings.Join(segments, "/")
	}

	label := segments[:4]
	if strings.HasPrefix(segments[4], "by-") {
		label = segments[:5]
	}
	return "/" + strings.Join(label, "/")
}

// redact strips the query string (which carries the API key) from messages
// produced by net/http, which embed the full request URL.
func redact(msg string, u *url.URL) string {
	if u.RawQuery == "" {
		return msg
	}
	return strings.ReplaceAll(msg, "?"+u.RawQuery, "")
}
