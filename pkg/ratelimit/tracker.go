package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Response headers consumed by the tracker.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderDate      = "Date"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lol_quota_remaining",
		Help: "Requests believed to be left in the current upstream quota window",
	})

	quotaObservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lol_quota_observations_total",
		Help: "Rate-limit header observations by outcome (accepted, stale)",
	}, []string{"outcome"})
)

// Observation is one rate-limit reading taken from an upstream response.
type Observation struct {
	Remaining int
	At        time.Time
}

// ParseObservation reads the remaining-quota and timestamp headers.
// ok is false when the response carries no remaining-quota header.
// When the Date header is missing or malformed, receivedAt (truncated to the
// second, the resolution of Date) is used instead.
func ParseObservation(headers http.Header, receivedAt time.Time) (obs Observation, ok bool, err error) {
	remainStr := strings.TrimSpace(headers.Get(HeaderRemaining))
	if remainStr == "" {
		return Observation{}, false, nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return Observation{}, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}
	if remain < 0 {
		remain = 0
	}

	at := receivedAt.UTC().Truncate(time.Second)
	if dateStr := headers.Get(HeaderDate); dateStr != "" {
		if parsed, perr := http.ParseTime(dateStr); perr == nil {
			at = parsed.UTC()
		}
	}

	return Observation{Remaining: remain, At: at}, true, nil
}

// Tracker maintains a Budget from upstream observations.
//
// Like the Budget it wraps, a Tracker belongs to the dispatcher's control loop
// and must not be shared between goroutines.
type Tracker struct {
	budget *Budget
	store  SnapshotStore
	logger zerolog.Logger
}

// NewTracker creates a tracker with a full budget. store may be nil.
func NewTracker(perSecond, perMinute int, store SnapshotStore, logger zerolog.Logger) *Tracker {
	t := &Tracker{
		budget: NewBudget(perSecond, perMinute),
		store:  store,
		logger: logger,
	}
	quotaRemaining.Set(float64(t.budget.Remaining))
	return t
}

// Budget returns a copy of the current budget.
func (t *Tracker) Budget() Budget {
	return *t.budget
}

// Allowance returns how many requests the next batch may release.
func (t *Tracker) Allowance() int {
	return t.budget.Allowance()
}

// Consume records n requests sent upstream, retries included.
func (t *Tracker) Consume(n int) {
	t.budget.Consume(n)
	quotaRemaining.Set(float64(t.budget.Remaining))
}

// Exhausted reports whether the local window or the upstream quota is used up.
func (t *Tracker) Exhausted() bool {
	return t.budget.Exhausted()
}

// Refill starts a fresh window after the dispatcher slept one out.
func (t *Tracker) Refill() {
	t.budget.Refill()
	quotaRemaining.Set(float64(t.budget.Remaining))
}

// Observe applies observations. The chronologically latest one wins; on equal
// timestamps the smaller remaining value wins, so the outcome does not depend
// on the order in which concurrent responses are processed.
func (t *Tracker) Observe(observations ...Observation) {
	for _, obs := range observations {
		switch {
		case obs.At.After(t.budget.ObservedAt):
			t.budget.Remaining = obs.Remaining
			t.budget.ObservedAt = obs.At
		case obs.At.Equal(t.budget.ObservedAt) && obs.Remaining < t.budget.Remaining:
			t.budget.Remaining = obs.Remaining
		default:
			quotaObservationsTotal.WithLabelValues("stale").Inc()
			continue
		}
		quotaObservationsTotal.WithLabelValues("accepted").Inc()
	}

	quotaRemaining.Set(float64(t.budget.Remaining))

	if t.budget.Remaining <= 0 {
		t.logger.Warn().
			Time("observed_at", t.budget.ObservedAt).
			Msg("Upstream quota exhausted")
	} else {
		t.logger.Debug().
			Int("remaining", t.budget.Remaining).
			Int("used", t.budget.Used).
			Time("observed_at", t.budget.ObservedAt).
			Msg("Quota state updated")
	}
}

// Seed loads a snapshot from the store and adopts it if it is younger than maxAge.
// It returns true when the snapshot was adopted.
func (t *Tracker) Seed(ctx context.Context, maxAge time.Duration) (bool, error) {
	if t.store == nil {
		return false, nil
	}

	snap, err := t.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load quota snapshot: %w", err)
	}
	if snap == nil || snap.IsStale(maxAge) {
		return false, nil
	}

	t.budget.Remaining = snap.Remaining
	t.budget.ObservedAt = snap.ObservedAt
	quotaRemaining.Set(float64(t.budget.Remaining))

	t.logger.Info().
		Int("remaining", snap.Remaining).
		Time("observed_at", snap.ObservedAt).
		Msg("Seeded quota from snapshot")

	return true, nil
}

// Save persists the current budget. A nil store is a no-op.
func (t *Tracker) Save(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	return t.store.Save(ctx, *t.budget)
}
