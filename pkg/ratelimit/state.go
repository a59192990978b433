// Package ratelimit tracks the request quota of the upstream game-statistics API.
// The quota belief is refreshed from the X-RateLimit-Remaining header of every
// response, ordered by the response Date header, so limits enforced upstream
// (including those consumed by other clients of the same key) are honoured.
package ratelimit

import (
	"time"
)

// Redis keys for quota snapshot storage.
const (
	RedisKeyRemaining  = "lol:rate_limit:remaining"
	RedisKeyObservedAt = "lol:rate_limit:observed_at"
	RedisKeySavedAt    = "lol:rate_limit:saved_at"
)

// Budget is the caller's belief about the quota left in the current window.
//
// Two counts are kept apart: Remaining follows the upstream's own
// X-RateLimit-Remaining header (and is lowered locally between observations),
// Used counts the requests released in the current local window. A batch may
// release no more than either allows.
//
// A Budget is owned by exactly one goroutine (the dispatcher's control loop)
// and is not safe for concurrent use.
type Budget struct {
	// PerSecond is the configured ceiling for one local window.
	PerSecond int `json:"per_second"`

	// PerMinute is the configured per-minute ceiling.
	PerMinute int `json:"per_minute"`

	// Remaining is the number of requests the upstream is believed to allow.
	Remaining int `json:"remaining"`

	// Used is the number of requests released in the current local window.
	Used int `json:"used"`

	// ObservedAt is the upstream timestamp of the most recent rate-limit header
	// that was accepted. Zero until the first observation.
	ObservedAt time.Time `json:"observed_at"`
}

// NewBudget creates a full budget for the given ceilings.
func NewBudget(perSecond, perMinute int) *Budget {
	return &Budget{
		PerSecond: perSecond,
		PerMinute: perMinute,
		Remaining: perSecond,
	}
}

// Allowance returns how many requests the next batch may release:
// min(PerSecond-Used, Remaining). It is never less than one: the dispatcher
// sleeps out an exhausted window before it asks again.
func (b *Budget) Allowance() int {
	n := b.PerSecond - b.Used
	if b.Remaining < n {
		n = b.Remaining
	}
	if n < 1 {
		return 1
	}
	return n
}

// Consume records n requests sent upstream, retries included.
func (b *Budget) Consume(n int) {
	b.Used += n
	b.Remaining -= n
	if b.Remaining < 0 {
		b.Remaining = 0
	}
}

// Exhausted reports whether either the local window or the upstream quota
// has nothing left.
func (b *Budget) Exhausted() bool {
	return b.Remaining <= 0 || b.Used >= b.PerSecond
}

// Refill starts a fresh local window. An upstream belief below one window's
// worth is raised to it, since the upstream window has rolled over as well.
// ObservedAt is kept so that responses older than the last accepted
// observation cannot overwrite the new window.
func (b *Budget) Refill() {
	b.Used = 0
	if b.Remaining < b.PerSecond {
		b.Remaining = b.PerSecond
	}
}

// IsStale returns true if the last observation is older than maxAge.
func (b *Budget) IsStale(maxAge time.Duration) bool {
	return time.Since(b.ObservedAt) > maxAge
}
