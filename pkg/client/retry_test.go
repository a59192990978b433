package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.Equal(t, 5, policy.MaxAttempts)
	assert.NotNil(t, policy.Sleep)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		expectOK   bool
		expectWait time.Duration
	}{
		{"429 with seconds", 429, "3", true, 3 * time.Second},
		{"429 with zero", 429, "0", true, 0},
		{"429 without header", 429, "", false, 0},
		{"429 with http date", 429, "Wed, 21 Oct 2015 07:28:00 GMT", false, 0},
		{"429 with negative", 429, "-1", false, 0},
		{"503 with header", 503, "5", false, 0},
		{"200", 200, "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.retryAfter != "" {
				headers.Set("Retry-After", tt.retryAfter)
			}

			wait, ok := RetryAfter(tt.status, headers)
			require.Equal(t, tt.expectOK, ok)
			assert.Equal(t, tt.expectWait, wait)
		})
	}
}

// recordingSleep records requested pauses without waiting.
type recordingSleep struct {
	pauses []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	r.pauses = append(r.pauses, d)
	return nil
}

func throttled(retryAfter string) outcome {
	h := http.Header{}
	if retryAfter != "" {
		h.Set("Retry-After", retryAfter)
	}
	return outcome{status: http.StatusTooManyRequests, header: h}
}

func TestRetryPolicy_Run(t *testing.T) {
	tests := []struct {
		name            string
		responses       []outcome
		expectCalls     int
		expectStatus    int
		expectExhausted bool
		expectPauses    int
	}{
		{
			name:         "success first try",
			responses:    []outcome{{status: 200}},
			expectCalls:  1,
			expectStatus: 200,
		},
		{
			name:         "throttled then success",
			responses:    []outcome{throttled("2"), throttled("1"), {status: 200}},
			expectCalls:  3,
			expectStatus: 200,
			expectPauses: 2,
		},
		{
			name:         "throttled without retry-after is terminal",
			responses:    []outcome{throttled("")},
			expectCalls:  1,
			expectStatus: 429,
		},
		{
			name:         "server error is terminal",
			responses:    []outcome{{status: 500}},
			expectCalls:  1,
			expectStatus: 500,
		},
		{
			name: "always throttled exhausts after five attempts",
			responses: []outcome{
				throttled("1"), throttled("1"), throttled("1"), throttled("1"),
				throttled("1"), throttled("1"), throttled("1"),
			},
			expectCalls:     5,
			expectStatus:    429,
			expectExhausted: true,
			expectPauses:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingSleep{}
			policy := RetryPolicy{MaxAttempts: 5, Sleep: rec.sleep}

			calls := 0
			last, attempts, exhausted := policy.run(context.Background(), "/test", zerolog.Nop(), func(attempt int) outcome {
				calls++
				assert.Equal(t, calls, attempt)
				return tt.responses[calls-1]
			})

			assert.Equal(t, tt.expectCalls, calls, "calls")
			assert.Equal(t, tt.expectCalls, attempts, "attempts")
			assert.Equal(t, tt.expectStatus, last.status)
			assert.Equal(t, tt.expectExhausted, exhausted)
			assert.Len(t, rec.pauses, tt.expectPauses)
		})
	}
}

func TestRetryPolicy_Run_HonoursRetryAfterValue(t *testing.T) {
	rec := &recordingSleep{}
	policy := RetryPolicy{MaxAttempts: 5, Sleep: rec.sleep}

	responses := []outcome{throttled("7"), {status: 200}}
	calls := 0
	policy.run(context.Background(), "/test", zerolog.Nop(), func(int) outcome {
		calls++
		return responses[calls-1]
	})

	assert.Equal(t, []time.Duration{7 * time.Second}, rec.pauses)
}

func TestRetryPolicy_Run_StopsWhenSleepCancelled(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}

	calls := 0
	last, attempts, exhausted := policy.run(context.Background(), "/test", zerolog.Nop(), func(int) outcome {
		calls++
		return throttled("1")
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
	assert.False(t, exhausted, "not exhausted on cancellation")
	assert.Equal(t, 429, last.status)
}

func TestSleepContext(t *testing.T) {
	t.Run("completes", func(t *testing.T) {
		assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	})
}
