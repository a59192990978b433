package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{
			name:    "expired entry",
			expires: time.Now().Add(-1 * time.Hour),
			want:    true,
		},
		{
			name:    "valid entry",
			expires: time.Now().Add(1 * time.Hour),
			want:    false,
		},
		{
			name:    "just expired",
			expires: time.Now().Add(-1 * time.Second),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{
				Expires: tt.expires,
			}
			assert.Equal(t, tt.want, entry.IsExpired())
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	expired := &Entry{Expires: time.Now().Add(-time.Minute)}
	assert.Zero(t, expired.TTL(), "expired entry")

	fresh := NewEntry([]byte("{}"), time.Hour)
	assert.InDelta(t, float64(time.Hour), float64(fresh.TTL()), float64(time.Minute))
	assert.False(t, fresh.CachedAt.IsZero(), "CachedAt set")
}
