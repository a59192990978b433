package pagination

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeListing serves total identifiers in pages and records each request.
type fakeListing struct {
	total    int
	failAt   int
	requests []int
}

func (f *fakeListing) FetchPage(_ context.Context, start, count int) ([]string, error) {
	f.requests = append(f.requests, start)
	if f.failAt > 0 && len(f.requests) == f.failAt {
		return nil, errors.New("upstream unavailable")
	}

	var page []string
	for i := start; i < start+count && i < f.total; i++ {
		page = append(page, fmt.Sprintf("EUW1_%d", i))
	}
	return page, nil
}

func TestPager_FetchAll(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		pageSize       int
		expectRequests int
	}{
		{"empty listing", 0, 100, 1},
		{"single partial page", 12, 100, 1},
		{"exactly one full page", 100, 100, 2},
		{"two and a half pages", 250, 100, 3},
		{"small pages", 7, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := &fakeListing{total: tt.total}
			pager := NewPager(Config{PageSize: tt.pageSize})

			ids, err := pager.FetchAll(context.Background(), listing)
			require.NoError(t, err)
			assert.Len(t, ids, tt.total)
			assert.Len(t, listing.requests, tt.expectRequests, "floor(N/P)+1 requests")

			for i, id := range ids {
				require.Equal(t, fmt.Sprintf("EUW1_%d", i), id, "listing order")
			}
			for i, start := range listing.requests {
				assert.Equal(t, i*tt.pageSize, start, "request %d offset", i)
			}
		})
	}
}

func TestPager_FetchAll_PageError(t *testing.T) {
	listing := &fakeListing{total: 250, failAt: 2}
	pager := NewPager(DefaultConfig())

	ids, err := pager.FetchAll(context.Background(), listing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 100")
	assert.Nil(t, ids, "no partial listing on failure")
}

func TestPager_FetchAll_MaxPages(t *testing.T) {
	listing := &fakeListing{total: 1000}
	pager := NewPager(Config{PageSize: 100, MaxPages: 3})

	ids, err := pager.FetchAll(context.Background(), listing)
	require.NoError(t, err)
	assert.Len(t, ids, 300)
	assert.Len(t, listing.requests, 3)
}

func TestPager_FetchAll_PageTimeout(t *testing.T) {
	var deadlines []time.Duration
	f := PageFetcherFunc(func(ctx context.Context, _, _ int) ([]string, error) {
		deadline, ok := ctx.Deadline()
		require.True(t, ok, "page context carries the timeout")
		deadlines = append(deadlines, time.Until(deadline))
		return nil, nil
	})

	_, err := NewPager(Config{PageSize: 100, Timeout: time.Second}).FetchAll(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, deadlines, 1)
	assert.LessOrEqual(t, deadlines[0], time.Second)
}

func TestPageFetcherFunc(t *testing.T) {
	var gotStart, gotCount int
	f := PageFetcherFunc(func(_ context.Context, start, count int) ([]string, error) {
		gotStart, gotCount = start, count
		return nil, nil
	})

	_, err := NewPager(Config{PageSize: 50}).FetchAll(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 0, gotStart)
	assert.Equal(t, 50, gotCount)
}

func TestNewPager_DefaultsPageSize(t *testing.T) {
	assert.Equal(t, 100, NewPager(Config{}).PageSize())
}
