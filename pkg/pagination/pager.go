package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds pager configuration
type Config struct {
	// PageSize is the number of items requested per page (upstream maximum: 100)
	PageSize int
	// Timeout per page fetch. Zero means the caller's context alone bounds it.
	Timeout time.Duration
	// MaxPages stops the walk after this many requests. Zero means unbounded.
	MaxPages int
}

// DefaultConfig returns the configuration used for match-history listings
func DefaultConfig() Config {
	return Config{
		PageSize: 100,
	}
}

// PageFetcher fetches one page of identifiers starting at offset start
type PageFetcher interface {
	FetchPage(ctx context.Context, start, count int) ([]string, error)
}

// PageFetcherFunc adapts a function to PageFetcher
type PageFetcherFunc func(ctx context.Context, start, count int) ([]string, error)

// FetchPage calls f(ctx, start, count)
func (f PageFetcherFunc) FetchPage(ctx context.Context, start, count int) ([]string, error) {
	return f(ctx, start, count)
}

// Pager accumulates every page of an offset-paginated listing
type Pager struct {
	config Config
}

// NewPager creates a new pager
func NewPager(config Config) *Pager {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	return &Pager{config: config}
}

// PageSize returns the effective page size
func (p *Pager) PageSize() int {
	return p.config.PageSize
}

// FetchAll requests pages until one comes back shorter than the page size and
// returns the concatenation in listing order. Any page failure fails the walk.
func (p *Pager) FetchAll(ctx context.Context, fetcher PageFetcher) ([]string, error) {
	start := time.Now()
	var all []string

	for page := 0; ; page++ {
		if p.config.MaxPages > 0 && page >= p.config.MaxPages {
			log.Warn().
				Int("pages", page).
				Int("items", len(all)).
				Msg("Page limit reached, stopping listing")
			break
		}

		items, err := p.fetchPage(ctx, fetcher, len(all))
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", len(all), err)
		}
		all = append(all, items...)

		if len(items) < p.config.PageSize {
			log.Debug().
				Int("pages", page+1).
				Int("items", len(all)).
				Dur("duration", time.Since(start)).
				Msg("Listing complete")
			break
		}
	}

	return all, nil
}

func (p *Pager) fetchPage(ctx context.Context, fetcher PageFetcher, offset int) ([]string, error) {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}
	return fetcher.FetchPage(ctx, offset, p.config.PageSize)
}
