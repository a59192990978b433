package lol

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gruposillas/lol-activity/pkg/pagination"
)

// MatchTypeRanked restricts a listing to ranked matches.
const MatchTypeRanked = "ranked"

type listOptions struct {
	matchType string
}

// ListOption configures ListRecentMatchIDs.
type ListOption func(*listOptions)

// WithMatchType restricts the listing to one match type (e.g. "ranked").
func WithMatchType(matchType string) ListOption {
	return func(o *listOptions) {
		o.matchType = matchType
	}
}

// ListRecentMatchIDs returns the ids of the player's matches over the last
// days days (capped at MaxDays), in listing order. A window of zero days
// returns an empty list without calling upstream.
func (c *Client) ListRecentMatchIDs(ctx context.Context, puuid string, days int, opts ...ListOption) ([]string, error) {
	var o listOptions
	for _, opt := range opts {
		opt(&o)
	}

	window := NewWindow(c.config.Now(), days, c.config.MaxDays)
	if window.Empty() {
		return []string{}, nil
	}

	fetcher := pagination.PageFetcherFunc(func(ctx context.Context, start, count int) ([]string, error) {
		return c.fetchMatchIDPage(ctx, puuid, window, o, start, count)
	})

	ids, err := c.pager.FetchAll(ctx, fetcher)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}

	c.logger.Debug().
		Int("days", window.Days).
		Str("type", o.matchType).
		Int("matches", len(ids)).
		Msg("Listed recent matches")

	return ids, nil
}

func (c *Client) fetchMatchIDPage(ctx context.Context, puuid string, window Window, o listOptions, start, count int) ([]string, error) {
	query := url.Values{}
	query.Set("count", strconv.Itoa(count))
	query.Set("start", strconv.Itoa(start))
	query.Set("startTime", strconv.FormatInt(window.Start.Unix(), 10))
	query.Set("endTime", strconv.FormatInt(window.End.Unix(), 10))
	if o.matchType != "" {
		query.Set("type", o.matchType)
	}

	rawURL := c.buildURL(c.regionBase, "/lol/match/v5/matches/by-puuid/"+url.PathEscape(puuid)+"/ids", query)

	var page []string
	if err := c.getJSON(ctx, rawURL, "match id page", &page); err != nil {
		return nil, err
	}
	return page, nil
}
