package lol

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/gruposillas/lol-activity/pkg/cache"
	"github.com/gruposillas/lol-activity/pkg/client"
	"golang.org/x/sync/errgroup"
)

// BuildActivityReport fetches every match concurrently and reduces them into
// one report for the player. It fails as a whole if any single fetch fails.
func (c *Client) BuildActivityReport(ctx context.Context, puuid string, matchIDs []string) (*ActivityReport, error) {
	summaries := make([]PlayerMatchSummary, len(matchIDs))

	// Plain Group: a failure must not cancel the siblings, they run to
	// completion and their results are discarded.
	var g errgroup.Group
	for i, id := range matchIDs {
		g.Go(func() error {
			summary, err := c.fetchMatchSummary(ctx, puuid, id)
			if err != nil {
				return err
			}
			summaries[i] = *summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build activity report: %w", err)
	}

	report := Reduce(summaries)

	c.logger.Debug().
		Int("games", report.Games()).
		Int("wins", report.Wins).
		Int("losses", report.Losses).
		Int64("duration_ms", report.TotalDurationMillis).
		Msg("Built activity report")

	return report, nil
}

// Reduce totals the summaries. The summaries slice is kept in order.
func Reduce(summaries []PlayerMatchSummary) *ActivityReport {
	report := &ActivityReport{Matches: summaries}
	if report.Matches == nil {
		report.Matches = []PlayerMatchSummary{}
	}

	for _, s := range summaries {
		report.TotalDurationMillis += s.DurationMillis
		if s.Participant.Win {
			report.Wins++
		}
	}
	report.Losses = len(summaries) - report.Wins

	return report
}

func (c *Client) fetchMatchSummary(ctx context.Context, puuid, matchID string) (*PlayerMatchSummary, error) {
	body, cached, err := c.matchBody(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}

	var detail MatchDetail
	if err := decode(body, "match detail", &detail); err != nil {
		return nil, fmt.Errorf("match %s: %w", matchID, err)
	}
	if !cached {
		c.storeMatchBody(ctx, matchID, body)
	}

	participant, ok := findParticipant(detail.Info.Participants, puuid)
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID,
			client.NewConsistencyError("player is not in the match roster"))
	}

	return &PlayerMatchSummary{
		MatchID:        matchID,
		GameID:         detail.Info.GameID,
		DurationMillis: detail.Info.GameDuration,
		Participant:    participant,
	}, nil
}

// matchBody returns the match-detail body, from the cache when possible.
// Cache failures are logged and treated as misses.
func (c *Client) matchBody(ctx context.Context, matchID string) (body []byte, cached bool, err error) {
	if c.config.Cache != nil {
		entry, err := c.config.Cache.Get(ctx, cache.MatchKey(c.config.Region, matchID))
		switch {
		case err == nil:
			c.logger.Debug().Str("match_id", matchID).Bool("cache_hit", true).Msg("Match detail from cache")
			return entry.Data, true, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("match_id", matchID).Msg("Cache read failed")
		}
	}

	rawURL := c.buildURL(c.regionBase, "/lol/match/v5/matches/"+url.PathEscape(matchID), nil)
	body, err = c.submitter.Submit(ctx, rawURL)
	if err != nil {
		return nil, false, err
	}
	return body, false, nil
}

// storeMatchBody caches a decoded match-detail body. Match details never
// change once a game has ended.
func (c *Client) storeMatchBody(ctx context.Context, matchID string, body []byte) {
	if c.config.Cache == nil {
		return
	}
	key := cache.MatchKey(c.config.Region, matchID)
	if err := c.config.Cache.Set(ctx, key, cache.NewEntry(body, c.config.CacheTTL)); err != nil {
		c.logger.Warn().Err(err).Str("match_id", matchID).Msg("Cache write failed")
	}
}

func findParticipant(participants []Participant, puuid string) (Participant, bool) {
	for _, p := range participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return Participant{}, false
}
