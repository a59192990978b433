package lol

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Activity resolves the player and builds their activity over the last days
// days. When ranked is set, only ranked matches are listed and the solo-queue
// standing is fetched concurrently. Either branch failing fails the lookup.
func (c *Client) Activity(ctx context.Context, playerName string, days int, ranked bool) (*Activity, error) {
	start := time.Now()
	window := NewWindow(c.config.Now(), days, c.config.MaxDays)

	puuid, err := c.GetPlayerID(ctx, playerName)
	if err != nil {
		return nil, err
	}

	result := &Activity{
		PlayerName: playerName,
		Days:       window.Days,
		Ranked:     ranked,
	}

	var opts []ListOption
	if ranked {
		opts = append(opts, WithMatchType(MatchTypeRanked))
	}

	var g errgroup.Group

	g.Go(func() error {
		ids, err := c.ListRecentMatchIDs(ctx, puuid, window.Days, opts...)
		if err != nil {
			return err
		}
		report, err := c.BuildActivityReport(ctx, puuid, ids)
		if err != nil {
			return err
		}
		result.Report = report
		return nil
	})

	if ranked {
		g.Go(func() error {
			entry, ok, err := c.GetRankedStanding(ctx, puuid)
			if err != nil {
				return err
			}
			if ok {
				result.Rank = &entry
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("activity of %q: %w", playerName, err)
	}

	c.logger.Info().
		Str("player", playerName).
		Int("days", result.Days).
		Bool("ranked", ranked).
		Int("games", result.Report.Games()).
		Dur("duration", time.Since(start)).
		Msg("Activity lookup complete")

	return result, nil
}
