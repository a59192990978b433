package lol

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gruposillas/lol-activity/pkg/client"
)

// QueueRankedSolo is the queue type of the solo ranked ladder.
const QueueRankedSolo = "RANKED_SOLO_5x5"

// GetRankedStanding returns the player's solo-queue standing. ok is false,
// with a nil error, when the player has no ranked entry.
func (c *Client) GetRankedStanding(ctx context.Context, puuid string) (entry RankEntry, ok bool, err error) {
	summonerURL := c.buildURL(c.platformBase, "/lol/summoner/v4/summoners/by-puuid/"+url.PathEscape(puuid), nil)

	var summoner Summoner
	if err := c.getJSON(ctx, summonerURL, "summoner", &summoner); err != nil {
		return RankEntry{}, false, fmt.Errorf("resolve summoner id: %w", err)
	}
	if summoner.ID == "" {
		return RankEntry{}, false, fmt.Errorf("resolve summoner id: %w", client.NewSchemaError("summoner body has no id", nil))
	}

	entriesURL := c.buildURL(c.platformBase, "/lol/league/v4/entries/by-summoner/"+url.PathEscape(summoner.ID), nil)

	var entries []RankEntry
	if err := c.getJSON(ctx, entriesURL, "league entries", &entries); err != nil {
		return RankEntry{}, false, fmt.Errorf("fetch ranked entries: %w", err)
	}

	entry, ok = SelectSoloQueue(entries)
	return entry, ok, nil
}

// SelectSoloQueue picks the solo-queue entry; other queues are ignored.
func SelectSoloQueue(entries []RankEntry) (RankEntry, bool) {
	for _, e := range entries {
		if e.QueueType == QueueRankedSolo {
			return e, true
		}
	}
	return RankEntry{}, false
}
