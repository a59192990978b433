// Package report renders activity lookups as chat-ready text.
package report

import (
	"fmt"
	"strings"

	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/gruposillas/lol-activity/pkg/lol"
)

// MaxMatchLines is the number of per-match lines appended to a report.
const MaxMatchLines = 10

// MatchURLBase is the match-history site linked from each match line.
const MatchURLBase = "https://www.leagueofgraphs.com/match"

// Render formats an activity lookup. platform selects the match-link prefix
// (e.g. "euw1" links to /match/euw/).
func Render(a *lol.Activity, platform string) string {
	if a.Ranked && !a.HasRank() {
		return fmt.Sprintf("%s has not played any ranked games.", a.PlayerName)
	}

	var b strings.Builder

	b.WriteString(a.PlayerName)
	if a.HasRank() {
		fmt.Fprintf(&b, " (%s %s, %d points)", a.Rank.Division, a.Rank.Tier, a.Rank.LeaguePoints)
	}

	report := a.Report
	if report == nil {
		report = lol.Reduce(nil)
	}

	fmt.Fprintf(&b, " has played for %s over %d days\n", PlayedFor(report.TotalDurationMillis), a.Days)
	fmt.Fprintf(&b, "They won %d games and lost %d\n", report.Wins, report.Losses)

	for i, m := range report.Matches {
		if i == MaxMatchLines {
			break
		}
		b.WriteString(MatchLine(m, platform))
		b.WriteString("\n")
	}

	return b.String()
}

// PlayedFor formats a duration in milliseconds as "H hours and M minutes".
func PlayedFor(millis int64) string {
	minutes := millis / 1000 / 60
	return fmt.Sprintf("%d hours and %d minutes", minutes/60, minutes%60)
}

// MatchLine formats one match: "[Champion] K/D/A (Win|Loss) <link>".
func MatchLine(m lol.PlayerMatchSummary, platform string) string {
	outcome := "Loss"
	if m.Participant.Win {
		outcome = "Win"
	}

	p := m.Participant
	return fmt.Sprintf("[%s] %d/%d/%d (%s) <%s>",
		p.ChampionName, p.Kills, p.Deaths, p.Assists, outcome, MatchURL(platform, m.GameID))
}

// MatchURL links a game on the match-history site.
func MatchURL(platform string, gameID int64) string {
	return fmt.Sprintf("%s/%s/%d#participant1", MatchURLBase, sitePrefix(platform), gameID)
}

// sitePrefix maps a platform routing value to the site's region prefix:
// digits are dropped (euw1 -> euw, na1 -> na, kr -> kr).
func sitePrefix(platform string) string {
	p := strings.ToLower(strings.TrimRight(platform, "0123456789"))
	if p == "" {
		return "euw"
	}
	return p
}

// ErrorMessage turns a lookup failure into text for the requesting user.
func ErrorMessage(err error, playerName string) string {
	switch {
	case client.IsThrottled(err):
		return "Too many requests right now, please try again in a minute."
	case client.IsNotFound(err):
		return fmt.Sprintf("Could not find a player called %s.", playerName)
	default:
		return "Something went wrong while fetching match history."
	}
}
