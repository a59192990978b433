package lol

// Summoner is the body of the summoner lookup endpoints.
type Summoner struct {
	ID    string `json:"id"`
	PUUID string `json:"puuid"`
	Name  string `json:"name"`
}

// Participant is one player's statistics within a match.
type Participant struct {
	PUUID        string `json:"puuid"`
	ChampionName string `json:"championName"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	Win          bool   `json:"win"`
}

// MatchDetail is the subset of the match-detail body the aggregator reads.
type MatchDetail struct {
	Metadata struct {
		MatchID string `json:"matchId"`
	} `json:"metadata"`
	Info struct {
		GameID       int64         `json:"gameId"`
		GameDuration int64         `json:"gameDuration"`
		Participants []Participant `json:"participants"`
	} `json:"info"`
}

// PlayerMatchSummary is one match seen from the requested player's side.
type PlayerMatchSummary struct {
	MatchID        string
	GameID         int64
	DurationMillis int64
	Participant    Participant
}

// ActivityReport aggregates a player's matches.
// Wins + Losses always equals len(Matches).
type ActivityReport struct {
	Matches             []PlayerMatchSummary
	Wins                int
	Losses              int
	TotalDurationMillis int64
}

// Games returns the number of matches in the report.
func (r *ActivityReport) Games() int {
	return len(r.Matches)
}

// RankEntry is a ranked-queue standing.
type RankEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Division     string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	LeagueID     string `json:"leagueId"`
}

// Activity is the combined result of an activity lookup.
type Activity struct {
	PlayerName string
	Days       int
	Ranked     bool
	Report     *ActivityReport

	// Rank is nil when Ranked is false or the player has no solo-queue entry.
	Rank *RankEntry
}

// HasRank reports whether a ranked lookup found a standing.
func (a *Activity) HasRank() bool {
	return a.Rank != nil
}
