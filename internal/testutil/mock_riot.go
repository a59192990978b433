// Package testutil provides testing utilities for the game-statistics API client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Player is a summoner known to the mock server.
type Player struct {
	Name       string
	PUUID      string
	SummonerID string
}

// Participant is one roster entry of a mock match.
type Participant struct {
	PUUID        string
	ChampionName string
	Kills        int
	Deaths       int
	Assists      int
	Win          bool
}

// Match is a mock match detail.
type Match struct {
	ID             string
	GameID         int64
	DurationMillis int64
	Ranked         bool
	Participants   []Participant
}

// LeagueEntry is a mock ranked-queue entry.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	LeagueID     string `json:"leagueId"`
}

// MockRiot is a configurable mock of the upstream API serving both the
// platform and the regional routes from one server.
type MockRiot struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	players     map[string]Player
	matchIDs    map[string][]string
	matches     map[string]Match
	leagues     map[string][]LeagueEntry
	rateHeaders bool
	remaining   int

	// Tracking
	RequestCount int
	pathCounts   map[string]int
	listQueries  []map[string]string
	apiKeys      map[string]bool
}

// NewMockRiot creates a new mock server.
func NewMockRiot() *MockRiot {
	mock := &MockRiot{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		players:    make(map[string]Player),
		matchIDs:   make(map[string][]string),
		matches:    make(map[string]Match),
		leagues:    make(map[string][]LeagueEntry),
		pathCounts: make(map[string]int),
		apiKeys:    make(map[string]bool),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.pathCounts[r.URL.Path]++
		mock.apiKeys[r.URL.Query().Get("api_key")] = true
		handler, exists := mock.handlers[r.URL.Path]
		if mock.rateHeaders {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(mock.remaining))
		}
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockRiot) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockRiot) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockRiot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.pathCounts = make(map[string]int)
	m.listQueries = nil
	m.apiKeys = make(map[string]bool)
}

// AddPlayer registers a summoner.
func (m *MockRiot) AddPlayer(p Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.Name] = p
}

// AddMatch registers a match and appends it to every participant's history.
// Histories are listed in the order matches were added.
func (m *MockRiot) AddMatch(match Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = match
	for _, p := range match.Participants {
		m.matchIDs[p.PUUID] = append(m.matchIDs[p.PUUID], match.ID)
	}
}

// SetMatchHistory replaces the listed match ids of a player without
// registering match details.
func (m *MockRiot) SetMatchHistory(puuid string, ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchIDs[puuid] = ids
}

// ListedIDs returns a copy of the match ids listed for a player.
func (m *MockRiot) ListedIDs(puuid string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.matchIDs[puuid]...)
}

// SetLeagueEntries configures the ranked entries of a summoner id.
func (m *MockRiot) SetLeagueEntries(summonerID string, entries []LeagueEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leagues[summonerID] = entries
}

// SetRateLimitRemaining makes every response carry X-RateLimit-Remaining.
func (m *MockRiot) SetRateLimitRemaining(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateHeaders = true
	m.remaining = remaining
}

// SetHandler sets a custom handler for a specific path.
func (m *MockRiot) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockRiot) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockRiot) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// PathCount returns the number of requests whose path starts with prefix.
func (m *MockRiot) PathCount(prefix string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for path, n := range m.pathCounts {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

// ListQueries returns the query parameters of every match-id listing request.
func (m *MockRiot) ListQueries() []map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]string(nil), m.listQueries...)
}

// SawAPIKey reports whether any request carried the given api_key.
func (m *MockRiot) SawAPIKey(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiKeys[key]
}

// defaultHandler routes the upstream endpoint shapes to the registered fixtures.
func (m *MockRiot) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/lol/summoner/v4/summoners/by-name/"):
		m.servePlayer(w, func(p Player) bool {
			return p.Name == strings.TrimPrefix(path, "/lol/summoner/v4/summoners/by-name/")
		})

	case strings.HasPrefix(path, "/lol/summoner/v4/summoners/by-puuid/"):
		m.servePlayer(w, func(p Player) bool {
			return p.PUUID == strings.TrimPrefix(path, "/lol/summoner/v4/summoners/by-puuid/")
		})

	case strings.HasPrefix(path, "/lol/match/v5/matches/by-puuid/") && strings.HasSuffix(path, "/ids"):
		puuid := strings.TrimSuffix(strings.TrimPrefix(path, "/lol/match/v5/matches/by-puuid/"), "/ids")
		m.serveMatchIDs(w, r, puuid)

	case strings.HasPrefix(path, "/lol/match/v5/matches/"):
		m.serveMatch(w, strings.TrimPrefix(path, "/lol/match/v5/matches/"))

	case strings.HasPrefix(path, "/lol/league/v4/entries/by-summoner/"):
		m.mu.RLock()
		entries := m.leagues[strings.TrimPrefix(path, "/lol/league/v4/entries/by-summoner/")]
		m.mu.RUnlock()
		if entries == nil {
			entries = []LeagueEntry{}
		}
		writeJSON(w, entries)

	default:
		notFound(w)
	}
}

func (m *MockRiot) servePlayer(w http.ResponseWriter, match func(Player) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.players {
		if match(p) {
			writeJSON(w, map[string]any{
				"id":            p.SummonerID,
				"puuid":         p.PUUID,
				"name":          p.Name,
				"summonerLevel": 30,
			})
			return
		}
	}
	notFound(w)
}

func (m *MockRiot) serveMatchIDs(w http.ResponseWriter, r *http.Request, puuid string) {
	q := r.URL.Query()
	query := map[string]string{}
	for key := range q {
		query[key] = q.Get(key)
	}

	m.mu.Lock()
	m.listQueries = append(m.listQueries, query)
	ids := m.matchIDs[puuid]
	if q.Get("type") == "ranked" {
		var ranked []string
		for _, id := range ids {
			if m.matches[id].Ranked {
				ranked = append(ranked, id)
			}
		}
		ids = ranked
	}
	m.mu.Unlock()

	start, _ := strconv.Atoi(q.Get("start"))
	count, err := strconv.Atoi(q.Get("count"))
	if err != nil {
		count = 20
	}

	page := []string{}
	for i := start; i < start+count && i < len(ids); i++ {
		page = append(page, ids[i])
	}
	writeJSON(w, page)
}

func (m *MockRiot) serveMatch(w http.ResponseWriter, id string) {
	m.mu.RLock()
	match, ok := m.matches[id]
	m.mu.RUnlock()
	if !ok {
		notFound(w)
		return
	}

	participants := make([]map[string]any, 0, len(match.Participants))
	for _, p := range match.Participants {
		participants = append(participants, map[string]any{
			"puuid":        p.PUUID,
			"championName": p.ChampionName,
			"kills":        p.Kills,
			"deaths":       p.Deaths,
			"assists":      p.Assists,
			"win":          p.Win,
		})
	}

	writeJSON(w, map[string]any{
		"metadata": map[string]any{"matchId": match.ID},
		"info": map[string]any{
			"gameId":       match.GameID,
			"gameDuration": match.DurationMillis,
			"participants": participants,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"status":{"message":"Data not found","status_code":404}}`)
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter string) MockResponse {
	resp := MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status":{"message":"Rate limit exceeded","status_code":429}}`,
		Headers: map[string]string{
			"Content-Type": "application/json;charset=utf-8",
		},
	}
	if retryAfter != "" {
		resp.Headers["Retry-After"] = retryAfter
	}
	return resp
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status":{"message":"Internal server error","status_code":500}}`,
		Headers: map[string]string{
			"Content-Type": "application/json;charset=utf-8",
		},
	}
}
