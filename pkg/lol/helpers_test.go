package lol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/stretchr/testify/require"
)

// fakeSubmitter answers by URL path and records every submitted URL.
type fakeSubmitter struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	urls      []*url.URL
}

type fakeResponse struct {
	body any
	err  error
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{responses: map[string]fakeResponse{}}
}

func (f *fakeSubmitter) on(path string, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = fakeResponse{body: body}
}

func (f *fakeSubmitter) fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = fakeResponse{err: err}
}

func (f *fakeSubmitter) Submit(_ context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.urls = append(f.urls, u)
	resp, ok := f.responses[u.Path]
	f.mu.Unlock()

	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, ErrorClass: client.ErrorClassNotFound, Message: "GET " + u.Path}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	if raw, isRaw := resp.body.(string); isRaw {
		return []byte(raw), nil
	}
	return json.Marshal(resp.body)
}

func (f *fakeSubmitter) calls(prefix string) []*url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*url.URL
	for _, u := range f.urls {
		if len(u.Path) >= len(prefix) && u.Path[:len(prefix)] == prefix {
			out = append(out, u)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, sub Submitter) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.PlatformBaseURL = "http://platform.test"
	cfg.RegionBaseURL = "http://region.test"
	cfg.Now = func() time.Time { return fixedNow }

	c, err := New(sub, cfg)
	require.NoError(t, err)
	return c
}

// matchBody builds a match-detail body with the given roster.
func matchBody(id string, gameID, durationMillis int64, participants ...Participant) map[string]any {
	return map[string]any{
		"metadata": map[string]any{"matchId": id},
		"info": map[string]any{
			"gameId":       gameID,
			"gameDuration": durationMillis,
			"participants": participants,
		},
	}
}

func matchIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("EUW1_%d", 1000+i)
	}
	return ids
}
