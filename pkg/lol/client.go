// Package lol is the upstream game-statistics API client: player lookup,
// match-history listing, activity aggregation and ranked standing. Every call
// goes through a Submitter, normally the rate-controlled dispatcher.
package lol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gruposillas/lol-activity/pkg/cache"
	"github.com/gruposillas/lol-activity/pkg/client"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/gruposillas/lol-activity/pkg/pagination"
	"github.com/rs/zerolog"
)

// MaxDays is the hard ceiling of the activity window.
const MaxDays = 7

// Submitter performs a GET and returns the body of a 2xx response.
// *client.Dispatcher implements it.
type Submitter interface {
	Submit(ctx context.Context, rawURL string) ([]byte, error)
}

// Config holds the API client configuration.
type Config struct {
	// APIKey is appended to every request as the api_key query parameter.
	APIKey string

	// Platform routing value for summoner and league endpoints (e.g. "euw1").
	Platform string

	// Region routing value for match endpoints (e.g. "europe").
	Region string

	// Base URL overrides. Empty means https://<routing>.api.riotgames.com.
	PlatformBaseURL string
	RegionBaseURL   string

	// MaxDays caps the requested window. Values outside [1, 7] mean 7.
	MaxDays int

	// PageSize of the match-id listing (upstream maximum: 100).
	PageSize int

	// MaxPages caps the match-id listing. Zero means unbounded.
	MaxPages int

	// PageTimeout bounds one listing page, queueing in the dispatcher
	// included. Zero means the caller's context alone bounds it.
	PageTimeout time.Duration

	// Cache stores match-detail bodies. Optional.
	Cache    cache.Store
	CacheTTL time.Duration

	// Now returns the current time (for testing).
	Now func() time.Time
}

// DefaultConfig returns the configuration for the EUW platform.
func DefaultConfig() Config {
	return Config{
		Platform: "euw1",
		Region:   "europe",
		MaxDays:  MaxDays,
		PageSize:    100,
		MaxPages:    20,
		PageTimeout: time.Minute,
		CacheTTL:    24 * time.Hour,
	}
}

// Client calls the upstream API through a Submitter.
type Client struct {
	submitter    Submitter
	config       Config
	platformBase string
	regionBase   string
	pager        *pagination.Pager
	logger       zerolog.Logger
}

// New creates a new API client.
func New(submitter Submitter, cfg Config) (*Client, error) {
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Platform == "" && cfg.PlatformBaseURL == "" {
		return nil, fmt.Errorf("platform routing value is required")
	}
	if cfg.Region == "" && cfg.RegionBaseURL == "" {
		return nil, fmt.Errorf("region routing value is required")
	}
	if cfg.MaxDays <= 0 || cfg.MaxDays > MaxDays {
		cfg.MaxDays = MaxDays
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	pager := pagination.NewPager(pagination.Config{
		PageSize: cfg.PageSize,
		Timeout:  cfg.PageTimeout,
		MaxPages: cfg.MaxPages,
	})

	c := &Client{
		submitter:    submitter,
		config:       cfg,
		platformBase: baseURL(cfg.PlatformBaseURL, cfg.Platform),
		regionBase:   baseURL(cfg.RegionBaseURL, cfg.Region),
		pager:        pager,
		logger:       logging.NewLogger("lol"),
	}
	return c, nil
}

// Platform returns the platform routing value.
func (c *Client) Platform() string {
	return c.config.Platform
}

// MaxDays returns the effective day-window cap.
func (c *Client) MaxDays() int {
	return c.config.MaxDays
}

func baseURL(override, routing string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", routing)
}

// buildURL joins base and path and appends query plus the API key.
func (c *Client) buildURL(base, path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.config.APIKey)
	return base + path + "?" + query.Encode()
}

// getJSON submits a GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, rawURL, what string, v any) error {
	body, err := c.submitter.Submit(ctx, rawURL)
	if err != nil {
		return err
	}
	return decode(body, what, v)
}

func decode(body []byte, what string, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return client.NewSchemaError(fmt.Sprintf("decode %s", what), err)
	}
	return nil
}

// GetPlayerID resolves a player name to its player identifier (puuid).
func (c *Client) GetPlayerID(ctx context.Context, name string) (string, error) {
	summoner, err := c.summonerByName(ctx, name)
	if err != nil {
		return "", err
	}
	return summoner.PUUID, nil
}

func (c *Client) summonerByName(ctx context.Context, name string) (*Summoner, error) {
	rawURL := c.buildURL(c.platformBase, "/lol/summoner/v4/summoners/by-name/"+url.PathEscape(name), nil)

	var summoner Summoner
	if err := c.getJSON(ctx, rawURL, "summoner", &summoner); err != nil {
		return nil, fmt.Errorf("lookup player %q: %w", name, err)
	}
	if summoner.PUUID == "" {
		return nil, fmt.Errorf("lookup player %q: %w", name, client.NewSchemaError("summoner body has no puuid", nil))
	}
	return &summoner, nil
}
