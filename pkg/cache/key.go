package cache

import (
	"strings"
)

// KindMatch is the key kind for match-detail bodies.
const KindMatch = "match"

// Key identifies a cached body.
type Key struct {
	// Kind is the resource type (e.g. "match")
	Kind string

	// Route is the routing value the resource was fetched through (e.g. "europe")
	Route string

	// ID is the upstream identifier (e.g. "EUW1_6543210")
	ID string
}

// MatchKey returns the key of a match-detail body.
func MatchKey(route, matchID string) Key {
	return Key{Kind: KindMatch, Route: route, ID: matchID}
}

// String generates a deterministic cache key string.
// Format: lol:kind:route:id
//
// Example:
//
//	lol:match:europe:EUW1_6543210
func (k Key) String() string {
	parts := []string{"lol"}

	// Kind and route are case-insensitive; upstream ids are not.
	if kind := strings.ToLower(strings.TrimSpace(k.Kind)); kind != "" {
		parts = append(parts, kind)
	}
	if route := strings.ToLower(strings.TrimSpace(k.Route)); route != "" {
		parts = append(parts, route)
	}
	if id := strings.TrimSpace(k.ID); id != "" {
		parts = append(parts, id)
	}

	return strings.Join(parts, ":")
}
