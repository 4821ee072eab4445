// Package cache provides the key/value caches used to avoid recomputing
// catalog aggregations: an in-process TTL map, a Redis tier, and a tiered
// store combining both.
//
// Values are opaque byte slices. An entry stored with ttl <= 0 never expires;
// otherwise it is logically absent once now - storedAt > ttl. There is no size
// bound and no LRU eviction, so callers must keep key cardinality bounded.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is the contract shared by every cache tier.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key starting with prefix and reports how many were removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	// DeletePattern removes every key matching the regular expression pattern.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Clear(ctx context.Context) error
}

// Stats is a point-in-time snapshot of one tier.
type Stats struct {
	Tier    string `json:"tier"`
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Reporter is implemented by stores that can describe themselves.
type Reporter interface {
	Stats(ctx context.Context) []Stats
}
