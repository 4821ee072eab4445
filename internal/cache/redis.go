package cache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scanCount     = 200
	deleteBatchSz = 100
)

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Redis is the shared cache tier. Every key is stored under "<namespace>:"
// so Clear and pattern deletes never touch keys owned by other services.
type Redis struct {
	rdb       *redis.Client
	namespace string

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedis creates a Redis tier scoped to namespace.
func NewRedis(rdb *redis.Client, namespace string) *Redis {
	return &Redis{rdb: rdb, namespace: namespace}
}

func (r *Redis) key(k string) string {
	return r.namespace + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		cacheRequests.WithLabelValues("redis", "miss").Inc()
		return nil, ErrMiss
	}
	if err != nil {
		cacheRequests.WithLabelValues("redis", "error").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	r.hits.Add(1)
	cacheRequests.WithLabelValues("redis", "hit").Inc()
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	return r.scanDelete(ctx, r.key(globEscaper.Replace(prefix))+"*", nil)
}

// DeletePattern scans the namespace and filters keys client-side, since
// Redis MATCH only understands glob syntax.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	ns := r.key("")
	return r.scanDelete(ctx, ns+"*", func(full string) bool {
		return re.MatchString(strings.TrimPrefix(full, ns))
	})
}

func (r *Redis) Clear(ctx context.Context) error {
	_, err := r.scanDelete(ctx, r.key("*"), nil)
	return err
}

func (r *Redis) Stats(ctx context.Context) []Stats {
	entries := 0
	iter := r.rdb.Scan(ctx, 0, r.key("*"), scanCount).Iterator()
	for iter.Next(ctx) {
		entries++
	}
	if iter.Err() != nil {
		entries = -1
	}
	return []Stats{{
		Tier:    "redis",
		Entries: entries,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
	}}
}

// scanDelete removes keys matching the glob match (and keep, when non-nil)
// using SCAN plus pipelined DEL batches.
func (r *Redis) scanDelete(ctx context.Context, match string, keep func(string) bool) (int, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, match, scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if keep == nil || keep(k) {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s: %w", match, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := r.rdb.Pipeline()
	for i := 0; i < len(keys); i += deleteBatchSz {
		end := min(i+deleteBatchSz, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis pipeline del: %w", err)
	}
	return len(keys), nil
}
