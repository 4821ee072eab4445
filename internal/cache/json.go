package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetJSON decodes the value stored at key into a T. The boolean is false on
// a miss. A value that no longer decodes is dropped and reported as a miss.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var out T
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		_ = s.Delete(ctx, key)
		return out, false, nil
	}
	return out, true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// GetOrSet returns the cached value at key or computes it with producer and
// stores it. Concurrent misses may each run producer; the last write wins.
// Producer errors are returned and nothing is cached.
func GetOrSet[T any](ctx context.Context, s Store, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	if v, ok, err := GetJSON[T](ctx, s, key); err == nil && ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		return v, err
	}
	_ = SetJSON(ctx, s, key, v, ttl)
	return v, nil
}
