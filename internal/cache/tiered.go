package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Tiered fronts an optional shared tier (L2) with an in-process tier (L1).
// Reads try L1, then L2, promoting L2 hits into L1 for at most promoteTTL.
// Writes and deletes go to both tiers. An unavailable L2 degrades to L1-only
// behaviour instead of failing the caller.
type Tiered struct {
	l1         *Memory
	l2         Store
	promoteTTL time.Duration
	log        zerolog.Logger
}

// NewTiered builds a tiered cache. l2 may be nil.
func NewTiered(l1 *Memory, l2 Store, promoteTTL time.Duration, log zerolog.Logger) *Tiered {
	return &Tiered{
		l1:         l1,
		l2:         l2,
		promoteTTL: promoteTTL,
		log:        log.With().Str("component", "cache").Logger(),
	}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := t.l1.Get(ctx, key); err == nil {
		return val, nil
	}
	if t.l2 == nil {
		return nil, ErrMiss
	}

	val, err := t.l2.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			t.log.Warn().Err(err).Str("key", key).Msg("L2 read failed, treating as miss")
		}
		return nil, ErrMiss
	}

	_ = t.l1.Set(ctx, key, val, t.promoteTTL)
	return val, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = t.l1.Set(ctx, key, value, t.l1TTL(ttl))
	if t.l2 == nil {
		return nil
	}
	if err := t.l2.Set(ctx, key, value, ttl); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("L2 write failed")
	}
	return nil
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l1.Delete(ctx, key)
	if t.l2 == nil {
		return nil
	}
	return t.l2.Delete(ctx, key)
}

func (t *Tiered) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	n, _ := t.l1.DeleteByPrefix(ctx, prefix)
	if t.l2 == nil {
		return n, nil
	}
	m, err := t.l2.DeleteByPrefix(ctx, prefix)
	return max(n, m), err
}

func (t *Tiered) DeletePattern(ctx context.Context, pattern string) (int, error) {
	n, err := t.l1.DeletePattern(ctx, pattern)
	if err != nil || t.l2 == nil {
		return n, err
	}
	m, err := t.l2.DeletePattern(ctx, pattern)
	return max(n, m), err
}

func (t *Tiered) Clear(ctx context.Context) error {
	_ = t.l1.Clear(ctx)
	if t.l2 == nil {
		return nil
	}
	return t.l2.Clear(ctx)
}

func (t *Tiered) Stats(ctx context.Context) []Stats {
	stats := t.l1.Stats(ctx)
	if r, ok := t.l2.(Reporter); ok {
		stats = append(stats, r.Stats(ctx)...)
	}
	return stats
}

// l1TTL caps the local copy when a shared tier exists, since other
// processes cannot invalidate this process's L1.
func (t *Tiered) l1TTL(ttl time.Duration) time.Duration {
	if t.l2 == nil || t.promoteTTL <= 0 {
		return ttl
	}
	if ttl <= 0 || ttl > t.promoteTTL {
		return t.promoteTTL
	}
	return ttl
}
