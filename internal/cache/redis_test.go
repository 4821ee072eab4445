package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "railji"), mr
}

func TestRedisRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	if err := r.Set(ctx, "top_papers", []byte(`[1,2]`), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("railji:top_papers") {
		t.Fatal("key not stored under namespace")
	}

	got, err := r.Get(ctx, "top_papers")
	if err != nil || string(got) != `[1,2]` {
		t.Fatalf("Get = %q, %v", got, err)
	}

	mr.FastForward(time.Minute + time.Second)
	if _, err := r.Get(ctx, "top_papers"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get after ttl: %v, want ErrMiss", err)
	}
}

func TestRedisZeroTTLPersists(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	_ = r.Set(ctx, "all_departments", []byte("x"), 0)
	if ttl := mr.TTL("railji:all_departments"); ttl != 0 {
		t.Fatalf("TTL = %v, want none", ttl)
	}
}

func TestRedisDeletes(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	for _, k := range []string{"CIVIL_paper_codes_{}", "CIVIL_materials", "MECH_paper_codes_{}", "top_papers"} {
		_ = r.Set(ctx, k, []byte("x"), 0)
	}
	_ = mr.Set("other-service:CIVIL_x", "keep")

	n, err := r.DeleteByPrefix(ctx, "CIVIL_")
	if err != nil || n != 2 {
		t.Fatalf("DeleteByPrefix = %d, %v; want 2", n, err)
	}
	if !mr.Exists("railji:MECH_paper_codes_{}") {
		t.Fatal("prefix delete crossed departments")
	}

	n, err = r.DeletePattern(ctx, "_paper_codes_")
	if err != nil || n != 1 {
		t.Fatalf("DeletePattern = %d, %v; want 1", n, err)
	}

	if err := r.Delete(ctx, "top_papers"); err != nil {
		t.Fatal(err)
	}

	_ = r.Set(ctx, "a", []byte("1"), 0)
	if err := r.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("railji:a") {
		t.Fatal("Clear left namespaced keys")
	}
	if !mr.Exists("other-service:CIVIL_x") {
		t.Fatal("Clear removed keys outside the namespace")
	}
}

func TestRedisStats(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)

	_ = r.Set(ctx, "a", []byte("1"), 0)
	_ = r.Set(ctx, "b", []byte("2"), 0)
	_, _ = r.Get(ctx, "a")
	_, _ = r.Get(ctx, "zzz")

	s := r.Stats(ctx)[0]
	if s.Entries != 2 || s.Hits != 1 || s.Misses != 1 {
		t.Fatalf("Stats = %+v", s)
	}
}
