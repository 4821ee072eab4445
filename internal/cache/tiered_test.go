package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestTieredPromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2, _ := newTestRedis(t)
	l1 := NewMemory()
	c := NewTiered(l1, l2, time.Minute, zerolog.Nop())

	_ = l2.Set(ctx, "top_papers", []byte("shared"), time.Hour)

	got, err := c.Get(ctx, "top_papers")
	if err != nil || string(got) != "shared" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if !l1.Has("top_papers") {
		t.Fatal("L2 hit not promoted to L1")
	}
}

func TestTieredWritesAndInvalidatesBothTiers(t *testing.T) {
	ctx := context.Background()
	l2, mr := newTestRedis(t)
	l1 := NewMemory()
	c := NewTiered(l1, l2, time.Minute, zerolog.Nop())

	_ = c.Set(ctx, "CIVIL_paper_codes_{}", []byte("a"), 30*time.Minute)
	_ = c.Set(ctx, "MECH_paper_codes_{}", []byte("b"), 30*time.Minute)

	if !l1.Has("CIVIL_paper_codes_{}") || !mr.Exists("railji:CIVIL_paper_codes_{}") {
		t.Fatal("Set did not reach both tiers")
	}
	if ttl := mr.TTL("railji:CIVIL_paper_codes_{}"); ttl != 30*time.Minute {
		t.Fatalf("L2 ttl = %v, want 30m", ttl)
	}

	if _, err := c.DeleteByPrefix(ctx, "CIVIL_"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "CIVIL_paper_codes_{}"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get after prefix delete = %v", err)
	}
	if _, err := c.Get(ctx, "MECH_paper_codes_{}"); err != nil {
		t.Fatalf("unrelated department evicted: %v", err)
	}

	if _, err := c.DeletePattern(ctx, "_paper_codes_"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("railji:MECH_paper_codes_{}") || l1.Has("MECH_paper_codes_{}") {
		t.Fatal("pattern delete missed a tier")
	}
}

func TestTieredCapsL1TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l1 := NewMemory(WithClock(clock.Now))
	l2, _ := newTestRedis(t)
	c := NewTiered(l1, l2, time.Minute, zerolog.Nop())

	_ = c.Set(ctx, "k", []byte("v"), time.Hour)
	clock.Advance(2 * time.Minute)
	if l1.Has("k") {
		t.Fatal("L1 copy outlived the promote ttl")
	}
	if got, err := c.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Get via L2 = %q, %v", got, err)
	}
}

func TestTieredWithoutL2(t *testing.T) {
	ctx := context.Background()
	c := NewTiered(NewMemory(), nil, time.Minute, zerolog.Nop())

	_ = c.Set(ctx, "k", []byte("v"), time.Hour)
	if got, err := c.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if n, _ := c.DeleteByPrefix(ctx, "k"); n != 1 {
		t.Fatalf("DeleteByPrefix = %d", n)
	}
	if len(c.Stats(ctx)) != 1 {
		t.Fatal("expected only memory stats")
	}
}

func TestTieredDegradesWhenL2Down(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewTiered(NewMemory(), NewRedis(rdb, "railji"), time.Minute, zerolog.Nop())

	mr.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set must degrade, got %v", err)
	}
	if got, err := c.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Get from L1 = %q, %v", got, err)
	}
	if _, err := c.Get(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get on broken L2 = %v, want ErrMiss", err)
	}
}
