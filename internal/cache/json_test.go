package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type codes struct {
	General    []string `json:"general"`
	NonGeneral []string `json:"nonGeneral"`
}

func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	calls := 0
	producer := func(context.Context) (codes, error) {
		calls++
		return codes{General: []string{"G1"}, NonGeneral: []string{"C1"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrSet(ctx, m, "CIVIL_paper_codes_{}", time.Minute, producer)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.General) != 1 || got.NonGeneral[0] != "C1" {
			t.Fatalf("GetOrSet = %+v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("producer ran %d times, want 1", calls)
	}
}

func TestGetOrSetDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("db down")

	_, err := GetOrSet(ctx, m, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if m.Len() != 0 {
		t.Fatal("failed producer result was cached")
	}
}

func TestGetJSONDropsUndecodable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", []byte("{not json"), 0)

	_, ok, err := GetJSON[codes](ctx, m, "k")
	if err != nil || ok {
		t.Fatalf("GetJSON = ok %v, err %v; want clean miss", ok, err)
	}
	if m.Has("k") {
		t.Fatal("corrupt entry kept")
	}
}
