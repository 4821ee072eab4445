package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
	"github.com/railji/railji-backend/internal/repository/memstore"
)

func seedPaper(t *testing.T, store *memstore.Store, code string) *model.Paper {
	t.Helper()
	p := &model.Paper{
		ID:        "paper-" + code,
		Type:      model.PaperTypeGeneral,
		PaperCode: &code,
		Name:      "Paper " + code,
		Year:      2024,
		Duration:  30,
	}
	if err := store.Papers().CreateWithQuestions(context.Background(), p, nil); err != nil {
		t.Fatal(err)
	}
	return p
}

func usersAttempted(t *testing.T, papers repository.PaperRepository, id string) int {
	t.Helper()
	p, err := papers.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return p.UsersAttempted
}

func TestAttemptStatsWorker(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := memstore.New()
	a := seedPaper(t, store, "A")
	b := seedPaper(t, store, "B")

	w := NewAttemptStatsWorker(store.Papers(), rdb, zerolog.Nop())
	ctx := context.Background()
	for _, id := range []string{a.ID, b.ID, a.ID, a.ID} {
		if err := w.RecordAttempt(ctx, id); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}
	if err := rdb.RPush(ctx, w.queue, "not json").Err(); err != nil {
		t.Fatal(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.Start(runCtx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for rdb.LLen(ctx, w.queue).Val() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("queue was not drained")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if got := usersAttempted(t, store.Papers(), a.ID); got != 3 {
		t.Errorf("paper A usersAttempted = %d, want 3", got)
	}
	if got := usersAttempted(t, store.Papers(), b.ID); got != 1 {
		t.Errorf("paper B usersAttempted = %d, want 1", got)
	}
}

type failingPapers struct {
	repository.PaperRepository
	fail map[string]bool
}

func (f *failingPapers) IncrementAttempts(ctx context.Context, counts map[string]int) error {
	for id := range counts {
		if f.fail[id] {
			return errors.New("database unavailable")
		}
	}
	return f.PaperRepository.IncrementAttempts(ctx, counts)
}

func TestAttemptStatsWorkerRequeuesFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := memstore.New()
	ok := seedPaper(t, store, "OK")
	bad := seedPaper(t, store, "BAD")

	papers := &failingPapers{PaperRepository: store.Papers(), fail: map[string]bool{bad.ID: true}}
	w := NewAttemptStatsWorker(papers, rdb, zerolog.Nop())

	w.flushSafe(context.Background(), []statsPayload{
		{PaperID: ok.ID}, {PaperID: bad.ID}, {PaperID: bad.ID}, {PaperID: ok.ID},
	})

	if got := usersAttempted(t, store.Papers(), ok.ID); got != 2 {
		t.Errorf("healthy paper usersAttempted = %d, want 2", got)
	}
	if got := rdb.LLen(context.Background(), w.queue).Val(); got != 2 {
		t.Errorf("requeued %d items, want 2", got)
	}
}

func TestDirectAttemptStats(t *testing.T) {
	store := memstore.New()
	p := seedPaper(t, store, "A")

	d := NewDirectAttemptStats(store.Papers())
	for i := 0; i < 2; i++ {
		if err := d.RecordAttempt(context.Background(), p.ID); err != nil {
			t.Fatal(err)
		}
	}
	if got := usersAttempted(t, store.Papers(), p.ID); got != 2 {
		t.Errorf("usersAttempted = %d, want 2", got)
	}
}

func TestAttemptTimeoutWorkerSweep(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	p := seedPaper(t, store, "A") // 30 minute paper

	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	attempts := store.Attempts()
	for _, id := range []string{"stale", "fresh", "done"} {
		begin := start
		if id == "fresh" {
			begin = start.Add(20 * time.Minute)
		}
		if err := attempts.Create(ctx, &model.ExamAttempt{
			AttemptID: id, UserID: "u", PaperID: p.ID, StartTime: begin, Status: model.AttemptInProgress,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if ok, err := attempts.Submit(ctx, "done", "u", &model.Submission{EndTime: start.Add(10 * time.Minute)}); err != nil || !ok {
		t.Fatalf("submit: %v %v", ok, err)
	}

	w := NewAttemptTimeoutWorker(attempts, 5*time.Minute, time.Minute, zerolog.Nop())
	w.now = func() time.Time { return start.Add(40 * time.Minute) }

	if n := w.sweep(ctx); n != 1 {
		t.Fatalf("expired %d attempts, want 1", n)
	}

	want := map[string]model.AttemptStatus{
		"stale": model.AttemptTimeout,
		"fresh": model.AttemptInProgress,
		"done":  model.AttemptSubmitted,
	}
	for id, status := range want {
		a, err := attempts.GetForUser(ctx, id, "u")
		if err != nil {
			t.Fatal(err)
		}
		if a.Status != status {
			t.Errorf("%s status = %s, want %s", id, a.Status, status)
		}
	}

	if n := w.sweep(ctx); n != 0 {
		t.Errorf("second sweep expired %d, want 0", n)
	}
}

func TestAttemptTimeoutWorkerDisabledInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, interval := range []time.Duration{0, -time.Second} {
		w := NewAttemptTimeoutWorker(memstore.New().Attempts(), time.Minute, interval, zerolog.Nop())

		done := make(chan struct{})
		go func() {
			defer close(done)
			w.Start(ctx)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("interval %v: Start did not return", interval)
		}
	}
}
