package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/repository"
)

const (
	StatsBatchSize    = 100
	StatsBatchTimeout = 2 * time.Second
	StatsPollTimeout  = 1 * time.Second
)

// AttemptStatsWorker maintains papers.usersAttempted off the submit path.
// Submits push the paper id onto a Redis list; the worker pops, batches and
// applies the increments in one statement.
type AttemptStatsWorker struct {
	papers repository.PaperRepository
	rdb    *redis.Client
	queue  string
	log    zerolog.Logger
}

func NewAttemptStatsWorker(papers repository.PaperRepository, rdb *redis.Client, log zerolog.Logger) *AttemptStatsWorker {
	return &AttemptStatsWorker{
		papers: papers,
		rdb:    rdb,
		queue:  config.WorkerKey.AttemptStatsQueue,
		log:    log.With().Str("component", "attempt_stats_worker").Logger(),
	}
}

type statsPayload struct {
	PaperID string `json:"paper_id"`
}

// RecordAttempt enqueues one attempt for paperID.
func (w *AttemptStatsWorker) RecordAttempt(ctx context.Context, paperID string) error {
	raw, err := json.Marshal(statsPayload{PaperID: paperID})
	if err != nil {
		return err
	}
	return w.rdb.RPush(ctx, w.queue, raw).Err()
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds. Call in a goroutine.
func (w *AttemptStatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptStatsWorker started")

	batch := make([]statsPayload, 0, StatsBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= StatsBatchSize || time.Since(lastFlush) >= StatsBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested, flushing remaining batch")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatsPollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(StatsPollTimeout)
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var p statsPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil || p.PaperID == "" {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid stats payload")
				continue
			}
			batch = append(batch, p)
		}
	}
}

// ----------------------------------------------------------------
// Batch increment with per-paper fallback
// ----------------------------------------------------------------

func (w *AttemptStatsWorker) flushSafe(ctx context.Context, batch []statsPayload) {
	if len(batch) == 0 {
		return
	}

	counts := make(map[string]int, len(batch))
	for _, p := range batch {
		counts[p.PaperID]++
	}

	err := w.papers.IncrementAttempts(ctx, counts)
	if err == nil {
		w.log.Debug().Int("items", len(batch)).Int("papers", len(counts)).Msg("Attempt stats flushed")
		return
	}
	w.log.Warn().Err(err).Msg("Bulk attempt increment failed, using fallback")

	for paperID, n := range counts {
		if err := w.papers.IncrementAttempts(ctx, map[string]int{paperID: n}); err != nil {
			w.log.Error().Err(err).Str("paper_id", paperID).Msg("Increment failed, requeueing")
			w.requeue(ctx, paperID, n)
		}
	}
}

func (w *AttemptStatsWorker) requeue(ctx context.Context, paperID string, n int) {
	raw, _ := json.Marshal(statsPayload{PaperID: paperID})
	values := make([]any, n)
	for i := range values {
		values[i] = raw
	}
	if err := w.rdb.RPush(ctx, w.queue, values...).Err(); err != nil {
		w.log.Error().Err(err).Str("paper_id", paperID).Int("lost", n).Msg("Requeue failed")
	}
}

// DirectAttemptStats applies increments inline. It is used when no Redis is
// configured.
type DirectAttemptStats struct {
	papers repository.PaperRepository
}

func NewDirectAttemptStats(papers repository.PaperRepository) *DirectAttemptStats {
	return &DirectAttemptStats{papers: papers}
}

func (d *DirectAttemptStats) RecordAttempt(ctx context.Context, paperID string) error {
	return d.papers.IncrementAttempts(ctx, map[string]int{paperID: 1})
}
