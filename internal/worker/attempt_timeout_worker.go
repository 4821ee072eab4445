package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/repository"
)

// AttemptTimeoutWorker moves attempts that outlived their paper's duration
// plus a grace period from in-progress to timeout. The update is
// conditional on in-progress, so it never races a submit into a second
// terminal state.
type AttemptTimeoutWorker struct {
	attempts repository.ExamAttemptRepository
	grace    time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewAttemptTimeoutWorker(attempts repository.ExamAttemptRepository, grace, interval time.Duration, log zerolog.Logger) *AttemptTimeoutWorker {
	return &AttemptTimeoutWorker{
		attempts: attempts,
		grace:    grace,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "attempt_timeout_worker").Logger(),
	}
}

// Start sweeps every interval until ctx is cancelled. Call in a goroutine.
func (w *AttemptTimeoutWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Warn().Dur("interval", w.interval).Msg("AttemptTimeoutWorker disabled")
		return
	}
	w.log.Info().Dur("interval", w.interval).Dur("grace", w.grace).Msg("AttemptTimeoutWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("AttemptTimeoutWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *AttemptTimeoutWorker) sweep(ctx context.Context) int64 {
	n, err := w.attempts.ExpireStale(ctx, w.now(), w.grace)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Expire stale attempts failed")
		}
		return 0
	}
	if n > 0 {
		w.log.Info().Int64("expired", n).Msg("Attempts timed out")
	}
	return n
}
