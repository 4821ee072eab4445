package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

type attemptRepo struct{ s *Store }

func (r *attemptRepo) Create(_ context.Context, a *model.ExamAttempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.attempts[a.AttemptID]; ok {
		return &apperror.DuplicateKeyError{Field: "examId", Value: a.AttemptID}
	}
	now := r.s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Responses == nil {
		a.Responses = []model.Response{}
	}
	r.s.attempts[a.AttemptID] = cloneAttempt(*a)
	return nil
}

func (r *attemptRepo) GetForUser(_ context.Context, attemptID, userID string) (*model.ExamAttempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attempts[attemptID]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("get exam attempt: %w", repository.ErrNotFound)
	}
	a = cloneAttempt(a)
	return &a, nil
}

// Submit checks and writes under the write lock, which gives the same
// compare-and-set behaviour as the conditional UPDATE in Postgres.
func (r *attemptRepo) Submit(_ context.Context, attemptID, userID string, s *model.Submission) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.attempts[attemptID]
	if !ok || a.UserID != userID || a.Status != model.AttemptInProgress {
		return false, nil
	}

	end := s.EndTime
	taken := s.TimeTaken
	a.Responses = append([]model.Response(nil), s.Responses...)
	a.TotalQuestions = s.TotalQuestions
	a.AttemptedQuestions = s.AttemptedQuestions
	a.UnattemptedQuestions = s.UnattemptedQuestions
	a.CorrectAnswers = s.CorrectAnswers
	a.IncorrectAnswers = s.IncorrectAnswers
	a.Score = s.Score
	a.MaxScore = s.MaxScore
	a.Percentage = s.Percentage
	a.Accuracy = s.Accuracy
	a.PassingScore = s.PassingScore
	a.NegativeMarking = s.NegativeMarking
	a.IsPassed = s.IsPassed
	a.EndTime = &end
	a.TimeTaken = &taken
	a.Remarks = s.Remarks
	a.Status = model.AttemptSubmitted
	a.UpdatedAt = r.s.now()
	r.s.attempts[attemptID] = a
	return true, nil
}

func (r *attemptRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]model.ExamAttempt, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]model.ExamAttempt, 0)
	for _, a := range r.s.attempts {
		if a.UserID == userID {
			all = append(all, cloneAttempt(a))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })

	total := len(all)
	if offset >= total {
		return []model.ExamAttempt{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *attemptRepo) ListSubmittedByPaper(_ context.Context, paperID string) ([]model.ExamAttempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.ExamAttempt, 0)
	for _, a := range r.s.attempts {
		if a.PaperID == paperID && a.Status == model.AttemptSubmitted {
			out = append(out, cloneAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EndTime.Before(*out[j].EndTime)
	})
	return out, nil
}

func (r *attemptRepo) ExpireStale(_ context.Context, now time.Time, grace time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, a := range r.s.attempts {
		if a.Status != model.AttemptInProgress {
			continue
		}
		p, ok := r.s.papers[a.PaperID]
		if !ok {
			continue
		}
		deadline := a.StartTime.Add(time.Duration(p.Duration)*time.Minute + grace)
		if !deadline.Before(now) {
			continue
		}
		end := now
		a.Status = model.AttemptTimeout
		a.EndTime = &end
		a.UpdatedAt = r.s.now()
		r.s.attempts[id] = a
		n++
	}
	return n, nil
}
