package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/cache"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

const errBankNotFound = "question bank not found"

// QuestionBankService serves question content. Candidate reads only ever
// see the sanitized projection; the answer key is a separate read.
type QuestionBankService struct {
	banks      repository.QuestionBankRepository
	cache      cache.Store
	classifier *apperror.Classifier
	ttl        time.Duration
	log        zerolog.Logger
}

// NewQuestionBankService creates a new QuestionBankService.
func NewQuestionBankService(
	banks repository.QuestionBankRepository,
	store cache.Store,
	classifier *apperror.Classifier,
	ttls CacheTTLs,
	log zerolog.Logger,
) *QuestionBankService {
	return &QuestionBankService{
		banks:      banks,
		cache:      store,
		classifier: classifier,
		ttl:        ttls.Questions,
		log:        log.With().Str("component", "question_bank_service").Logger(),
	}
}

// QuestionsForPaper returns the paper's questions without correct options.
// A bank owned by another department is reported as missing.
func (s *QuestionBankService) QuestionsForPaper(ctx context.Context, departmentID, paperID string) (*model.PaperQuestions, error) {
	pq, err := cache.GetOrSet(ctx, s.cache, config.CacheKey.PaperQuestionsKey(paperID), s.ttl,
		func(ctx context.Context) (*model.PaperQuestions, error) {
			return s.banks.PublicByPaperID(ctx, paperID)
		})
	if err != nil {
		return nil, fail(s.classifier, "questions for paper", err, errBankNotFound)
	}
	if !pq.VisibleFrom(departmentID) {
		return nil, apperror.NotFound(errBankNotFound)
	}
	return pq, nil
}

// QuestionByID returns one sanitized question.
func (s *QuestionBankService) QuestionByID(ctx context.Context, departmentID, paperID string, questionID int) (*model.PublicQuestion, error) {
	pq, err := s.QuestionsForPaper(ctx, departmentID, paperID)
	if err != nil {
		return nil, err
	}
	for i := range pq.Questions {
		if pq.Questions[i].ID == questionID {
			q := pq.Questions[i]
			return &q, nil
		}
	}
	return nil, apperror.NotFound("question %d not found", questionID)
}

// AnswersForPaper is the department scoped answer key read.
func (s *QuestionBankService) AnswersForPaper(ctx context.Context, departmentID, paperID string) ([]model.AnswerKeyEntry, error) {
	if _, err := s.QuestionsForPaper(ctx, departmentID, paperID); err != nil {
		return nil, err
	}
	return s.AnswerKey(ctx, paperID)
}

// AnswerKey returns question ids with their correct option. It is what the
// scoring engine grades against.
func (s *QuestionBankService) AnswerKey(ctx context.Context, paperID string) ([]model.AnswerKeyEntry, error) {
	key, err := cache.GetOrSet(ctx, s.cache, config.CacheKey.PaperAnswerKey(paperID), s.ttl,
		func(ctx context.Context) ([]model.AnswerKeyEntry, error) {
			return s.banks.AnswerKey(ctx, paperID)
		})
	if err != nil {
		return nil, fail(s.classifier, "answer key", err, errBankNotFound)
	}
	return key, nil
}

// Bank returns the full answer-bearing bank for catalog administration.
func (s *QuestionBankService) Bank(ctx context.Context, paperID string) (*model.QuestionBank, error) {
	b, err := s.banks.GetByPaperID(ctx, paperID)
	if err != nil {
		return nil, fail(s.classifier, "get question bank", err, errBankNotFound)
	}
	return b, nil
}
