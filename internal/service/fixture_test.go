package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/cache"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository/memstore"
)

type fixture struct {
	store       *memstore.Store
	cache       *cache.Memory
	departments *DepartmentService
	papers      *PaperService
	banks       *QuestionBankService
	exams       *ExamService
	stats       *countingStats
}

type countingStats struct {
	papers []string
}

func (c *countingStats) RecordAttempt(_ context.Context, paperID string) error {
	c.papers = append(c.papers, paperID)
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zerolog.Nop()
	store := memstore.New()
	mem := cache.NewMemory()
	classifier := apperror.NewClassifier(log)
	ttls := CacheTTLs{
		PaperCodes:  30 * time.Minute,
		Departments: 30 * time.Minute,
		TopPapers:   15 * time.Minute,
		Questions:   time.Hour,
	}

	banks := NewQuestionBankService(store.QuestionBanks(), mem, classifier, ttls, log)
	stats := &countingStats{}
	return &fixture{
		store:       store,
		cache:       mem,
		departments: NewDepartmentService(store.Departments(), store.Materials(), mem, classifier, ttls, log),
		papers:      NewPaperService(store.Papers(), store.Departments(), mem, classifier, ttls, log),
		banks:       banks,
		exams:       NewExamService(store.Attempts(), store.Papers(), banks, stats, classifier, log),
		stats:       stats,
	}
}

func (fx *fixture) department(t *testing.T, code string) *model.Department {
	t.Helper()
	d, err := fx.departments.Create(context.Background(), &model.CreateDepartmentRequest{
		Code: code,
		Name: "Department " + code,
	})
	if err != nil {
		t.Fatalf("create department %s: %v", code, err)
	}
	return d
}

func (fx *fixture) paper(t *testing.T, req model.CreatePaperRequest) *model.Paper {
	t.Helper()
	if req.Name == "" {
		req.Name = "Paper"
	}
	if req.Year == 0 {
		req.Year = 2024
	}
	if req.Duration == 0 {
		req.Duration = 60
	}
	if req.Questions == nil {
		req.Questions = makeQuestions(4)
	}
	p, err := fx.papers.Create(context.Background(), &req)
	if err != nil {
		t.Fatalf("create paper: %v", err)
	}
	return p
}

// makeQuestions builds n questions whose correct option is id % 4.
func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:       i + 1,
			Question: model.LocalizedText{En: fmt.Sprintf("Question %d", i+1), Hi: "प्रश्न"},
			Options: []model.LocalizedText{
				{En: "A"}, {En: "B"}, {En: "C"}, {En: "D"},
			},
			Correct: (i + 1) % 4,
		}
	}
	return qs
}

func ptr[T any](v T) *T { return &v }

func wantKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperror.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
