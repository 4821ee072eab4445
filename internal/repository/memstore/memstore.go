// Package memstore keeps every repository in process memory behind one
// lock. It backs STORAGE_DRIVER=memory and the service and handler tests.
package memstore

import (
	"sync"
	"time"

	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

// Store holds all tables. Values are copied on the way in and out so
// callers never share memory with the store.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	departments map[string]model.Department
	materials   map[string]model.Material
	papers      map[string]model.Paper
	banks       map[string]model.QuestionBank
	attempts    map[string]model.ExamAttempt
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:         time.Now,
		departments: make(map[string]model.Department),
		materials:   make(map[string]model.Material),
		papers:      make(map[string]model.Paper),
		banks:       make(map[string]model.QuestionBank),
		attempts:    make(map[string]model.ExamAttempt),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Departments() repository.DepartmentRepository { return &departmentRepo{s} }
func (s *Store) Materials() repository.MaterialRepository { return &materialRepo{s} }
func (s *Store) Papers() repository.PaperRepository { return &paperRepo{s} }
func (s *Store) QuestionBanks() repository.QuestionBankRepository { return &questionBankRepo{s} }
func (s *Store) Attempts() repository.ExamAttemptRepository { return &attemptRepo{s} }

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clonePaper(p model.Paper) model.Paper {
	p.DepartmentID = cloneString(p.DepartmentID)
	p.PaperCode = cloneString(p.PaperCode)
	return p
}

func cloneQuestions(qs []model.Question) []model.Question {
	if qs == nil {
		return nil
	}
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]model.LocalizedText(nil), q.Options...)
		if q.Explanation != nil {
			e := *q.Explanation
			q.Explanation = &e
		}
		out[i] = q
	}
	return out
}

func cloneAttempt(a model.ExamAttempt) model.ExamAttempt {
	a.PaperCode = cloneString(a.PaperCode)
	a.DepartmentID = cloneString(a.DepartmentID)
	a.Responses = append([]model.Response(nil), a.Responses...)
	if a.Responses == nil {
		a.Responses = []model.Response{}
	}
	if a.EndTime != nil {
		t := *a.EndTime
		a.EndTime = &t
	}
	if a.TimeTaken != nil {
		t := *a.TimeTaken
		a.TimeTaken = &t
	}
	if a.DeviceInfo != nil {
		d := *a.DeviceInfo
		a.DeviceInfo = &d
	}
	return a
}
