package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

type departmentRepo struct{ s *Store }

func (r *departmentRepo) List(_ context.Context) ([]model.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Department, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		if d.IsActive {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *departmentRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.departments[id]
	if !ok {
		return nil, fmt.Errorf("get department: %w", repository.ErrNotFound)
	}
	return &d, nil
}

func (r *departmentRepo) Create(_ context.Context, d *model.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.departments[d.ID]; ok {
		return &apperror.DuplicateKeyError{Field: "departmentId", Value: d.ID}
	}
	for _, existing := range r.s.departments {
		if strings.EqualFold(existing.Code, d.Code) {
			return &apperror.DuplicateKeyError{Field: "code", Value: d.Code}
		}
	}
	now := r.s.now()
	d.CreatedAt, d.UpdatedAt = now, now
	r.s.departments[d.ID] = *d
	return nil
}

type materialRepo struct{ s *Store }

func (r *materialRepo) ListByDepartment(_ context.Context, departmentID string) ([]model.Material, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Material, 0)
	for _, m := range r.s.materials {
		if m.DepartmentID == departmentID && m.IsActive {
			m.Tags = append([]string(nil), m.Tags...)
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *materialRepo) Create(_ context.Context, m *model.Material) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.departments[m.DepartmentID]
	if !ok {
		return fmt.Errorf("department %s: %w", m.DepartmentID, repository.ErrNotFound)
	}
	if _, ok := r.s.materials[m.ID]; ok {
		return &apperror.DuplicateKeyError{Field: "materialId", Value: m.ID}
	}
	now := r.s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	if m.Tags == nil {
		m.Tags = []string{}
	}
	stored := *m
	stored.Tags = append([]string(nil), m.Tags...)
	r.s.materials[m.ID] = stored

	d.MaterialCount++
	d.UpdatedAt = now
	r.s.departments[d.ID] = d
	return nil
}

type paperRepo struct{ s *Store }

func matches(p model.Paper, f model.PaperFilter, withCode bool) bool {
	if withCode && f.PaperCode != "" && (p.PaperCode == nil || *p.PaperCode != f.PaperCode) {
		return false
	}
	if f.PaperType != "" && string(p.Type) != f.PaperType {
		return false
	}
	if f.Year != 0 && p.Year != f.Year {
		return false
	}
	return true
}

func visibleFrom(p model.Paper, departmentID string) bool {
	return p.IsGeneral() || (p.DepartmentID != nil && *p.DepartmentID == departmentID)
}

// newestFirst orders by year, then creation time, then id.
func newestFirst(papers []model.Paper) {
	sort.Slice(papers, func(i, j int) bool {
		a, b := papers[i], papers[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (r *paperRepo) GetByID(_ context.Context, id string) (*model.Paper, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.papers[id]
	if !ok {
		return nil, fmt.Errorf("get paper: %w", repository.ErrNotFound)
	}
	p = clonePaper(p)
	return &p, nil
}

func (r *paperRepo) List(_ context.Context, f model.PaperFilter) ([]model.Paper, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Paper, 0)
	for _, p := range r.s.papers {
		if matches(p, f, true) {
			out = append(out, clonePaper(p))
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *paperRepo) ListForDepartment(_ context.Context, departmentID string, f model.PaperFilter, limit, offset int) ([]model.Paper, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]model.Paper, 0)
	for _, p := range r.s.papers {
		if visibleFrom(p, departmentID) && matches(p, f, true) {
			all = append(all, clonePaper(p))
		}
	}
	newestFirst(all)

	total := len(all)
	if offset >= total {
		return []model.Paper{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *paperRepo) PaperCodes(_ context.Context, departmentID string, f model.PaperFilter) ([]model.PaperCodeEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[model.PaperCodeEntry]bool)
	var out []model.PaperCodeEntry
	for _, p := range r.s.papers {
		if p.PaperCode == nil || *p.PaperCode == "" {
			continue
		}
		if !visibleFrom(p, departmentID) || !matches(p, f, false) {
			continue
		}
		e := model.PaperCodeEntry{Type: p.Type, Code: *p.PaperCode}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *paperRepo) Top(_ context.Context, n int) ([]model.Paper, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Paper, 0, len(r.s.papers))
	for _, p := range r.s.papers {
		out = append(out, clonePaper(p))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.UsersAttempted != b.UsersAttempted {
			return a.UsersAttempted > b.UsersAttempted
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (r *paperRepo) CreateWithQuestions(_ context.Context, p *model.Paper, questions []model.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.papers[p.ID]; ok {
		return &apperror.DuplicateKeyError{Field: "paperId", Value: p.ID}
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.UsersAttempted = 0
	r.s.papers[p.ID] = clonePaper(*p)
	r.s.banks[p.ID] = model.QuestionBank{
		PaperID:      p.ID,
		PaperCode:    cloneString(p.PaperCode),
		DepartmentID: cloneString(p.DepartmentID),
		Questions:    cloneQuestions(questions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.bumpPaperCount(p.DepartmentID, 1)
	return nil
}

func (r *paperRepo) Update(_ context.Context, p *model.Paper, questions []model.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.papers[p.ID]
	if !ok {
		return fmt.Errorf("lock paper: %w", repository.ErrNotFound)
	}
	now := r.s.now()
	p.CreatedAt = old.CreatedAt
	p.UsersAttempted = old.UsersAttempted
	p.UpdatedAt = now
	r.s.papers[p.ID] = clonePaper(*p)

	bank := r.s.banks[p.ID]
	bank.PaperID = p.ID
	bank.PaperCode = cloneString(p.PaperCode)
	bank.DepartmentID = cloneString(p.DepartmentID)
	if questions != nil {
		bank.Questions = cloneQuestions(questions)
	}
	bank.UpdatedAt = now
	r.s.banks[p.ID] = bank

	if !sameDepartment(old.DepartmentID, p.DepartmentID) {
		r.s.bumpPaperCount(old.DepartmentID, -1)
		r.s.bumpPaperCount(p.DepartmentID, 1)
	}
	return nil
}

func (r *paperRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.papers[id]
	if !ok {
		return fmt.Errorf("delete paper: %w", repository.ErrNotFound)
	}
	delete(r.s.papers, id)
	delete(r.s.banks, id)
	r.s.bumpPaperCount(p.DepartmentID, -1)
	return nil
}

func (r *paperRepo) IncrementAttempts(_ context.Context, counts map[string]int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, n := range counts {
		if p, ok := r.s.papers[id]; ok {
			p.UsersAttempted += n
			r.s.papers[id] = p
		}
	}
	return nil
}

// bumpPaperCount must be called with mu held.
func (s *Store) bumpPaperCount(departmentID *string, delta int) {
	if departmentID == nil {
		return
	}
	d, ok := s.departments[*departmentID]
	if !ok {
		return
	}
	d.PaperCount += delta
	if d.PaperCount < 0 {
		d.PaperCount = 0
	}
	d.UpdatedAt = s.now()
	s.departments[d.ID] = d
}

func sameDepartment(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type questionBankRepo struct{ s *Store }

func (r *questionBankRepo) GetByPaperID(_ context.Context, paperID string) (*model.QuestionBank, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.banks[paperID]
	if !ok {
		return nil, fmt.Errorf("get question bank: %w", repository.ErrNotFound)
	}
	b.PaperCode = cloneString(b.PaperCode)
	b.DepartmentID = cloneString(b.DepartmentID)
	b.Questions = cloneQuestions(b.Questions)
	return &b, nil
}

func (r *questionBankRepo) PublicByPaperID(_ context.Context, paperID string) (*model.PaperQuestions, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.banks[paperID]
	if !ok {
		return nil, fmt.Errorf("get paper questions: %w", repository.ErrNotFound)
	}
	pq := &model.PaperQuestions{
		PaperID:      b.PaperID,
		PaperCode:    cloneString(b.PaperCode),
		DepartmentID: cloneString(b.DepartmentID),
		Questions:    make([]model.PublicQuestion, 0, len(b.Questions)),
	}
	for _, q := range cloneQuestions(b.Questions) {
		pq.Questions = append(pq.Questions, q.Public())
	}
	return pq, nil
}

func (r *questionBankRepo) AnswerKey(_ context.Context, paperID string) ([]model.AnswerKeyEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.banks[paperID]
	if !ok {
		return nil, fmt.Errorf("get answer key: %w", repository.ErrNotFound)
	}
	key := make([]model.AnswerKeyEntry, 0, len(b.Questions))
	for _, q := range b.Questions {
		key = append(key, model.AnswerKeyEntry{QuestionID: q.ID, Correct: q.Correct})
	}
	return key, nil
}
