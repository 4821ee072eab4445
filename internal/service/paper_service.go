package service

import (
	"context"
	"sort"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/cache"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

// TopPapersCount is the size of the top papers snapshot.
const TopPapersCount = 6

// PaperService is the paper catalog. Every mutation drops the cached views
// the paper can appear in: all departments for general papers, only the
// owning department otherwise.
type PaperService struct {
	papers      repository.PaperRepository
	departments repository.DepartmentRepository
	cache       cache.Store
	classifier  *apperror.Classifier
	ttls        CacheTTLs
	newID       func() (string, error)
	log         zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(
	papers repository.PaperRepository,
	departments repository.DepartmentRepository,
	store cache.Store,
	classifier *apperror.Classifier,
	ttls CacheTTLs,
	log zerolog.Logger,
) *PaperService {
	return &PaperService{
		papers:      papers,
		departments: departments,
		cache:       store,
		classifier:  classifier,
		ttls:        ttls,
		newID:       newPaperID,
		log:         log.With().Str("component", "paper_service").Logger(),
	}
}

func newPaperID() (string, error) {
	id, err := gonanoid.New(6)
	if err != nil {
		return "", err
	}
	return "paper-" + id, nil
}

// Create validates the scope rule for the paper type and stores the paper
// together with its question bank.
func (s *PaperService) Create(ctx context.Context, req *model.CreatePaperRequest) (*model.Paper, error) {
	id, err := s.newID()
	if err != nil {
		return nil, s.classifier.Classify("generate paper id", err)
	}

	p := &model.Paper{
		ID:              id,
		DepartmentID:    req.DepartmentID,
		PaperCode:       req.PaperCode,
		Type:            req.Type,
		Name:            req.Name,
		Description:     req.Description,
		Year:            req.Year,
		Shift:           req.Shift,
		Duration:        req.Duration,
		TotalQuestions:  len(req.Questions),
		PassMarks:       req.PassMarks,
		PassPercentage:  req.PassPercentage,
		NegativeMarking: req.NegativeMarking,
		IsFree:          req.IsFree,
		IsNew:           req.IsNew,
		Rating:          req.Rating,
	}
	p.Normalize()

	violations := append(p.Validate(), model.ValidateQuestions(req.Questions)...)
	if err := violations.Err(); err != nil {
		return nil, s.classifier.Classify("create paper", err)
	}
	if err := s.ensureDepartment(ctx, p.DepartmentID); err != nil {
		return nil, err
	}

	if err := s.papers.CreateWithQuestions(ctx, p, req.Questions); err != nil {
		return nil, fail(s.classifier, "create paper", err, "")
	}

	s.invalidate(ctx, p)
	s.log.Info().Str("paper_id", p.ID).Str("type", string(p.Type)).Int("questions", p.TotalQuestions).Msg("Paper created")
	return p, nil
}

func (s *PaperService) GetByID(ctx context.Context, id string) (*model.Paper, error) {
	p, err := s.papers.GetByID(ctx, id)
	if err != nil {
		return nil, fail(s.classifier, "get paper", err, "paper not found")
	}
	return p, nil
}

// List scans the whole catalog. It is not cached.
func (s *PaperService) List(ctx context.Context, f model.PaperFilter) ([]model.Paper, error) {
	papers, err := s.papers.List(ctx, f)
	if err != nil {
		return nil, fail(s.classifier, "list papers", err, "")
	}
	return papers, nil
}

// PaperCodesByType returns every general paper code in the catalog and the
// department's own non-general codes, deduplicated and sorted. The result is
// cached per department and filter.
func (s *PaperService) PaperCodesByType(ctx context.Context, departmentID string, f model.PaperFilter) (model.PaperCodes, error) {
	f.PaperCode = ""
	key := config.CacheKey.PaperCodesKey(departmentID, f.CacheToken())

	codes, err := cache.GetOrSet(ctx, s.cache, key, s.ttls.PaperCodes,
		func(ctx context.Context) (model.PaperCodes, error) {
			entries, err := s.papers.PaperCodes(ctx, departmentID, f)
			if err != nil {
				return model.PaperCodes{}, err
			}
			return GroupPaperCodes(entries), nil
		})
	if err != nil {
		return model.PaperCodes{}, fail(s.classifier, "paper codes by type", err, "")
	}
	return codes, nil
}

// GroupPaperCodes splits entries into general and non-general codes. Each
// side is deduplicated and sorted ascending, and is never nil.
func GroupPaperCodes(entries []model.PaperCodeEntry) model.PaperCodes {
	general := make(map[string]struct{})
	nonGeneral := make(map[string]struct{})
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		if e.Type == model.PaperTypeGeneral {
			general[e.Code] = struct{}{}
		} else {
			nonGeneral[e.Code] = struct{}{}
		}
	}
	return model.PaperCodes{General: sortedKeys(general), NonGeneral: sortedKeys(nonGeneral)}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ForDepartment returns one page of the department's papers (general papers
// included) with the department's paper codes.
func (s *PaperService) ForDepartment(ctx context.Context, departmentID string, page model.PageQuery, f model.PaperFilter) (*model.DepartmentPapers, error) {
	papers, total, err := s.papers.ListForDepartment(ctx, departmentID, f, page.Limit, page.Offset())
	if err != nil {
		return nil, fail(s.classifier, "papers for department", err, "")
	}

	codes, err := s.PaperCodesByType(ctx, departmentID, f)
	if err != nil {
		return nil, err
	}

	return &model.DepartmentPapers{
		Papers:     papers,
		Metadata:   model.DepartmentPapersMD{PaperCodes: codes},
		Pagination: model.NewPagination(page, total),
	}, nil
}

// Update patches a paper. A non-nil req.Questions replaces the question set.
func (s *PaperService) Update(ctx context.Context, id string, req *model.UpdatePaperRequest) (*model.Paper, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *p

	req.Apply(p)
	p.Normalize()

	violations := p.Validate()
	var questions []model.Question
	if req.Questions != nil {
		questions = *req.Questions
		violations = append(violations, model.ValidateQuestions(questions)...)
	}
	if err := violations.Err(); err != nil {
		return nil, s.classifier.Classify("update paper", err)
	}
	if !sameDepartment(before.DepartmentID, p.DepartmentID) {
		if err := s.ensureDepartment(ctx, p.DepartmentID); err != nil {
			return nil, err
		}
	}

	if err := s.papers.Update(ctx, p, questions); err != nil {
		return nil, fail(s.classifier, "update paper", err, "paper not found")
	}

	// Visibility changed: the paper can now appear in (or vanish from) every department.
	if before.IsGeneral() != p.IsGeneral() {
		s.invalidateAll(ctx)
	} else {
		s.invalidate(ctx, &before)
		s.invalidate(ctx, p)
	}
	s.dropQuestions(ctx, p.ID)
	return p, nil
}

// Delete removes a paper and its question bank.
func (s *PaperService) Delete(ctx context.Context, id string) error {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.papers.Delete(ctx, id); err != nil {
		return fail(s.classifier, "delete paper", err, "paper not found")
	}

	s.invalidate(ctx, p)
	s.dropQuestions(ctx, id)
	s.log.Info().Str("paper_id", id).Msg("Paper deleted")
	return nil
}

// Top returns the highest rated papers across the catalog.
func (s *PaperService) Top(ctx context.Context) ([]model.Paper, error) {
	papers, err := cache.GetOrSet(ctx, s.cache, config.CacheKey.TopPapersKey(), s.ttls.TopPapers,
		func(ctx context.Context) ([]model.Paper, error) {
			return s.papers.Top(ctx, TopPapersCount)
		})
	if err != nil {
		return nil, fail(s.classifier, "top papers", err, "")
	}
	return papers, nil
}

// CacheStats reports every cache tier, if the store can describe itself.
func (s *PaperService) CacheStats(ctx context.Context) []cache.Stats {
	if r, ok := s.cache.(cache.Reporter); ok {
		return r.Stats(ctx)
	}
	return []cache.Stats{}
}

// ClearCache wipes every cached view.
func (s *PaperService) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return s.classifier.Classify("clear cache", err)
	}
	s.log.Info().Msg("Cache cleared")
	return nil
}

func (s *PaperService) ensureDepartment(ctx context.Context, departmentID *string) error {
	if departmentID == nil {
		return nil
	}
	if _, err := s.departments.GetByID(ctx, *departmentID); err != nil {
		return fail(s.classifier, "get department", err, "department not found")
	}
	return nil
}

// invalidate drops the cached views p appears in.
func (s *PaperService) invalidate(ctx context.Context, p *model.Paper) {
	if p.IsGeneral() || p.DepartmentID == nil {
		s.invalidateAll(ctx)
		return
	}

	prefix := config.CacheKey.DepartmentPrefix(*p.DepartmentID)
	if _, err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
		s.log.Warn().Err(err).Str("prefix", prefix).Msg("Failed to invalidate department cache")
	}
	s.dropShared(ctx)
}

// invalidateAll drops the paper codes of every department.
func (s *PaperService) invalidateAll(ctx context.Context) {
	pattern := config.CacheKey.PaperCodesPattern()
	if _, err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.log.Warn().Err(err).Str("pattern", pattern).Msg("Failed to invalidate paper codes")
	}
	s.dropShared(ctx)
}

// dropShared drops the department independent snapshots that embed paper
// counts or rankings.
func (s *PaperService) dropShared(ctx context.Context) {
	for _, key := range []string{config.CacheKey.TopPapersKey(), config.CacheKey.DepartmentsKey()} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to drop cache entry")
		}
	}
}

func (s *PaperService) dropQuestions(ctx context.Context, paperID string) {
	for _, key := range []string{config.CacheKey.PaperQuestionsKey(paperID), config.CacheKey.PaperAnswerKey(paperID)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Failed to drop cache entry")
		}
	}
}

func sameDepartment(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
