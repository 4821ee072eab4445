package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/cache"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/model"
	"github.com/railji/railji-backend/internal/repository"
)

// DepartmentService serves departments and their study materials.
type DepartmentService struct {
	departments repository.DepartmentRepository
	materials   repository.MaterialRepository
	cache       cache.Store
	classifier  *apperror.Classifier
	ttl         time.Duration
	log         zerolog.Logger
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(
	departments repository.DepartmentRepository,
	materials repository.MaterialRepository,
	store cache.Store,
	classifier *apperror.Classifier,
	ttls CacheTTLs,
	log zerolog.Logger,
) *DepartmentService {
	return &DepartmentService{
		departments: departments,
		materials:   materials,
		cache:       store,
		classifier:  classifier,
		ttl:         ttls.Departments,
		log:         log.With().Str("component", "department_service").Logger(),
	}
}

// List returns every active department. The GENERAL department is moved out
// of the list into metadata.general.
func (s *DepartmentService) List(ctx context.Context) (*model.DepartmentListing, error) {
	listing, err := cache.GetOrSet(ctx, s.cache, config.CacheKey.DepartmentsKey(), s.ttl,
		func(ctx context.Context) (model.DepartmentListing, error) {
			all, err := s.departments.List(ctx)
			if err != nil {
				return model.DepartmentListing{}, err
			}
			return splitGeneral(all), nil
		})
	if err != nil {
		return nil, fail(s.classifier, "list departments", err, "")
	}
	return &listing, nil
}

func splitGeneral(all []model.Department) model.DepartmentListing {
	listing := model.DepartmentListing{Departments: make([]model.Department, 0, len(all))}
	for i := range all {
		if all[i].Code == model.GeneralDepartmentCode {
			general := all[i]
			listing.Metadata.General = &general
			continue
		}
		listing.Departments = append(listing.Departments, all[i])
	}
	return listing
}

func (s *DepartmentService) GetByID(ctx context.Context, id string) (*model.Department, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, fail(s.classifier, "get department", err, "department not found")
	}
	return d, nil
}

// Create registers a department. A duplicate code is a Conflict.
func (s *DepartmentService) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	d := &model.Department{
		ID:          uuid.NewString(),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, fail(s.classifier, "create department", err, "")
	}

	s.drop(ctx, config.CacheKey.DepartmentsKey())
	s.log.Info().Str("department_id", d.ID).Str("code", d.Code).Msg("Department created")
	return d, nil
}

// Materials returns the active materials of a department, newest first.
func (s *DepartmentService) Materials(ctx context.Context, departmentID string) ([]model.Material, error) {
	if _, err := s.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}
	materials, err := cache.GetOrSet(ctx, s.cache, config.CacheKey.MaterialsKey(departmentID), s.ttl,
		func(ctx context.Context) ([]model.Material, error) {
			return s.materials.ListByDepartment(ctx, departmentID)
		})
	if err != nil {
		return nil, fail(s.classifier, "list materials", err, "")
	}
	return materials, nil
}

// CreateMaterial registers a material and drops the department's cached views.
func (s *DepartmentService) CreateMaterial(ctx context.Context, req *model.CreateMaterialRequest) (*model.Material, error) {
	m := &model.Material{
		ID:           uuid.NewString(),
		DepartmentID: req.DepartmentID,
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		URL:          req.URL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		FileSize:     req.FileSize,
		Tags:         req.Tags,
		IsActive:     true,
	}
	if err := s.materials.Create(ctx, m); err != nil {
		return nil, fail(s.classifier, "create material", err, "department not found")
	}

	if _, err := s.cache.DeleteByPrefix(ctx, config.CacheKey.DepartmentPrefix(m.DepartmentID)); err != nil {
		s.log.Warn().Err(err).Str("department_id", m.DepartmentID).Msg("Failed to invalidate department cache")
	}
	s.drop(ctx, config.CacheKey.DepartmentsKey())
	return m, nil
}

func (s *DepartmentService) drop(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to drop cache entry")
	}
}
