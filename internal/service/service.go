package service

import (
	"errors"
	"time"

	"github.com/railji/railji-backend/internal/apperror"
	"github.com/railji/railji-backend/internal/config"
	"github.com/railji/railji-backend/internal/repository"
)

// CacheTTLs are the lifetimes of the cached catalog views.
type CacheTTLs struct {
	PaperCodes  time.Duration
	Departments time.Duration
	TopPapers   time.Duration
	Questions   time.Duration
}

// CacheTTLsFromConfig picks the cache lifetimes out of cfg.
func CacheTTLsFromConfig(cfg *config.Config) CacheTTLs {
	return CacheTTLs{
		PaperCodes:  cfg.PaperCodesTTL,
		Departments: cfg.DepartmentsTTL,
		TopPapers:   cfg.TopPapersTTL,
		Questions:   cfg.QuestionsTTL,
	}
}

// fail turns a repository error into an application error. A missing row
// becomes NotFound with notFoundMsg; everything else goes through the
// classifier.
func fail(c *apperror.Classifier, label string, err error, notFoundMsg string) error {
	if notFoundMsg != "" && errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("%s", notFoundMsg)
	}
	return c.Classify(label, err)
}
