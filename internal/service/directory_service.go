package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type directoryRepository interface {
	ListLecturers(ctx context.Context, filter models.DirectoryFilter) ([]models.LecturerListing, int, error)
	Departments(ctx context.Context) ([]string, error)
}

// DirectoryService serves the lecturer browse/search screens. Lookups are
// cached briefly in Redis; the cache is best-effort and a miss falls
// through to the database.
type DirectoryService struct {
	repo     directoryRepository
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDirectoryService creates an instance of DirectoryService.
func NewDirectoryService(repo directoryRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &DirectoryService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

type directoryPage struct {
	Lecturers  []models.LecturerListing `json:"lecturers"`
	Pagination models.Pagination        `json:"pagination"`
}

// ListLecturers returns the filtered directory page and whether it was
// served from cache.
func (s *DirectoryService) ListLecturers(ctx context.Context, filter models.DirectoryFilter) ([]models.LecturerListing, *models.Pagination, bool, error) {
	key := directoryCacheKey(filter)

	var cached directoryPage
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Lecturers, &cached.Pagination, true, nil
	}

	lecturers, total, err := s.repo.ListLecturers(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	pagination := models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}

	if err := s.cache.Set(ctx, key, directoryPage{Lecturers: lecturers, Pagination: pagination}, s.cacheTTL); err != nil {
		s.logger.Debug("directory cache write failed", zap.Error(err))
	}

	return lecturers, &pagination, false, nil
}

// Departments returns the distinct lecturer departments.
func (s *DirectoryService) Departments(ctx context.Context) ([]string, error) {
	const key = "directory:departments"

	var cached []string
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	departments, err := s.repo.Departments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}

	if err := s.cache.Set(ctx, key, departments, s.cacheTTL); err != nil {
		s.logger.Debug("departments cache write failed", zap.Error(err))
	}

	return departments, nil
}

// Invalidate drops cached directory pages, called after profile or user
// mutations that change what the directory shows.
func (s *DirectoryService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, "directory:*")
}

func directoryCacheKey(filter models.DirectoryFilter) string {
	return fmt.Sprintf("directory:lecturers:%s:%s:%d:%d",
		strings.ToLower(strings.TrimSpace(filter.Search)),
		strings.ToLower(strings.TrimSpace(filter.Department)),
		filter.Page,
		filter.PageSize,
	)
}
