package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/dto"
	"github.com/noel-arch/mentor-match-api/internal/models"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type dashboardStatsProvider interface {
	CountByStatus(ctx context.Context, studentID, lecturerID string) ([]models.MentorshipStatusCount, error)
	AverageCompletedRating(ctx context.Context) (float64, error)
	Recent(ctx context.Context, limit int) ([]models.MentorshipDetail, error)
}

type dashboardUserCounter interface {
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

type dashboardProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.ProfileDetail, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService composes the role dashboards from repository aggregates.
// Every number comes through a small repository interface, so tests feed
// fixtures without touching any presentation code.
type DashboardService struct {
	stats    dashboardStatsProvider
	users    dashboardUserCounter
	profiles dashboardProfileReader
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(stats dashboardStatsProvider, users dashboardUserCounter, profiles dashboardProfileReader, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		stats:    stats,
		users:    users,
		profiles: profiles,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Admin returns the platform summary and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	const key = "dashboard:admin"

	var cached dto.AdminDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	usersByRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}

	statusCounts, err := s.stats.CountByStatus(ctx, "", "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count mentorships")
	}

	avgRating, err := s.stats.AverageCompletedRating(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute average rating")
	}

	recent, err := s.stats.Recent(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent requests")
	}

	resp := &dto.AdminDashboardResponse{
		UsersByRole:      usersByRole,
		RequestsByStatus: statusCountMap(statusCounts),
		AverageRating:    avgRating,
		RecentRequests:   dto.NewMentorshipResponses(recent),
		GeneratedAt:      s.now().UTC(),
	}

	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("admin dashboard cache write failed", zap.Error(err))
	}

	return resp, false, nil
}

// Lecturer returns the mentoring load summary for one lecturer.
func (s *DashboardService) Lecturer(ctx context.Context, lecturerID string) (*dto.LecturerDashboardResponse, bool, error) {
	key := fmt.Sprintf("dashboard:lecturer:%s", lecturerID)

	var cached dto.LecturerDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	statusCounts, err := s.stats.CountByStatus(ctx, "", lecturerID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count mentorships")
	}
	counts := statusCountMap(statusCounts)

	resp := &dto.LecturerDashboardResponse{
		PendingCount:   counts[models.MentorshipPending],
		ActiveCount:    counts[models.MentorshipActive],
		CompletedCount: counts[models.MentorshipCompleted],
		RejectedCount:  counts[models.MentorshipRejected],
		GeneratedAt:    s.now().UTC(),
	}

	if s.profiles != nil {
		profile, err := s.profiles.FindByUserID(ctx, lecturerID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer profile")
		}
		if err == nil && profile.MaxStudents != nil {
			resp.MaxStudents = profile.MaxStudents
			left := *profile.MaxStudents - resp.ActiveCount
			if left < 0 {
				left = 0
			}
			resp.CapacityLeft = &left
		}
	}

	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("lecturer dashboard cache write failed", zap.Error(err))
	}

	return resp, false, nil
}

// Student returns the request summary for one student.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, bool, error) {
	key := fmt.Sprintf("dashboard:student:%s", studentID)

	var cached dto.StudentDashboardResponse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	statusCounts, err := s.stats.CountByStatus(ctx, studentID, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count mentorships")
	}
	counts := statusCountMap(statusCounts)

	resp := &dto.StudentDashboardResponse{
		PendingCount:   counts[models.MentorshipPending],
		ActiveCount:    counts[models.MentorshipActive],
		CompletedCount: counts[models.MentorshipCompleted],
		RejectedCount:  counts[models.MentorshipRejected],
		GeneratedAt:    s.now().UTC(),
	}

	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("student dashboard cache write failed", zap.Error(err))
	}

	return resp, false, nil
}

// Invalidate drops dashboards after mentorship or user mutations.
func (s *DashboardService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, "dashboard:*")
}

func statusCountMap(counts []models.MentorshipStatusCount) map[models.MentorshipStatus]int {
	out := map[models.MentorshipStatus]int{
		models.MentorshipPending:   0,
		models.MentorshipActive:    0,
		models.MentorshipCompleted: 0,
		models.MentorshipRejected:  0,
	}
	for _, c := range counts {
		out[c.Status] = c.Count
	}
	return out
}
