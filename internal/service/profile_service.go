package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/repository"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.ProfileDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.ProfileDetail, error)
	List(ctx context.Context, userID string) ([]models.ProfileDetail, error)
	Create(ctx context.Context, p *models.Profile) error
	UpdateSparse(ctx context.Context, id string, patch repository.ProfilePatch) (*models.Profile, error)
}

// CreateProfileRequest carries the profile form. Expertise and research
// areas accept either an array or a comma-separated string.
type CreateProfileRequest struct {
	UserID            string            `json:"user_id" validate:"required"`
	Major             *string           `json:"major"`
	Year              *int              `json:"year"`
	Department        *string           `json:"department"`
	Expertise         models.StringList `json:"expertise"`
	ResearchAreas     models.StringList `json:"research_areas"`
	YearsOfExperience *int              `json:"years_of_experience"`
	Bio               *string           `json:"bio"`
	MaxStudents       *int              `json:"max_students"`
}

// PatchProfileRequest is the sparse profile update payload.
type PatchProfileRequest struct {
	Major             *string            `json:"major"`
	Year              *int               `json:"year"`
	Department        *string            `json:"department"`
	Expertise         *models.StringList `json:"expertise"`
	ResearchAreas     *models.StringList `json:"research_areas"`
	YearsOfExperience *int               `json:"years_of_experience"`
	Bio               *string            `json:"bio"`
	MaxStudents       *int               `json:"max_students"`
}

type profileCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// ProfileService manages role-specific profile records.
type ProfileService struct {
	repo        profileRepository
	invalidator profileCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewProfileService creates an instance of ProfileService. invalidator may be
// nil when the lecturer directory is not cached.
func NewProfileService(repo profileRepository, invalidator profileCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns profiles joined with user identity, optionally for one user.
func (s *ProfileService) List(ctx context.Context, userID string) ([]models.ProfileDetail, error) {
	profiles, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	return profiles, nil
}

// Get returns a profile by ID.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.ProfileDetail, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Create adds a profile for a user. Owners create their own; admins may
// create for anyone. The handler passes the resolved actor.
func (s *ProfileService) Create(ctx context.Context, req CreateProfileRequest, actor *models.JWTClaims) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if actor.Role != models.RoleAdmin && req.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create a profile for another user")
	}

	profile := &models.Profile{
		UserID:            req.UserID,
		Major:             req.Major,
		Year:              req.Year,
		Department:        req.Department,
		Expertise:         pq.StringArray(req.Expertise),
		ResearchAreas:     pq.StringArray(req.ResearchAreas),
		YearsOfExperience: req.YearsOfExperience,
		Bio:               req.Bio,
		MaxStudents:       req.MaxStudents,
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "profile already exists for this user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	return profile, nil
}

// Patch applies a sparse update to a profile owned by the actor, or any
// profile for admins.
func (s *ProfileService) Patch(ctx context.Context, id string, req PatchProfileRequest, actor *models.JWTClaims) (*models.Profile, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if actor.Role != models.RoleAdmin && current.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot modify another user's profile")
	}

	patch := repository.ProfilePatch{
		Major:             req.Major,
		Year:              req.Year,
		Department:        req.Department,
		YearsOfExperience: req.YearsOfExperience,
		Bio:               req.Bio,
		MaxStudents:       req.MaxStudents,
	}
	if req.Expertise != nil {
		arr := pq.StringArray(*req.Expertise)
		patch.Expertise = &arr
	}
	if req.ResearchAreas != nil {
		arr := pq.StringArray(*req.ResearchAreas)
		patch.ResearchAreas = &arr
	}

	updated, err := s.repo.UpdateSparse(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	return updated, nil
}
