package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/dto"
	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/repository"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
)

type mentorshipRepository interface {
	Create(ctx context.Context, m *models.Mentorship) error
	FindByID(ctx context.Context, id string) (*models.MentorshipDetail, error)
	List(ctx context.Context, filter models.MentorshipFilter) ([]models.MentorshipDetail, error)
	UpdateSparse(ctx context.Context, id string, patch models.MentorshipPatch) (*models.Mentorship, error)
	Delete(ctx context.Context, id string) error
}

type mentorshipUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type mentorshipAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type mentorshipCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// CreateMentorshipRequest is the submission payload. Students always file as
// themselves; StudentID is honoured for admin callers only.
type CreateMentorshipRequest struct {
	StudentID  string     `json:"student_id"`
	LecturerID string     `json:"lecturer_id" validate:"required"`
	Goals      string     `json:"goals" validate:"required"`
	Notes      string     `json:"notes"`
	StartDate  *time.Time `json:"start_date"`
}

// PatchMentorshipRequest is the sparse update payload. Rating is bounded to
// 1-5 when present.
type PatchMentorshipRequest struct {
	Status    *models.MentorshipStatus `json:"status"`
	Notes     *string                  `json:"notes"`
	Rating    *int                     `json:"rating" validate:"omitempty,min=1,max=5"`
	Feedback  *string                  `json:"feedback"`
	StartDate *time.Time               `json:"start_date"`
}

// MentorshipService owns the request lifecycle: submission, review,
// maintenance and deletion.
type MentorshipService struct {
	repo        mentorshipRepository
	users       mentorshipUserReader
	audit       mentorshipAuditWriter
	invalidator mentorshipCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMentorshipService creates an instance of MentorshipService. invalidator
// may be nil when dashboards are not cached.
func NewMentorshipService(repo mentorshipRepository, users mentorshipUserReader, audit mentorshipAuditWriter, invalidator mentorshipCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *MentorshipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MentorshipService{repo: repo, users: users, audit: audit, invalidator: invalidator, validator: validate, logger: logger}
}

// Create submits a new request in the PENDING state. The partial unique
// index on the pending pair makes the duplicate check atomic; concurrent
// submissions cannot both land.
func (s *MentorshipService) Create(ctx context.Context, req CreateMentorshipRequest, actor *models.JWTClaims) (*dto.MentorshipResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mentorship payload")
	}

	studentID := actor.UserID
	switch actor.Role {
	case models.RoleStudent:
		if req.StudentID != "" && req.StudentID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only request mentorship for themselves")
		}
	case models.RoleAdmin:
		if req.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required for admin submissions")
		}
		student, err := s.users.FindByID(ctx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrUnprocessable, "student does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if student.Role != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrUnprocessable, "requesting user is not a student")
		}
		studentID = req.StudentID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "lecturers cannot submit mentorship requests")
	}

	lecturer, err := s.users.FindByID(ctx, req.LecturerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnprocessable, "lecturer does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if lecturer.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrUnprocessable, "addressed user is not a lecturer")
	}

	m := &models.Mentorship{
		StudentID:  studentID,
		LecturerID: req.LecturerID,
		Status:     models.MentorshipPending,
		Goals:      req.Goals,
		Notes:      req.Notes,
		StartDate:  req.StartDate,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mentorship request")
	}

	detail, err := s.repo.FindByID(ctx, m.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created request")
	}
	s.invalidateCaches(ctx)

	resp := dto.NewMentorshipResponse(*detail)
	return &resp, nil
}

func (s *MentorshipService) invalidateCaches(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// List returns requests visible to the actor. Students and lecturers are
// always pinned to their own rows regardless of the requested filter.
func (s *MentorshipService) List(ctx context.Context, filter models.MentorshipFilter, actor *models.JWTClaims) ([]dto.MentorshipResponse, error) {
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	case models.RoleLecturer:
		filter.LecturerID = actor.UserID
	}

	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mentorships")
	}
	return dto.NewMentorshipResponses(details), nil
}

// Get returns a single request if the actor is a party to it or an admin.
func (s *MentorshipService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.MentorshipResponse, error) {
	detail, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	resp := dto.NewMentorshipResponse(*detail)
	return &resp, nil
}

// Patch applies a sparse update. Status changes are checked against the
// transition table and against the actor:
// review moves (PENDING to ACTIVE or REJECTED) belong to the addressed
// lecturer, rating and feedback to the student once the mentorship is
// completed. Admins may do either.
func (s *MentorshipService) Patch(ctx context.Context, id string, req PatchMentorshipRequest, actor *models.JWTClaims) (*dto.MentorshipResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid patch payload")
	}

	patch := models.MentorshipPatch{
		Status:    req.Status,
		Notes:     req.Notes,
		Rating:    req.Rating,
		Feedback:  req.Feedback,
		StartDate: req.StartDate,
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}

	current, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status value")
		}
		if !current.Status.CanTransition(*req.Status) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "")
		}
		if current.Status == models.MentorshipPending && actor.Role == models.RoleLecturer && current.LecturerID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only the addressed lecturer may review this request")
		}
		if current.Status == models.MentorshipPending && actor.Role == models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot review their own requests")
		}
	}

	if req.Rating != nil || req.Feedback != nil {
		if actor.Role == models.RoleLecturer {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "rating and feedback belong to the student")
		}
		// The review lands together with the closing patch or after it,
		// never while the mentorship is still open.
		effective := current.Status
		if req.Status != nil {
			effective = *req.Status
		}
		if effective != models.MentorshipCompleted {
			return nil, appErrors.Clone(appErrors.ErrUnprocessable, "rating and feedback are only accepted on a completed mentorship")
		}
	}

	if _, err := s.repo.UpdateSparse(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mentorship")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load updated request")
	}
	s.invalidateCaches(ctx)

	resp := dto.NewMentorshipResponse(*detail)
	return &resp, nil
}

// Delete removes a request permanently. Admin only; the handler enforces the
// role, the service records the audit trail.
func (s *MentorshipService) Delete(ctx context.Context, id string, actor *models.JWTClaims, meta models.LoginRequest) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentorship")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mentorship")
	}

	if s.audit != nil {
		oldPayload, _ := json.Marshal(map[string]interface{}{
			"student_id":  current.StudentID,
			"lecturer_id": current.LecturerID,
			"status":      current.Status,
		})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionMentorshipDelete,
			Resource:   "mentorships",
			ResourceID: &id,
			OldValues:  oldPayload,
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record mentorship delete audit log", zap.Error(err))
		}
	}
	s.invalidateCaches(ctx)

	return nil
}

func (s *MentorshipService) loadVisible(ctx context.Context, id string, actor *models.JWTClaims) (*models.MentorshipDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentorship")
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		if detail.StudentID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
	case models.RoleLecturer:
		if detail.LecturerID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mentorship not found")
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	return detail, nil
}
