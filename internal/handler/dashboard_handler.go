package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noel-arch/mentor-match-api/internal/dto"
	"github.com/noel-arch/mentor-match-api/internal/models"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
	"github.com/noel-arch/mentor-match-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error)
	Lecturer(ctx context.Context, lecturerID string) (*dto.LecturerDashboardResponse, bool, error)
	Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, bool, error)
}

// DashboardHandler serves the role-scoped dashboards.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Admin godoc
// @Summary Admin dashboard
// @Description Platform-wide counts and recent activity
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboards/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	res, cached, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil, response.CacheHit(cached))
}

// Lecturer godoc
// @Summary Lecturer dashboard
// @Description Request queue and mentee stats for the calling lecturer
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/lecturer [get]
func (h *DashboardHandler) Lecturer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleLecturer && claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	lecturerID := claims.UserID
	if claims.Role == models.RoleAdmin {
		if id := c.Query("lecturer_id"); id != "" {
			lecturerID = id
		}
	}

	res, cached, err := h.service.Lecturer(c.Request.Context(), lecturerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil, response.CacheHit(cached))
}

// Student godoc
// @Summary Student dashboard
// @Description Mentorship progress summary for the calling student
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleStudent && claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	studentID := claims.UserID
	if claims.Role == models.RoleAdmin {
		if id := c.Query("student_id"); id != "" {
			studentID = id
		}
	}

	res, cached, err := h.service.Student(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil, response.CacheHit(cached))
}
