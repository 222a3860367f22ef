package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/service"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
	"github.com/noel-arch/mentor-match-api/pkg/response"
)

// MentorshipHandler handles the mentorship request lifecycle endpoints.
type MentorshipHandler struct {
	service *service.MentorshipService
}

// NewMentorshipHandler creates a new mentorship handler.
func NewMentorshipHandler(svc *service.MentorshipService) *MentorshipHandler {
	return &MentorshipHandler{service: svc}
}

// Create godoc
// @Summary Submit mentorship request
// @Description Student files a mentorship request against a lecturer
// @Tags Mentorships
// @Accept json
// @Produce json
// @Param payload body service.CreateMentorshipRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /mentorships [post]
func (h *MentorshipHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateMentorshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mentorship payload"))
		return
	}

	res, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// List godoc
// @Summary List mentorships
// @Description List mentorships visible to the caller, filterable by party and status
// @Tags Mentorships
// @Produce json
// @Param student_id query string false "Student filter (admin only)"
// @Param lecturer_id query string false "Lecturer filter (admin only)"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /mentorships [get]
func (h *MentorshipHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.MentorshipFilter{
		StudentID:  c.Query("student_id"),
		LecturerID: c.Query("lecturer_id"),
	}
	if status := c.Query("status"); status != "" {
		st := models.MentorshipStatus(status)
		if !st.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status filter"))
			return
		}
		filter.Status = &st
	}

	items, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get mentorship
// @Description Get a single mentorship; only parties and admins can see it
// @Tags Mentorships
// @Produce json
// @Param id path string true "Mentorship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mentorships/{id} [get]
func (h *MentorshipHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Patch godoc
// @Summary Update mentorship
// @Description Review a pending request or maintain an active/completed one
// @Tags Mentorships
// @Accept json
// @Produce json
// @Param id path string true "Mentorship ID"
// @Param payload body service.PatchMentorshipRequest true "Sparse update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mentorships/{id} [patch]
func (h *MentorshipHandler) Patch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PatchMentorshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	res, err := h.service.Patch(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete mentorship
// @Description Remove a mentorship record (admin only)
// @Tags Mentorships
// @Produce json
// @Param id path string true "Mentorship ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mentorships/{id} [delete]
func (h *MentorshipHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
