package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noel-arch/mentor-match-api/internal/service"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
	"github.com/noel-arch/mentor-match-api/pkg/response"
)

// ProfileHandler handles role-specific profile endpoints.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// List godoc
// @Summary List profiles
// @Description List profiles, optionally scoped to a single user
// @Tags Profiles
// @Produce json
// @Param user_id query string false "Owner filter"
// @Success 200 {object} response.Envelope
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.service.List(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profiles, nil)
}

// Get godoc
// @Summary Get profile
// @Description Get profile detail with owner info
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}

// Create godoc
// @Summary Create profile
// @Description Create a profile for the caller (or any user, when admin)
// @Tags Profiles
// @Accept json
// @Produce json
// @Param payload body service.CreateProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /profiles [post]
func (h *ProfileHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	if req.UserID == "" {
		req.UserID = claims.UserID
	}

	profile, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, profile)
}

// Patch godoc
// @Summary Update profile
// @Description Sparse update of a profile; only the owner or an admin may edit
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body service.PatchProfileRequest true "Sparse update payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profiles/{id} [patch]
func (h *ProfileHandler) Patch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PatchProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	profile, err := h.service.Patch(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}
