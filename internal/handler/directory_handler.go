package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/service"
	"github.com/noel-arch/mentor-match-api/pkg/response"
)

// DirectoryHandler serves the browsable lecturer directory.
type DirectoryHandler struct {
	service *service.DirectoryService
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(svc *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: svc}
}

// List godoc
// @Summary Browse lecturers
// @Description Search and filter the lecturer directory server-side
// @Tags Directory
// @Produce json
// @Param search query string false "Free-text search over name, email, department, expertise"
// @Param department query string false "Department filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lecturers [get]
func (h *DirectoryHandler) List(c *gin.Context) {
	filter := models.DirectoryFilter{
		Search:     c.Query("search"),
		Department: c.Query("department"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	lecturers, pagination, cached, err := h.service.ListLecturers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, lecturers, pagination, response.CacheHit(cached))
}

// Departments godoc
// @Summary List departments
// @Description Distinct departments represented in lecturer profiles
// @Tags Directory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lecturers/departments [get]
func (h *DirectoryHandler) Departments(c *gin.Context) {
	departments, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, departments, nil)
}
