package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/service"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
	"github.com/noel-arch/mentor-match-api/pkg/response"
)

// ReportHandler streams mentorship exports to administrators.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Mentorships godoc
// @Summary Export mentorships
// @Description Download the mentorship register as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "Status filter"
// @Param lecturer_id query string false "Lecturer filter"
// @Param student_id query string false "Student filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/mentorships [get]
func (h *ReportHandler) Mentorships(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))
	if format != service.ReportCSV && format != service.ReportPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
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

	payload, contentType, err := h.service.MentorshipReport(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("mentorships-%s.%s", time.Now().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
