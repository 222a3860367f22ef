package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
	"github.com/noel-arch/mentor-match-api/internal/service"
)

type fakeReportSource struct {
	details    []models.MentorshipDetail
	lastFilter models.MentorshipFilter
}

func (f *fakeReportSource) List(ctx context.Context, filter models.MentorshipFilter) ([]models.MentorshipDetail, error) {
	f.lastFilter = filter
	return f.details, nil
}

func newReportHandler(source *fakeReportSource) *ReportHandler {
	return NewReportHandler(service.NewReportService(source, zap.NewNop()))
}

func TestReportHandlerCSVDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	source := &fakeReportSource{details: []models.MentorshipDetail{
		{Mentorship: models.Mentorship{ID: "m1", Status: models.MentorshipActive, Goals: "systems research"}, StudentName: "Sari", LecturerName: "Dr. Wijaya"},
	}}
	handler := newReportHandler(source)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/mentorships", nil)

	handler.Mentorships(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, ".csv")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "ID,Student,Lecturer,Status,Goals,Rating,Created"))
	assert.Contains(t, body, "m1,Sari,Dr. Wijaya,ACTIVE")
}

func TestReportHandlerPDFDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandler(&fakeReportSource{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/mentorships?format=pdf", nil)

	handler.Mentorships(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestReportHandlerStatusFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	source := &fakeReportSource{}
	handler := newReportHandler(source)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/mentorships?status=COMPLETED&lecturer_id=lec-1", nil)

	handler.Mentorships(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lec-1", source.lastFilter.LecturerID)
	if assert.NotNil(t, source.lastFilter.Status) {
		assert.Equal(t, models.MentorshipCompleted, *source.lastFilter.Status)
	}
}

func TestReportHandlerUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandler(&fakeReportSource{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/mentorships?format=xlsx", nil)

	handler.Mentorships(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandlerUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandler(&fakeReportSource{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/mentorships?status=STALLED", nil)

	handler.Mentorships(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
