package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noel-arch/mentor-match-api/internal/models"
	appErrors "github.com/noel-arch/mentor-match-api/pkg/errors"
	"github.com/noel-arch/mentor-match-api/pkg/export"
)

type reportSource interface {
	List(ctx context.Context, filter models.MentorshipFilter) ([]models.MentorshipDetail, error)
}

// ReportFormat names the supported export encodings.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

// ReportService flattens mentorship records into downloadable exports for
// administrators.
type ReportService struct {
	source reportSource
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewReportService creates an instance of ReportService.
func NewReportService(source reportSource, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		source: source,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var reportHeaders = []string{"ID", "Student", "Lecturer", "Status", "Goals", "Rating", "Created"}

// MentorshipReport renders all mentorships matching the filter in the
// requested format and returns the bytes plus a content type.
func (s *ReportService) MentorshipReport(ctx context.Context, filter models.MentorshipFilter, format ReportFormat) ([]byte, string, error) {
	details, err := s.source.List(ctx, filter)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentorships for report")
	}

	dataset := export.Dataset{Headers: reportHeaders, Rows: make([]map[string]string, 0, len(details))}
	for _, d := range details {
		rating := ""
		if d.Rating != nil {
			rating = strconv.Itoa(*d.Rating)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":       d.ID,
			"Student":  d.StudentName,
			"Lecturer": d.LecturerName,
			"Status":   string(d.Status),
			"Goals":    d.Goals,
			"Rating":   rating,
			"Created":  d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	switch format {
	case ReportCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	case ReportPDF:
		payload, err := s.pdf.Render(dataset, "Mentorship Requests")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}
