package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
	"github.com/noah-isme/school-track-api/pkg/export"
)

type attendanceQuerier interface {
	QueryAll(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter) ([]models.FlattenedAttendanceRecord, error)
}

// ExportFormat enumerates supported attendance export renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// AttendanceExportService renders a scoped, filtered attendance row set as a
// downloadable document. It reuses the query engine, so exports can never
// leak rows a paginated view would hide.
type AttendanceExportService struct {
	engine *AttendanceQueryService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
}

// NewAttendanceExportService constructs the export service.
func NewAttendanceExportService(engine *AttendanceQueryService) *AttendanceExportService {
	return &AttendanceExportService{
		engine: engine,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
	}
}

var exportHeaders = []string{"Date", "Student", "Roll Number", "Class", "Subject", "Status"}

// Export materializes the full filtered row set and renders it.
func (s *AttendanceExportService) Export(ctx context.Context, scope models.AttendanceScope, filter models.AttendanceFilter, format ExportFormat) ([]byte, string, error) {
	records, err := s.engine.QueryAll(ctx, scope, filter)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(records))}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":        record.Date.Format("2006-01-02"),
			"Student":     record.StudentName,
			"Roll Number": strconv.Itoa(record.RollNumber),
			"Class":       record.ClassName,
			"Subject":     record.SubjectName,
			"Status":      string(record.Status),
		})
	}

	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Attendance Records")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format, expected csv or pdf")
	}
}
