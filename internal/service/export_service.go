package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/export"
)

// ExportFormat names a supported export document type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{"ID", "Name", "ID Number", "Email", "Course", "Evaluative Component", "Reason", "Submitted At", "Status", "Remarks"}

// ExportResult is a rendered export ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ExportService renders the filtered view of a review dashboard.
type ExportService struct {
	exporters map[ExportFormat]export.Exporter
	location  *time.Location
	enabled   bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Timestamps are rendered in loc.
func NewExportService(enabled bool, loc *time.Location, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{
		exporters: map[ExportFormat]export.Exporter{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		location: loc,
		enabled:  enabled,
		logger:   logger,
		now:      time.Now,
	}
}

// ParseExportFormat validates a user supplied format, defaulting to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// Export renders every request of the view matching its search and dates.
func (s *ExportService) Export(view *ReviewView, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.ErrFeatureDisabled
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	requests := view.Filtered()
	dataset := export.Dataset{
		Title:   fmt.Sprintf("%s makeup requests: %s", view.CourseCode(), view.Tab()),
		Headers: exportHeaders,
		Rows:    make([]map[string]string, 0, len(requests)),
	}
	for _, req := range requests {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":                   req.ID,
			"Name":                 req.Name,
			"ID Number":            req.IDNumber,
			"Email":                req.Email,
			"Course":               req.CourseCode,
			"Evaluative Component": req.EvalComponent,
			"Reason":               deref(req.Reason),
			"Submitted At":         req.SubmittedAt.In(s.location).Format("2006-01-02 15:04"),
			"Status":               string(req.Status),
			"Remarks":              req.Remarks(),
		})
	}

	payload, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render export")
	}
	s.logger.Debug("makeup export rendered", zap.String("course", view.CourseCode()), zap.String("format", string(format)), zap.Int("rows", len(requests)))

	return &ExportResult{
		Filename:    s.buildFilename(view, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Payload:     payload,
		Rows:        len(requests),
	}, nil
}

func (s *ExportService) buildFilename(view *ReviewView, ext string) string {
	timestamp := s.now().In(s.location).Format("20060102_150405")
	return fmt.Sprintf("makeups_%s_%s_%s.%s", sanitizeFilename(view.CourseCode()), strings.ToLower(string(view.Tab())), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
