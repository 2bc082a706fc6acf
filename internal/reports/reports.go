// Package reports renders analytics snapshots into downloadable documents:
// a multi-sheet Excel workbook, a paginated PDF and standalone PNG charts.
package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/taskflow-api/internal/analytics"
	"github.com/yukikurage/taskflow-api/internal/models"
)

type Format string

const (
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

var (
	ErrUnknownFormat = errors.New("unknown report format")
	ErrRenderFailed  = errors.New("report rendering failed")
)

// ParseFormat accepts xlsx (or excel) and pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Meta describes who generated a document and for which window.
type Meta struct {
	Period      analytics.Period
	GeneratedAt time.Time
	GeneratedBy string
}

// Request is the input to Generator.Generate.
type Request struct {
	Format            Format
	Period            analytics.Period
	GeneratedBy       string
	IncludeUnassigned bool
}

// Report is a finished document.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
	Snapshot    analytics.Snapshot
}

// ExcelFilename is TaskFlow_Report_<date>.xlsx.
func ExcelFilename(now time.Time) string {
	return fmt.Sprintf("TaskFlow_Report_%s.xlsx", now.Format(dateLayout))
}

// PDFFilename is TaskFlow_<Label>_Report_<date>.pdf.
func PDFFilename(p analytics.Period, now time.Time) string {
	return fmt.Sprintf("TaskFlow_%s_Report_%s.pdf", p.Label(), now.Format(dateLayout))
}

// Generator runs the filter, aggregate and render pipeline.
type Generator struct {
	now        func() time.Time
	buildExcel builder
	buildPDF   builder
}

type builder func([]models.Task, analytics.Snapshot, Meta) ([]byte, error)

// NewGenerator creates a Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{
		now:        time.Now,
		buildExcel: BuildExcel,
		buildPDF:   BuildPDF,
	}
}

// WithClock overrides the time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate filters tasks to the requested period, aggregates them and renders
// the document. Panics raised inside the rendering libraries are returned as
// ErrRenderFailed and no partial document is produced.
func (g *Generator) Generate(tasks []models.Task, req Request) (*Report, error) {
	now := g.now()
	if req.Period == "" {
		req.Period = analytics.PeriodAll
	}

	scoped := analytics.FilterByPeriod(tasks, req.Period, now)
	snap := analytics.Aggregate(scoped, now, analytics.Options{IncludeUnassigned: req.IncludeUnassigned})
	meta := Meta{Period: req.Period, GeneratedAt: now, GeneratedBy: req.GeneratedBy}

	var (
		build    builder
		filename string
	)
	switch req.Format {
	case FormatExcel:
		build, filename = g.buildExcel, ExcelFilename(now)
	case FormatPDF:
		build, filename = g.buildPDF, PDFFilename(req.Period, now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}

	data, err := safeBuild(build, scoped, snap, meta)
	if err != nil {
		return nil, err
	}

	return &Report{
		Filename:    filename,
		ContentType: req.Format.ContentType(),
		Data:        data,
		Snapshot:    snap,
	}, nil
}

func safeBuild(build builder, tasks []models.Task, snap analytics.Snapshot, meta Meta) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrRenderFailed, r)
		}
	}()

	data, err = build(tasks, snap, meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return data, nil
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func formatDue(due *time.Time) string {
	if due == nil || due.IsZero() {
		return "No Due Date"
	}
	return due.Format(dateLayout)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
