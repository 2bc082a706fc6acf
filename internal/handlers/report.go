package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/analytics"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/reports"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// ReportHandler serves the analytics snapshot, its charts and the
// downloadable documents.
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func analyticsInput(c *gin.Context) (services.AnalyticsInput, bool) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		respondReportError(c, err)
		return services.AnalyticsInput{}, false
	}
	return services.AnalyticsInput{
		Period:            period,
		IncludeUnassigned: queryBool(c, "include_unassigned"),
	}, true
}

func (h *ReportHandler) Analytics(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	input, ok := analyticsInput(c)
	if !ok {
		return
	}

	snap, err := h.reports.Analytics(actor, input)
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Chart returns a handler rendering the given chart kind as PNG.
func (h *ReportHandler) Chart(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			apierrors.Unauthorized(c, "Not authenticated")
			return
		}
		input, ok := analyticsInput(c)
		if !ok {
			return
		}

		png, err := h.reports.Chart(actor, kind, input)
		if err != nil {
			respondReportError(c, err)
			return
		}

		c.Data(http.StatusOK, "image/png", png)
	}
}

// Download renders the requested report and sends it as an attachment.
// Nothing is written until the document is complete.
func (h *ReportHandler) Download(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	input, ok := analyticsInput(c)
	if !ok {
		return
	}
	format, err := reports.ParseFormat(c.DefaultQuery("format", string(reports.FormatExcel)))
	if err != nil {
		respondReportError(c, err)
		return
	}

	report, err := h.reports.Download(c.Request.Context(), actor, services.DownloadInput{
		Format:            format,
		Period:            input.Period,
		IncludeUnassigned: input.IncludeUnassigned,
	})
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
