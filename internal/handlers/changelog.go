package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/utils"
)

const dateLayout = "2006-01-02"

type ChangeLogHandler struct {
	changeLogs *services.ChangeLogService
}

func NewChangeLogHandler(changeLogs *services.ChangeLogService) *ChangeLogHandler {
	return &ChangeLogHandler{changeLogs: changeLogs}
}

// parseDate accepts YYYY-MM-DD or RFC 3339. A bare end date covers the
// whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func changeLogFilter(c *gin.Context) (repository.ChangeLogFilter, bool) {
	params := utils.GetPaginationParamsWithDefault(c, constants.DefaultChangeLogLimit)
	filter := repository.ChangeLogFilter{
		EventType:  c.Query("event_type"),
		TargetType: c.Query("target_type"),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       params.Page,
		PageSize:   params.Limit,
	}

	var err error
	if filter.StartDate, err = parseDate(c.Query("start_date"), false); err != nil {
		apierrors.BadRequest(c, "Invalid start_date")
		return filter, false
	}
	if filter.EndDate, err = parseDate(c.Query("end_date"), true); err != nil {
		apierrors.BadRequest(c, "Invalid end_date")
		return filter, false
	}
	return filter, true
}

func (h *ChangeLogHandler) ListChangeLogs(c *gin.Context) {
	filter, ok := changeLogFilter(c)
	if !ok {
		return
	}

	page, err := h.changeLogs.List(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch change logs")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *ChangeLogHandler) Stats(c *gin.Context) {
	stats, err := h.changeLogs.Stats()
	if err != nil {
		apierrors.InternalError(c, "Failed to compute change log statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ChangeLogHandler) EventTypes(c *gin.Context) {
	types, err := h.changeLogs.EventTypes()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch event types")
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_types": types})
}

// Export streams every matching entry as a CSV attachment.
func (h *ChangeLogHandler) Export(c *gin.Context) {
	filter, ok := changeLogFilter(c)
	if !ok {
		return
	}

	data, filename, err := h.changeLogs.ExportCSV(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to export change logs")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Clear deletes entries older than ?days (default 90).
func (h *ChangeLogHandler) Clear(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(constants.DefaultChangeLogMaxAge)))
	if err != nil {
		apierrors.BadRequest(c, "Invalid days")
		return
	}

	deleted, err := h.changeLogs.Clear(days)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRetention) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to clear change logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
