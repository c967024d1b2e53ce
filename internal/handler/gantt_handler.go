package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
	"github.com/noah-isme/crew-booking-api/pkg/response"
)

type ganttService interface {
	Aggregate(ctx context.Context, start, end time.Time, filter models.GanttFilter) ([]models.GanttRow, error)
	Export(ctx context.Context, start, end time.Time, filter models.GanttFilter, format string) (*dto.GanttExport, error)
}

// GanttHandler serves the timeline view and its exports.
type GanttHandler struct {
	service ganttService
}

// NewGanttHandler builds the handler.
func NewGanttHandler(service ganttService) *GanttHandler {
	return &GanttHandler{service: service}
}

// Get godoc
// @Summary Timeline rows for a window
// @Tags Gantt
// @Produce json
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param project_id query []string false "Project filter"
// @Param user_id query []string false "User filter"
// @Param status query []string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /gantt [get]
func (h *GanttHandler) Get(c *gin.Context) {
	query, start, end, ok := bindGanttQuery(c)
	if !ok {
		return
	}
	rows, err := h.service.Aggregate(c.Request.Context(), start, end, ganttFilter(query))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.GanttResponse{Rows: rows, Projects: models.GroupByProject(rows)},
		map[string]interface{}{"start_date": query.StartDate, "end_date": query.EndDate, "count": len(rows)})
}

// Export godoc
// @Summary Download the timeline as CSV or PDF
// @Tags Gantt
// @Produce text/csv
// @Produce application/pdf
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /gantt/export [get]
func (h *GanttHandler) Export(c *gin.Context) {
	query, start, end, ok := bindGanttQuery(c)
	if !ok {
		return
	}
	doc, err := h.service.Export(c.Request.Context(), start, end, ganttFilter(query), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Content)
}

func bindGanttQuery(c *gin.Context) (dto.GanttQuery, time.Time, time.Time, bool) {
	var query dto.GanttQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gantt query"))
		return query, time.Time{}, time.Time{}, false
	}
	start, end, err := parseWindow(query.StartDate, query.EndDate)
	if err != nil {
		response.Error(c, err)
		return query, time.Time{}, time.Time{}, false
	}
	return query, start, end, true
}

func ganttFilter(query dto.GanttQuery) models.GanttFilter {
	filter := models.GanttFilter{ProjectIDs: query.ProjectIDs, UserIDs: query.UserIDs}
	for _, raw := range query.Statuses {
		filter.Statuses = append(filter.Statuses, models.ParseBookingStatus(raw))
	}
	return filter
}
