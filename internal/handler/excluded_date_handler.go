package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
	"github.com/noah-isme/crew-booking-api/pkg/response"
)

type excludedDateService interface {
	AddExcludedDates(ctx context.Context, assignmentID string, req dto.AddExcludedDatesRequest) ([]models.ExcludedDate, error)
	RemoveExcludedDate(ctx context.Context, id string) error
}

type bulkExclusionService interface {
	BulkRemoveExcludedDates(ctx context.Context, req dto.BulkIDsRequest) (*dto.BulkResult, error)
}

// ExcludedDateHandler manages dates carved out of assignments.
type ExcludedDateHandler struct {
	service excludedDateService
	bulk    bulkExclusionService
}

// NewExcludedDateHandler builds the handler.
func NewExcludedDateHandler(service excludedDateService, bulk bulkExclusionService) *ExcludedDateHandler {
	return &ExcludedDateHandler{service: service, bulk: bulk}
}

// Add godoc
// @Summary Exclude dates from an assignment
// @Tags Excluded Dates
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.AddExcludedDatesRequest true "Dates"
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/excluded-dates [post]
func (h *ExcludedDateHandler) Add(c *gin.Context) {
	var req dto.AddExcludedDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid excluded dates payload"))
		return
	}
	items, err := h.service.AddExcludedDates(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, items)
}

// Remove godoc
// @Summary Remove an excluded date
// @Tags Excluded Dates
// @Param id path string true "Excluded date ID"
// @Success 204
// @Router /excluded-dates/{id} [delete]
func (h *ExcludedDateHandler) Remove(c *gin.Context) {
	if err := h.service.RemoveExcludedDate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkRemove godoc
// @Summary Remove many excluded dates
// @Tags Excluded Dates
// @Accept json
// @Produce json
// @Param payload body dto.BulkIDsRequest true "IDs"
// @Success 200 {object} response.Envelope
// @Router /excluded-dates/bulk-remove [post]
func (h *ExcludedDateHandler) BulkRemove(c *gin.Context) {
	var req dto.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk payload"))
		return
	}
	result, err := h.bulk.BulkRemoveExcludedDates(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
