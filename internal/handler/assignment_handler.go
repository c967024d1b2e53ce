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

type assignmentService interface {
	Create(ctx context.Context, req dto.CreateAssignmentRequest) (*dto.CreateAssignmentResponse, error)
	Get(ctx context.Context, id string) (*models.AssignmentWithDays, error)
	Delete(ctx context.Context, id string) error
}

type assignmentDayService interface {
	AddDays(ctx context.Context, assignmentID string, req dto.AddDaysRequest) ([]models.AssignmentDay, error)
	UpdateDay(ctx context.Context, dayID string, req dto.UpdateDayRequest) (*models.AssignmentDay, error)
	MoveDay(ctx context.Context, dayID string, req dto.MoveDayRequest) (*models.AssignmentDay, error)
	RemoveDays(ctx context.Context, req dto.RemoveDaysRequest) (*dto.RemoveDaysResponse, error)
	CycleStatus(ctx context.Context, assignmentID string) (*dto.StatusResponse, error)
}

type bulkStatusService interface {
	BulkUpdateStatus(ctx context.Context, req dto.BulkStatusRequest) (*dto.BulkResult, error)
}

// AssignmentHandler exposes booking and day management endpoints.
type AssignmentHandler struct {
	assignments assignmentService
	days        assignmentDayService
	bulk        bulkStatusService
}

// NewAssignmentHandler builds the handler.
func NewAssignmentHandler(assignments assignmentService, days assignmentDayService, bulk bulkStatusService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, days: days, bulk: bulk}
}

// Create godoc
// @Summary Book a person on a project
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	resp, err := h.assignments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, resp.Assignment, map[string]interface{}{"conflicts": resp.Conflicts})
}

// Get godoc
// @Summary Get an assignment with its days
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	item, err := h.assignments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Delete godoc
// @Summary Delete an assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CycleStatus godoc
// @Summary Advance the booking status
// @Description draft → pending_confirm → confirmed → draft
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/cycle-status [post]
func (h *AssignmentHandler) CycleStatus(c *gin.Context) {
	resp, err := h.days.CycleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// BulkStatus godoc
// @Summary Set the booking status of many assignments
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.BulkStatusRequest true "Bulk status payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/bulk-status [post]
func (h *AssignmentHandler) BulkStatus(c *gin.Context) {
	var req dto.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk status payload"))
		return
	}
	result, err := h.bulk.BulkUpdateStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// AddDays godoc
// @Summary Add days to an assignment
// @Tags Assignment Days
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.AddDaysRequest true "Days"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/days [post]
func (h *AssignmentHandler) AddDays(c *gin.Context) {
	var req dto.AddDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid days payload"))
		return
	}
	days, err := h.days.AddDays(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, days)
}

// UpdateDay godoc
// @Summary Change the working hours of a day
// @Tags Assignment Days
// @Accept json
// @Produce json
// @Param dayId path string true "Day ID"
// @Param payload body dto.UpdateDayRequest true "Times"
// @Success 200 {object} response.Envelope
// @Router /assignment-days/{dayId} [patch]
func (h *AssignmentHandler) UpdateDay(c *gin.Context) {
	var req dto.UpdateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day payload"))
		return
	}
	day, err := h.days.UpdateDay(c.Request.Context(), c.Param("dayId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day)
}

// MoveDay godoc
// @Summary Move a day to another date
// @Tags Assignment Days
// @Accept json
// @Produce json
// @Param dayId path string true "Day ID"
// @Param payload body dto.MoveDayRequest true "Target date"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignment-days/{dayId}/move [post]
func (h *AssignmentHandler) MoveDay(c *gin.Context) {
	var req dto.MoveDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	day, err := h.days.MoveDay(c.Request.Context(), c.Param("dayId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day)
}

// RemoveDays godoc
// @Summary Remove days
// @Tags Assignment Days
// @Accept json
// @Produce json
// @Param payload body dto.RemoveDaysRequest true "Day IDs"
// @Success 200 {object} response.Envelope
// @Router /assignment-days/remove [post]
func (h *AssignmentHandler) RemoveDays(c *gin.Context) {
	var req dto.RemoveDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid remove payload"))
		return
	}
	resp, err := h.days.RemoveDays(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
