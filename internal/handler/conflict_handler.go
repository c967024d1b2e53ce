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

type conflictService interface {
	FindConflicts(ctx context.Context, userID string, start, end time.Time, excludeAssignmentID string) ([]models.Conflict, error)
	OverrideConflict(ctx context.Context, conflictID, reason string) (*models.ConflictOverride, error)
}

// ConflictHandler reports and acknowledges double bookings.
type ConflictHandler struct {
	service conflictService
}

// NewConflictHandler builds the handler.
func NewConflictHandler(service conflictService) *ConflictHandler {
	return &ConflictHandler{service: service}
}

// List godoc
// @Summary Find bookings of a user overlapping a range
// @Tags Conflicts
// @Produce json
// @Param user_id query string true "User ID"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Param exclude_assignment_id query string false "Assignment being checked"
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) List(c *gin.Context) {
	var query dto.ConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict query"))
		return
	}
	if query.UserID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id is required"))
		return
	}
	start, end, err := parseWindow(query.StartDate, query.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	conflicts, err := h.service.FindConflicts(c.Request.Context(), query.UserID, start, end, query.ExcludeAssignmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts)
}

// Override godoc
// @Summary Acknowledge a conflict
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param id path string true "Conflict ID"
// @Param payload body dto.OverrideConflictRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /conflicts/{id}/override [post]
func (h *ConflictHandler) Override(c *gin.Context) {
	var req dto.OverrideConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	override, err := h.service.OverrideConflict(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override)
}

func parseWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := models.ParseDate(rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := models.ParseDate(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}
