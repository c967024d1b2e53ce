package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
	"github.com/noah-isme/crew-booking-api/pkg/response"
)

type confirmationService interface {
	Create(ctx context.Context, req dto.CreateConfirmationRequest) (*dto.ConfirmationResponse, error)
	Respond(ctx context.Context, req dto.RespondConfirmationRequest) (*dto.ConfirmationResponse, error)
}

// ConfirmationHandler sends approval requests and records customer answers.
type ConfirmationHandler struct {
	service confirmationService
}

// NewConfirmationHandler builds the handler.
func NewConfirmationHandler(service confirmationService) *ConfirmationHandler {
	return &ConfirmationHandler{service: service}
}

// Create godoc
// @Summary Ask a customer to confirm assignments
// @Tags Confirmations
// @Accept json
// @Produce json
// @Param payload body dto.CreateConfirmationRequest true "Request"
// @Success 201 {object} response.Envelope
// @Router /confirmations [post]
func (h *ConfirmationHandler) Create(c *gin.Context) {
	var req dto.CreateConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}
	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Respond godoc
// @Summary Record a customer decision
// @Tags Confirmations
// @Accept json
// @Produce json
// @Param payload body dto.RespondConfirmationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /confirmations/respond [post]
func (h *ConfirmationHandler) Respond(c *gin.Context) {
	var req dto.RespondConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation response"))
		return
	}
	resp, err := h.service.Respond(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
