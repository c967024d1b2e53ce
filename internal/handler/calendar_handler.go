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

type calendarConnectionService interface {
	AuthorizeURL(ctx context.Context, userID, provider string) (string, error)
	HandleCallback(ctx context.Context, provider, code, state string) (*models.CalendarConnection, error)
	Disconnect(ctx context.Context, id string) error
}

type calendarSyncService interface {
	FullSyncForUser(ctx context.Context, userID string) (*dto.FullSyncResult, error)
	RetrySyncForAssignment(ctx context.Context, userID, assignmentID string) (*dto.RetrySyncResult, error)
	GetSyncErrors(ctx context.Context, userID string) ([]models.SyncErrorView, error)
	DismissSyncError(ctx context.Context, id string) error
	GetActiveConnections(ctx context.Context, userID string) ([]models.CalendarConnection, error)
}

// CalendarHandler exposes calendar connections and sync controls.
type CalendarHandler struct {
	connections calendarConnectionService
	sync        calendarSyncService
}

// NewCalendarHandler builds the handler.
func NewCalendarHandler(connections calendarConnectionService, sync calendarSyncService) *CalendarHandler {
	return &CalendarHandler{connections: connections, sync: sync}
}

// ListConnections godoc
// @Summary List a user's calendar connections
// @Tags Calendar
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/calendar-connections [get]
func (h *CalendarHandler) ListConnections(c *gin.Context) {
	conns, err := h.sync.GetActiveConnections(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conns)
}

// Authorize godoc
// @Summary Start the OAuth consent flow
// @Tags Calendar
// @Produce json
// @Param provider path string true "Provider"
// @Param user_id query string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /calendar/oauth/{provider}/authorize [get]
func (h *CalendarHandler) Authorize(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id is required"))
		return
	}
	url, err := h.connections.AuthorizeURL(c.Request.Context(), userID, c.Param("provider"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AuthorizeResponse{URL: url})
}

// Callback godoc
// @Summary OAuth redirect target
// @Tags Calendar
// @Produce json
// @Param provider path string true "Provider"
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /calendar/oauth/{provider}/callback [get]
func (h *CalendarHandler) Callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "consent was not granted: "+providerErr))
		return
	}
	conn, err := h.connections.HandleCallback(c.Request.Context(), c.Param("provider"), c.Query("code"), c.Query("state"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conn)
}

// Disconnect godoc
// @Summary Remove a calendar connection
// @Tags Calendar
// @Param id path string true "Connection ID"
// @Success 204
// @Router /calendar-connections/{id} [delete]
func (h *CalendarHandler) Disconnect(c *gin.Context) {
	if err := h.connections.Disconnect(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FullSync godoc
// @Summary Resync all upcoming assignments of a user
// @Tags Calendar Sync
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/calendar-sync [post]
func (h *CalendarHandler) FullSync(c *gin.Context) {
	result, err := h.sync.FullSyncForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Retry godoc
// @Summary Retry sync of one assignment
// @Tags Calendar Sync
// @Produce json
// @Param userId path string true "User ID"
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/calendar-sync/assignments/{id}/retry [post]
func (h *CalendarHandler) Retry(c *gin.Context) {
	result, err := h.sync.RetrySyncForAssignment(c.Request.Context(), c.Param("userId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Errors godoc
// @Summary List failed syncs of a user
// @Tags Calendar Sync
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{userId}/calendar-sync/errors [get]
func (h *CalendarHandler) Errors(c *gin.Context) {
	views, err := h.sync.GetSyncErrors(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views)
}

// DismissError godoc
// @Summary Dismiss a sync error
// @Tags Calendar Sync
// @Param id path string true "Sync mapping ID"
// @Success 204
// @Router /calendar-sync/errors/{id} [delete]
func (h *CalendarHandler) DismissError(c *gin.Context) {
	if err := h.sync.DismissSyncError(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
