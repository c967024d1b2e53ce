package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type confirmationServiceMock struct {
	respondReq dto.RespondConfirmationRequest
	respondErr error
}

func (m *confirmationServiceMock) Create(ctx context.Context, req dto.CreateConfirmationRequest) (*dto.ConfirmationResponse, error) {
	return &dto.ConfirmationResponse{Request: &models.ConfirmationRequest{ID: "r1", ProjectID: req.ProjectID}}, nil
}

func (m *confirmationServiceMock) Respond(ctx context.Context, req dto.RespondConfirmationRequest) (*dto.ConfirmationResponse, error) {
	m.respondReq = req
	if m.respondErr != nil {
		return nil, m.respondErr
	}
	return &dto.ConfirmationResponse{Request: &models.ConfirmationRequest{ID: "r1", Status: models.ConfirmationApproved}}, nil
}

func TestConfirmationHandlerCreate(t *testing.T) {
	h := NewConfirmationHandler(&confirmationServiceMock{})

	c, w := newJSONContext(http.MethodPost, "/confirmations", `{"project_id":"p1","assignment_ids":["a1"],"recipient_email":"client@example.com"}`)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestConfirmationHandlerRespond(t *testing.T) {
	svc := &confirmationServiceMock{}
	h := NewConfirmationHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/confirmations/respond", `{"token":"tok","decision":"approve"}`)
	h.Respond(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approve", svc.respondReq.Decision)
}

func TestConfirmationHandlerRespondAlreadyAnswered(t *testing.T) {
	h := NewConfirmationHandler(&confirmationServiceMock{respondErr: appErrors.Clone(appErrors.ErrConflict, "request already answered")})

	c, w := newJSONContext(http.MethodPost, "/confirmations/respond", `{"token":"tok","decision":"decline"}`)
	h.Respond(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
