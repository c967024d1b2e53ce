package service

import (
	"context"
	"database/sql"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type confirmationStoreStub struct {
	items map[string]*models.ConfirmationRequest
}

func (s *confirmationStoreStub) Create(ctx context.Context, req *models.ConfirmationRequest) error {
	req.ID = "req-1"
	cp := *req
	s.items[req.ID] = &cp
	return nil
}

func (s *confirmationStoreStub) FindByID(ctx context.Context, id string) (*models.ConfirmationRequest, error) {
	req, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (s *confirmationStoreStub) Resolve(ctx context.Context, id string, status models.ConfirmationStatus, at time.Time) error {
	req, ok := s.items[id]
	if !ok || req.Status != models.ConfirmationPending {
		return sql.ErrNoRows
	}
	req.Status = status
	req.RespondedAt = &at
	return nil
}

type mailRecorder struct {
	messages []interface{}
}

func (m *mailRecorder) PublishJSON(ctx context.Context, v interface{}) error {
	m.messages = append(m.messages, v)
	return nil
}

func newConfirmationFixture() (*ConfirmationService, *assignmentStoreStub, *confirmationStoreStub, *mailRecorder) {
	assignments := newAssignmentStoreStub()
	assignments.put(models.AssignmentDetail{ProjectAssignment: models.ProjectAssignment{ID: "a1", ProjectID: "p1", BookingStatus: models.BookingStatusDraft}})
	assignments.put(models.AssignmentDetail{ProjectAssignment: models.ProjectAssignment{ID: "a2", ProjectID: "p1", BookingStatus: models.BookingStatusDraft}})
	assignments.put(models.AssignmentDetail{ProjectAssignment: models.ProjectAssignment{ID: "other", ProjectID: "p2", BookingStatus: models.BookingStatusDraft}})
	requests := &confirmationStoreStub{items: map[string]*models.ConfirmationRequest{}}
	mail := &mailRecorder{}
	bulk := NewBulkService(assignments, nil, MutationNotifier{}, nil, nil)
	svc := NewConfirmationService(requests, assignments, bulk, mail, ConfirmationConfig{
		Secret:  "confirm-secret",
		TTL:     48 * time.Hour,
		BaseURL: "https://crew.example.com/confirm",
	}, nil, nil)
	return svc, assignments, requests, mail
}

func approvalToken(t *testing.T, mail *mailRecorder) string {
	t.Helper()
	require.Len(t, mail.messages, 1)
	msg, ok := mail.messages[0].(models.MailMessage)
	require.True(t, ok)
	data, ok := msg.Data.(models.ConfirmationMailData)
	require.True(t, ok)
	parsed, err := url.Parse(data.ApproveURL)
	require.NoError(t, err)
	assert.Equal(t, "approve", parsed.Query().Get("decision"))
	return parsed.Query().Get("token")
}

func TestConfirmationApproveFlow(t *testing.T) {
	svc, assignments, _, mail := newConfirmationFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CreateConfirmationRequest{ProjectID: "p1", AssignmentIDs: []string{"a1", "a2"}, RecipientEmail: "client@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.ConfirmationPending, created.Request.Status)
	assert.Len(t, created.Result.Succeeded, 2)
	assert.Equal(t, models.BookingStatusPendingConfirm, assignments.items["a1"].BookingStatus)

	token := approvalToken(t, mail)
	resp, err := svc.Respond(ctx, dto.RespondConfirmationRequest{Token: token, Decision: "approve"})
	require.NoError(t, err)
	assert.Equal(t, models.ConfirmationApproved, resp.Request.Status)
	assert.Equal(t, models.BookingStatusConfirmed, assignments.items["a2"].BookingStatus)

	_, err = svc.Respond(ctx, dto.RespondConfirmationRequest{Token: token, Decision: "decline"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestConfirmationDeclineReturnsToDraft(t *testing.T) {
	svc, assignments, _, mail := newConfirmationFixture()
	ctx := context.Background()
	_, err := svc.Create(ctx, dto.CreateConfirmationRequest{ProjectID: "p1", AssignmentIDs: []string{"a1"}, RecipientEmail: "client@example.com"})
	require.NoError(t, err)

	_, err = svc.Respond(ctx, dto.RespondConfirmationRequest{Token: approvalToken(t, mail), Decision: "decline"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusDraft, assignments.items["a1"].BookingStatus)
}

func TestConfirmationCreateRejectsForeignAssignment(t *testing.T) {
	svc, _, requests, mail := newConfirmationFixture()
	_, err := svc.Create(context.Background(), dto.CreateConfirmationRequest{ProjectID: "p1", AssignmentIDs: []string{"a1", "other"}, RecipientEmail: "client@example.com"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, requests.items)
	assert.Empty(t, mail.messages)
}

func TestConfirmationRespondRejectsExpiredAndForged(t *testing.T) {
	svc, _, requests, mail := newConfirmationFixture()
	ctx := context.Background()
	_, err := svc.Create(ctx, dto.CreateConfirmationRequest{ProjectID: "p1", AssignmentIDs: []string{"a1"}, RecipientEmail: "client@example.com"})
	require.NoError(t, err)
	token := approvalToken(t, mail)

	_, err = svc.Respond(ctx, dto.RespondConfirmationRequest{Token: token + "x", Decision: "approve"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	requests.items["req-1"].ExpiresAt = time.Now().Add(-time.Minute)
	_, err = svc.Respond(ctx, dto.RespondConfirmationRequest{Token: token, Decision: "approve"})
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, models.ConfirmationPending, requests.items["req-1"].Status)
}
