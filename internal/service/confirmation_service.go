package service

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type confirmationStore interface {
	Create(ctx context.Context, req *models.ConfirmationRequest) error
	FindByID(ctx context.Context, id string) (*models.ConfirmationRequest, error)
	Resolve(ctx context.Context, id string, status models.ConfirmationStatus, respondedAt time.Time) error
}

type confirmationAssignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	FindProject(ctx context.Context, id string) (*models.Project, error)
}

type bulkStatusUpdater interface {
	BulkUpdateStatus(ctx context.Context, req dto.BulkStatusRequest) (*dto.BulkResult, error)
}

type mailPublisher interface {
	PublishJSON(ctx context.Context, v interface{}) error
}

// ConfirmationConfig carries the signing secret and link settings for approval tokens.
type ConfirmationConfig struct {
	Secret  string
	TTL     time.Duration
	BaseURL string
}

// ConfirmationService sends customer approval links and applies the decision to the assignments.
type ConfirmationService struct {
	requests    confirmationStore
	assignments confirmationAssignmentReader
	bulk        bulkStatusUpdater
	mail        mailPublisher
	cfg         ConfirmationConfig
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewConfirmationService constructs the service.
func NewConfirmationService(requests confirmationStore, assignments confirmationAssignmentReader, bulk bulkStatusUpdater, mail mailPublisher, cfg ConfirmationConfig, validate *validator.Validate, logger *zap.Logger) *ConfirmationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &ConfirmationService{
		requests:    requests,
		assignments: assignments,
		bulk:        bulk,
		mail:        mail,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Create stores a request, mails the approval links and moves the assignments to pending_confirm.
func (s *ConfirmationService) Create(ctx context.Context, req dto.CreateConfirmationRequest) (*dto.ConfirmationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}
	project, err := s.assignments.FindProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	ids := uniqueStrings(req.AssignmentIDs)
	for _, id := range ids {
		detail, err := findAssignment(ctx, s.assignments, id)
		if err != nil {
			return nil, err
		}
		if detail.ProjectID != project.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignment "+id+" does not belong to the project")
		}
	}

	now := s.now().UTC()
	record := &models.ConfirmationRequest{
		ProjectID:      project.ID,
		AssignmentIDs:  ids,
		RecipientEmail: req.RecipientEmail,
		Status:         models.ConfirmationPending,
		ExpiresAt:      now.Add(s.cfg.TTL),
		CreatedAt:      now,
	}
	if err := s.requests.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create confirmation request")
	}

	token, err := signClaims(s.cfg.Secret, &models.ConfirmationClaims{
		RequestID: record.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign confirmation token")
	}

	message := models.MailMessage{
		Type: "booking_confirmation",
		To:   record.RecipientEmail,
		Data: models.ConfirmationMailData{
			ProjectName: project.Name,
			ApproveURL:  s.decisionURL(token, "approve"),
			DeclineURL:  s.decisionURL(token, "decline"),
			ExpiresAt:   record.ExpiresAt,
			Assignments: len(ids),
		},
	}
	if s.mail != nil {
		if err := s.mail.PublishJSON(ctx, message); err != nil {
			s.logger.Warn("failed to publish confirmation mail", zap.String("request_id", record.ID), zap.Error(err))
		}
	}

	result, err := s.bulk.BulkUpdateStatus(ctx, dto.BulkStatusRequest{
		AssignmentIDs: ids,
		Status:        string(models.BookingStatusPendingConfirm),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("confirmation requested", zap.String("request_id", record.ID), zap.Int("assignments", len(ids)))
	return &dto.ConfirmationResponse{Request: record, Result: result}, nil
}

// Respond applies a customer decision: approve confirms the assignments, decline returns them to draft.
func (s *ConfirmationService) Respond(ctx context.Context, req dto.RespondConfirmationRequest) (*dto.ConfirmationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation response")
	}
	var claims models.ConfirmationClaims
	if err := parseClaims(s.cfg.Secret, req.Token, &claims); err != nil {
		return nil, err
	}
	record, err := s.requests.FindByID(ctx, claims.RequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "confirmation request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmation request")
	}
	if record.Status != models.ConfirmationPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "confirmation request already answered")
	}
	now := s.now().UTC()
	if !now.Before(record.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "confirmation request expired")
	}

	status := models.ConfirmationApproved
	target := models.BookingStatusConfirmed
	if req.Decision == "decline" {
		status = models.ConfirmationDeclined
		target = models.BookingStatusDraft
	}
	if err := s.requests.Resolve(ctx, record.ID, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "confirmation request already answered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve confirmation request")
	}
	record.Status = status
	record.RespondedAt = &now

	result, err := s.bulk.BulkUpdateStatus(ctx, dto.BulkStatusRequest{
		AssignmentIDs: record.AssignmentIDs,
		Status:        string(target),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("confirmation answered", zap.String("request_id", record.ID), zap.String("decision", req.Decision))
	return &dto.ConfirmationResponse{Request: record, Result: result}, nil
}

func (s *ConfirmationService) decisionURL(token, decision string) string {
	values := url.Values{}
	values.Set("token", token)
	values.Set("decision", decision)
	return s.cfg.BaseURL + "?" + values.Encode()
}
