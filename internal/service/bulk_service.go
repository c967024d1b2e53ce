package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type excludedDateRemover interface {
	RemoveExcludedDate(ctx context.Context, id string) error
}

// BulkService applies changes item by item. It is not transactional: applied items stay applied
// and failures are reported per id.
type BulkService struct {
	assignments assignmentStore
	excluded    excludedDateRemover
	notifier    MutationNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewBulkService constructs the coordinator.
func NewBulkService(assignments assignmentStore, excluded excludedDateRemover, notifier MutationNotifier, validate *validator.Validate, logger *zap.Logger) *BulkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkService{assignments: assignments, excluded: excluded, notifier: notifier, validator: validate, logger: logger}
}

// BulkUpdateStatus moves every listed assignment to the requested status.
func (s *BulkService) BulkUpdateStatus(ctx context.Context, req dto.BulkStatusRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk status payload")
	}
	target := models.ParseBookingStatus(req.Status)
	result := newBulkResult()
	var changed []string
	for _, id := range uniqueStrings(req.AssignmentIDs) {
		if err := s.updateOne(ctx, id, target, req.Note); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: bulkReason(err)})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
		changed = append(changed, id)
	}
	if len(changed) > 0 {
		s.notifier.Changed(ctx, changed...)
	}
	s.logger.Info("bulk status update finished",
		zap.String("status", string(target)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *BulkService) updateOne(ctx context.Context, id string, target models.BookingStatus, note *string) error {
	detail, err := findAssignment(ctx, s.assignments, id)
	if err != nil {
		return err
	}
	next, err := models.TransitionTo(detail.BookingStatus, target)
	if err != nil {
		return err
	}
	if err := s.assignments.UpdateStatus(ctx, id, next, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	return nil
}

// BulkRemoveExcludedDates removes every listed exclusion independently.
func (s *BulkService) BulkRemoveExcludedDates(ctx context.Context, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	result := newBulkResult()
	for _, id := range uniqueStrings(req.IDs) {
		if err := s.excluded.RemoveExcludedDate(ctx, id); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: bulkReason(err)})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

func newBulkResult() *dto.BulkResult {
	return &dto.BulkResult{Succeeded: []string{}, Failed: []dto.BulkFailure{}}
}

func bulkReason(err error) string {
	appErr := appErrors.FromError(err)
	return appErr.Code + ": " + appErr.Message
}
