package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

// ExcludedDateService carves dates out of assignments.
type ExcludedDateService struct {
	assignments assignmentFinder
	excluded    excludedDateStore
	notifier    MutationNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewExcludedDateService constructs the service.
func NewExcludedDateService(assignments assignmentFinder, excluded excludedDateStore, notifier MutationNotifier, validate *validator.Validate, logger *zap.Logger) *ExcludedDateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExcludedDateService{assignments: assignments, excluded: excluded, notifier: notifier, validator: validate, logger: logger}
}

// AddExcludedDates excludes dates from an assignment. A booked day on an excluded date is removed with it;
// dates already excluded are skipped.
func (s *ExcludedDateService) AddExcludedDates(ctx context.Context, assignmentID string, req dto.AddExcludedDatesRequest) ([]models.ExcludedDate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid excluded dates payload")
	}
	dates := make([]time.Time, 0, len(req.Dates))
	seen := make(map[string]struct{}, len(req.Dates))
	for _, raw := range req.Dates {
		date, err := models.ParseDate(raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", raw))
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		dates = append(dates, date)
	}
	if _, err := findAssignment(ctx, s.assignments, assignmentID); err != nil {
		return nil, err
	}
	stored, err := s.excluded.AddMany(ctx, assignmentID, dates, req.Reason)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add excluded dates")
	}
	s.notifier.Changed(ctx, assignmentID)
	if stored == nil {
		stored = []models.ExcludedDate{}
	}
	return stored, nil
}

// RemoveExcludedDate deletes one exclusion. A missing id is reported as NOT_FOUND so callers may ignore it.
func (s *ExcludedDateService) RemoveExcludedDate(ctx context.Context, id string) error {
	assignmentID, err := s.excluded.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "excluded date not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove excluded date")
	}
	s.notifier.Changed(ctx, assignmentID)
	return nil
}
