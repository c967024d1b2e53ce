package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

// AssignmentDayService manages the concrete days of assignments and the single-click status cycle.
type AssignmentDayService struct {
	assignments assignmentStore
	days        assignmentDayStore
	notifier    MutationNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentDayService constructs the day manager.
func NewAssignmentDayService(assignments assignmentStore, days assignmentDayStore, notifier MutationNotifier, validate *validator.Validate, logger *zap.Logger) *AssignmentDayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentDayService{assignments: assignments, days: days, notifier: notifier, validator: validate, logger: logger}
}

// AddDays inserts all requested days or none. Any date already booked for the assignment fails with DUPLICATE_DATE.
func (s *AssignmentDayService) AddDays(ctx context.Context, assignmentID string, req dto.AddDaysRequest) ([]models.AssignmentDay, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid days payload")
	}
	days, err := parseDayInputs(req.Days)
	if err != nil {
		return nil, err
	}
	if _, err := findAssignment(ctx, s.assignments, assignmentID); err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(days))
	for i := range days {
		days[i].AssignmentID = assignmentID
		dates[i] = days[i].Date
	}
	existing, err := s.days.ExistingDates(ctx, assignmentID, dates)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing days")
	}
	if len(existing) > 0 {
		taken := make([]string, len(existing))
		for i, d := range existing {
			taken[i] = d.Format(models.DateLayout)
		}
		return nil, appErrors.Clone(appErrors.ErrDuplicateDate, "assignment already has days on "+strings.Join(taken, ", "))
	}

	// The unique constraint still guards concurrent writers that pass the pre-check.
	if err := s.days.InsertMany(ctx, days); err != nil {
		return nil, mapDayWriteError(err, "failed to add assignment days")
	}
	s.notifier.Changed(ctx, assignmentID)
	s.logger.Info("assignment days added", zap.String("assignment_id", assignmentID), zap.Int("count", len(days)))
	return days, nil
}

// UpdateDay changes a day's working hours.
func (s *AssignmentDayService) UpdateDay(ctx context.Context, dayID string, req dto.UpdateDayRequest) (*models.AssignmentDay, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day payload")
	}
	day, err := s.findDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if err := validateTimeRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if err := s.days.UpdateTimes(ctx, dayID, req.StartTime, req.EndTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment day")
	}
	day.StartTime = req.StartTime
	day.EndTime = req.EndTime
	s.notifier.Changed(ctx, day.AssignmentID)
	return day, nil
}

// MoveDay changes only the date of a day. A collision with another day of the same assignment fails
// with DUPLICATE_DATE and leaves both rows unchanged.
func (s *AssignmentDayService) MoveDay(ctx context.Context, dayID string, req dto.MoveDayRequest) (*models.AssignmentDay, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	target, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", req.Date))
	}
	day, err := s.findDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if models.NormalizeDate(day.Date).Equal(target) {
		return day, nil
	}
	if err := s.days.UpdateDate(ctx, dayID, day.AssignmentID, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment day not found")
		}
		return nil, mapDayWriteError(err, "failed to move assignment day")
	}
	day.Date = target
	s.notifier.Changed(ctx, day.AssignmentID)
	return day, nil
}

// RemoveDays deletes the given days. Unknown ids are ignored; the number actually removed is returned.
func (s *AssignmentDayService) RemoveDays(ctx context.Context, req dto.RemoveDaysRequest) (*dto.RemoveDaysResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove payload")
	}
	owners, err := s.days.DeleteMany(ctx, uniqueStrings(req.DayIDs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove assignment days")
	}
	if len(owners) > 0 {
		s.notifier.Changed(ctx, owners...)
	}
	return &dto.RemoveDaysResponse{Removed: len(owners)}, nil
}

// CycleStatus advances the assignment to the next booking status and persists it.
func (s *AssignmentDayService) CycleStatus(ctx context.Context, assignmentID string) (*dto.StatusResponse, error) {
	detail, err := findAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		return nil, err
	}
	next, err := models.CycleStatus(detail.BookingStatus)
	if err != nil {
		return nil, err
	}
	if err := s.assignments.UpdateStatus(ctx, assignmentID, next, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	s.notifier.Changed(ctx, assignmentID)
	s.logger.Info("booking status cycled",
		zap.String("assignment_id", assignmentID),
		zap.String("from", string(detail.BookingStatus)),
		zap.String("to", string(next)))
	return &dto.StatusResponse{AssignmentID: assignmentID, BookingStatus: next}, nil
}

func (s *AssignmentDayService) findDay(ctx context.Context, dayID string) (*models.AssignmentDay, error) {
	day, err := s.days.FindByID(ctx, dayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment day")
	}
	return day, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
