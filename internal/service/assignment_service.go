package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	"github.com/noah-isme/crew-booking-api/internal/repository"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type assignmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
}

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.ProjectAssignment) error
	FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, note *string) error
	Delete(ctx context.Context, id string) error
	FindProject(ctx context.Context, id string) (*models.Project, error)
	FindUser(ctx context.Context, id string) (*models.User, error)
}

type assignmentDayStore interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.AssignmentDay, error)
	FindByID(ctx context.Context, id string) (*models.AssignmentDay, error)
	ExistingDates(ctx context.Context, assignmentID string, dates []time.Time) ([]time.Time, error)
	InsertMany(ctx context.Context, days []models.AssignmentDay) error
	UpdateTimes(ctx context.Context, id, startTime, endTime string) error
	UpdateDate(ctx context.Context, id, assignmentID string, date time.Time) error
	DeleteMany(ctx context.Context, ids []string) ([]string, error)
}

type excludedDateStore interface {
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.ExcludedDate, error)
	AddMany(ctx context.Context, assignmentID string, dates []time.Time, reason string) ([]models.ExcludedDate, error)
	Delete(ctx context.Context, id string) (string, error)
}

type conflictFinder interface {
	FindConflicts(ctx context.Context, userID string, start, end time.Time, excludeAssignmentID string) ([]models.Conflict, error)
}

// AssignmentService creates, reads and deletes bookings.
type AssignmentService struct {
	assignments assignmentStore
	days        assignmentDayStore
	excluded    excludedDateStore
	conflicts   conflictFinder
	notifier    MutationNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(assignments assignmentStore, days assignmentDayStore, excluded excludedDateStore, conflicts conflictFinder, notifier MutationNotifier, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		days:        days,
		excluded:    excluded,
		conflicts:   conflicts,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// Create stores an assignment with its initial days and reports overlapping bookings of the same user.
// Conflicts are returned to the caller, not enforced.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest) (*dto.CreateAssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	status := models.BookingStatusDraft
	if req.BookingStatus != "" {
		target, err := models.TransitionTo("", models.ParseBookingStatus(req.BookingStatus))
		if err != nil {
			return nil, err
		}
		status = target
	}
	days, err := parseDayInputs(req.Days)
	if err != nil {
		return nil, err
	}

	if _, err := s.assignments.FindProject(ctx, req.ProjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if _, err := s.assignments.FindUser(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	assignment := &models.ProjectAssignment{
		ProjectID:     req.ProjectID,
		UserID:        req.UserID,
		BookingStatus: status,
		Notes:         req.Notes,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	for i := range days {
		days[i].AssignmentID = assignment.ID
	}
	if err := s.days.InsertMany(ctx, days); err != nil {
		if delErr := s.assignments.Delete(ctx, assignment.ID); delErr != nil {
			s.logger.Error("failed to roll back assignment after day insert failure", zap.String("assignment_id", assignment.ID), zap.Error(delErr))
		}
		return nil, mapDayWriteError(err, "failed to store assignment days")
	}

	conflicts := []models.Conflict{}
	if len(days) > 0 {
		start, end := daySpan(days)
		found, err := s.conflicts.FindConflicts(ctx, assignment.UserID, start, end, assignment.ID)
		if err != nil {
			s.logger.Warn("conflict check failed after create", zap.String("assignment_id", assignment.ID), zap.Error(err))
		} else {
			conflicts = found
		}
	}

	s.notifier.Changed(ctx, assignment.ID)
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("project_id", assignment.ProjectID),
		zap.String("user_id", assignment.UserID),
		zap.Int("days", len(days)),
		zap.Int("conflicts", len(conflicts)))

	loaded, err := s.Get(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}
	return &dto.CreateAssignmentResponse{Assignment: loaded, Conflicts: conflicts}, nil
}

// Get returns an assignment with its days and exclusions.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.AssignmentWithDays, error) {
	detail, err := findAssignment(ctx, s.assignments, id)
	if err != nil {
		return nil, err
	}
	days, err := s.days.ListByAssignment(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment days")
	}
	excluded, err := s.excluded.ListByAssignment(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load excluded dates")
	}
	if days == nil {
		days = []models.AssignmentDay{}
	}
	if excluded == nil {
		excluded = []models.ExcludedDate{}
	}
	return &models.AssignmentWithDays{AssignmentDetail: *detail, Days: days, ExcludedDates: excluded}, nil
}

// Delete removes an assignment; its external events are removed in the background.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.notifier.Removed(ctx, id)
	s.logger.Info("assignment deleted", zap.String("assignment_id", id))
	return nil
}

func findAssignment(ctx context.Context, store assignmentFinder, id string) (*models.AssignmentDetail, error) {
	detail, err := store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return detail, nil
}

// parseDayInputs validates dates and times and rejects dates repeated within the request.
func parseDayInputs(inputs []dto.DayInput) ([]models.AssignmentDay, error) {
	days := make([]models.AssignmentDay, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		date, err := models.ParseDate(input.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q", input.Date))
		}
		if err := validateTimeRange(input.StartTime, input.EndTime); err != nil {
			return nil, err
		}
		key := date.Format(models.DateLayout)
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrDuplicateDate, fmt.Sprintf("date %s is listed more than once", key))
		}
		seen[key] = struct{}{}
		days = append(days, models.AssignmentDay{Date: date, StartTime: input.StartTime, EndTime: input.EndTime})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// validateTimeRange requires HH:MM values with end strictly after start.
func validateTimeRange(startTime, endTime string) error {
	start, err := time.Parse(models.ClockLayout, startTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q", startTime))
	}
	end, err := time.Parse(models.ClockLayout, endTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end time %q", endTime))
	}
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrInvalidRange, "end time must be after start time")
	}
	return nil
}

func daySpan(days []models.AssignmentDay) (time.Time, time.Time) {
	start, end := days[0].Date, days[0].Date
	for _, day := range days[1:] {
		if day.Date.Before(start) {
			start = day.Date
		}
		if day.Date.After(end) {
			end = day.Date
		}
	}
	return start, end
}

func mapDayWriteError(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicateDate) {
		return appErrors.Clone(appErrors.ErrDuplicateDate, "a day already exists for one of the requested dates")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
