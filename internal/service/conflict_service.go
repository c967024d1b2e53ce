package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

type conflictSpanReader interface {
	ListSpansByUser(ctx context.Context, userID string, start, end time.Time) ([]models.AssignmentSpan, error)
}

type conflictOverrideStore interface {
	Upsert(ctx context.Context, override *models.ConflictOverride) error
	AcknowledgedIDs(ctx context.Context, conflictIDs []string) (map[string]bool, error)
}

// ConflictService detects overlapping bookings of the same person.
type ConflictService struct {
	spans     conflictSpanReader
	overrides conflictOverrideStore
	logger    *zap.Logger
}

// NewConflictService builds the detector.
func NewConflictService(spans conflictSpanReader, overrides conflictOverrideStore, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{spans: spans, overrides: overrides, logger: logger}
}

// FindConflicts returns the user's other assignments whose day span intersects [start, end].
// excludeAssignmentID names the assignment being checked and is never reported against itself.
// Without it the result is a window check: conflicts carry no pair id and no acknowledgement.
func (s *ConflictService) FindConflicts(ctx context.Context, userID string, start, end time.Time, excludeAssignmentID string) ([]models.Conflict, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	start = models.NormalizeDate(start)
	end = models.NormalizeDate(end)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "end date must not be before start date")
	}

	spans, err := s.spans.ListSpansByUser(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment spans")
	}

	conflicts := make([]models.Conflict, 0, len(spans))
	ids := make([]string, 0, len(spans))
	for _, span := range spans {
		if span.AssignmentID == excludeAssignmentID {
			continue
		}
		spanStart := models.NormalizeDate(span.SpanStart)
		spanEnd := models.NormalizeDate(span.SpanEnd)
		if !models.RangesOverlap(start, end, spanStart, spanEnd) {
			continue
		}
		conflict := models.Conflict{
			AssignmentID: span.AssignmentID,
			ProjectID:    span.ProjectID,
			ProjectName:  span.ProjectName,
			OverlapStart: laterOf(start, spanStart),
			OverlapEnd:   earlierOf(end, spanEnd),
		}
		if excludeAssignmentID != "" {
			conflict.ID = models.ConflictID(excludeAssignmentID, span.AssignmentID)
			ids = append(ids, conflict.ID)
		}
		conflicts = append(conflicts, conflict)
	}

	if len(ids) > 0 && s.overrides != nil {
		acked, err := s.overrides.AcknowledgedIDs(ctx, ids)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflict overrides")
		}
		for i := range conflicts {
			conflicts[i].Acknowledged = acked[conflicts[i].ID]
		}
	}
	return conflicts, nil
}

// OverrideConflict records that a reviewed conflict is accepted. The overlapping bookings are left untouched.
func (s *ConflictService) OverrideConflict(ctx context.Context, conflictID, reason string) (*models.ConflictOverride, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "override reason is required")
	}
	a, b, ok := models.SplitConflictID(conflictID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed conflict id")
	}
	override := &models.ConflictOverride{
		ConflictID:  models.ConflictID(a, b),
		AssignmentA: a,
		AssignmentB: b,
		Reason:      reason,
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store conflict override")
	}
	s.logger.Info("conflict overridden", zap.String("conflict_id", override.ConflictID))
	return override, nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
