package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
)

func TestBulkUpdateStatusReportsPerItem(t *testing.T) {
	store := newAssignmentStoreStub()
	for _, id := range []string{"a1", "a2", "a3"} {
		store.put(models.AssignmentDetail{ProjectAssignment: models.ProjectAssignment{ID: id, BookingStatus: models.BookingStatusDraft}})
	}
	recorder := &syncRecorder{}
	svc := NewBulkService(store, nil, MutationNotifier{Sync: recorder}, nil, nil)

	result, err := svc.BulkUpdateStatus(context.Background(), dto.BulkStatusRequest{
		AssignmentIDs: []string{"a1", "a2", "a3", "missing", "a1"},
		Status:        "confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "missing", result.Failed[0].ID)
	assert.True(t, strings.HasPrefix(result.Failed[0].Reason, "NOT_FOUND"))
	assert.Equal(t, models.BookingStatusConfirmed, store.items["a2"].BookingStatus)
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, recorder.changed)
}

func TestBulkUpdateStatusRejectsUnsupportedTarget(t *testing.T) {
	store := newAssignmentStoreStub()
	store.put(models.AssignmentDetail{ProjectAssignment: models.ProjectAssignment{ID: "a1", BookingStatus: models.BookingStatusDraft}})
	svc := NewBulkService(store, nil, MutationNotifier{}, nil, nil)

	result, err := svc.BulkUpdateStatus(context.Background(), dto.BulkStatusRequest{AssignmentIDs: []string{"a1"}, Status: "archived"})
	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Reason, "UNSUPPORTED_STATUS")
	assert.Zero(t, store.statusCalls)
}

func TestBulkRemoveExcludedDates(t *testing.T) {
	excluded := newExcludedStoreStub()
	excluded.items["x1"] = models.ExcludedDate{ID: "x1", AssignmentID: "a1"}
	excludedSvc := NewExcludedDateService(newAssignmentStoreStub(), excluded, MutationNotifier{}, nil, nil)
	svc := NewBulkService(newAssignmentStoreStub(), excludedSvc, MutationNotifier{}, nil, nil)

	result, err := svc.BulkRemoveExcludedDates(context.Background(), dto.BulkIDsRequest{IDs: []string{"x1", "x2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x1"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "x2", result.Failed[0].ID)
}
