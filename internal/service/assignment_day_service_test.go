package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crew-booking-api/internal/dto"
	"github.com/noah-isme/crew-booking-api/internal/models"
	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

func newDayFixture(days ...models.AssignmentDay) (*AssignmentDayService, *assignmentStoreStub, *dayStoreStub, *syncRecorder) {
	store := newAssignmentStoreStub()
	store.put(models.AssignmentDetail{ProjectAssignment: models.ProjectAssignment{ID: "a1", ProjectID: "p1", UserID: "u1", BookingStatus: models.BookingStatusDraft}})
	dayStore := newDayStoreStub(days...)
	recorder := &syncRecorder{}
	return NewAssignmentDayService(store, dayStore, MutationNotifier{Sync: recorder}, nil, nil), store, dayStore, recorder
}

func TestAddDaysIsAllOrNothing(t *testing.T) {
	svc, _, days, recorder := newDayFixture(models.AssignmentDay{ID: "d-existing", AssignmentID: "a1", Date: mustDate("2024-05-02"), StartTime: "09:00", EndTime: "17:00"})

	_, err := svc.AddDays(context.Background(), "a1", dto.AddDaysRequest{Days: []dto.DayInput{
		{Date: "2024-05-01", StartTime: "09:00", EndTime: "17:00"},
		{Date: "2024-05-02", StartTime: "09:00", EndTime: "17:00"},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateDate.Code, appErrors.FromError(err).Code)
	assert.Len(t, days.days, 1)
	assert.Empty(t, recorder.changed)

	added, err := svc.AddDays(context.Background(), "a1", dto.AddDaysRequest{Days: []dto.DayInput{
		{Date: "2024-05-03", StartTime: "09:00", EndTime: "17:00"},
	}})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotEmpty(t, added[0].ID)
	assert.Equal(t, []string{"a1"}, recorder.changed)
}

func TestAddDaysUnknownAssignment(t *testing.T) {
	svc, _, _, _ := newDayFixture()
	_, err := svc.AddDays(context.Background(), "nope", dto.AddDaysRequest{Days: []dto.DayInput{{Date: "2024-05-01", StartTime: "09:00", EndTime: "17:00"}}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUpdateDayChecksTimes(t *testing.T) {
	svc, _, days, _ := newDayFixture(models.AssignmentDay{ID: "d1", AssignmentID: "a1", Date: mustDate("2024-05-01"), StartTime: "09:00", EndTime: "17:00"})

	_, err := svc.UpdateDay(context.Background(), "d1", dto.UpdateDayRequest{StartTime: "10:00", EndTime: "10:00"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)

	updated, err := svc.UpdateDay(context.Background(), "d1", dto.UpdateDayRequest{StartTime: "07:30", EndTime: "15:00"})
	require.NoError(t, err)
	assert.Equal(t, "07:30", updated.StartTime)
	assert.Equal(t, "07:30", days.days["d1"].StartTime)

	_, err = svc.UpdateDay(context.Background(), "missing", dto.UpdateDayRequest{StartTime: "07:30", EndTime: "15:00"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestMoveDayCollisionLeavesRowsUnchanged(t *testing.T) {
	svc, _, days, recorder := newDayFixture(
		models.AssignmentDay{ID: "d1", AssignmentID: "a1", Date: mustDate("2024-05-01"), StartTime: "09:00", EndTime: "17:00"},
		models.AssignmentDay{ID: "d2", AssignmentID: "a1", Date: mustDate("2024-05-02"), StartTime: "09:00", EndTime: "17:00"},
	)

	_, err := svc.MoveDay(context.Background(), "d1", dto.MoveDayRequest{Date: "2024-05-02"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateDate.Code, appErrors.FromError(err).Code)
	assert.Equal(t, mustDate("2024-05-01"), days.days["d1"].Date)
	assert.Equal(t, mustDate("2024-05-02"), days.days["d2"].Date)

	moved, err := svc.MoveDay(context.Background(), "d1", dto.MoveDayRequest{Date: "2024-05-06"})
	require.NoError(t, err)
	assert.Equal(t, mustDate("2024-05-06"), moved.Date)
	assert.Equal(t, []string{"a1"}, recorder.changed)
}

func TestRemoveDaysIgnoresUnknownIDs(t *testing.T) {
	svc, _, days, _ := newDayFixture(models.AssignmentDay{ID: "d1", AssignmentID: "a1", Date: mustDate("2024-05-01"), StartTime: "09:00", EndTime: "17:00"})

	resp, err := svc.RemoveDays(context.Background(), dto.RemoveDaysRequest{DayIDs: []string{"d1", "ghost", "d1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Removed)
	assert.Empty(t, days.days)

	resp, err = svc.RemoveDays(context.Background(), dto.RemoveDaysRequest{DayIDs: []string{"d1"}})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Removed)
}

func TestCycleStatusWrapsAround(t *testing.T) {
	svc, store, _, recorder := newDayFixture()

	expected := []models.BookingStatus{models.BookingStatusPendingConfirm, models.BookingStatusConfirmed, models.BookingStatusDraft}
	for _, want := range expected {
		resp, err := svc.CycleStatus(context.Background(), "a1")
		require.NoError(t, err)
		assert.Equal(t, want, resp.BookingStatus)
	}
	assert.Equal(t, models.BookingStatusDraft, store.items["a1"].BookingStatus)
	assert.Len(t, recorder.changed, 3)
}

func TestCycleStatusRejectsRetiredStatus(t *testing.T) {
	svc, store, _, _ := newDayFixture()
	store.items["a1"].BookingStatus = models.BookingStatusComplete

	_, err := svc.CycleStatus(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}
