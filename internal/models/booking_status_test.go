package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

func TestCycleStatusClosesAfterThreeSteps(t *testing.T) {
	for _, start := range []BookingStatus{BookingStatusDraft, BookingStatusPendingConfirm, BookingStatusConfirmed} {
		current := start
		for i := 0; i < 3; i++ {
			next, err := CycleStatus(current)
			require.NoError(t, err)
			current = next
		}
		assert.Equal(t, start, current)
	}
}

func TestCycleStatusOrder(t *testing.T) {
	next, err := CycleStatus(BookingStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusPendingConfirm, next)

	next, err = CycleStatus(BookingStatusPendingConfirm)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, next)

	next, err = CycleStatus(BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusDraft, next)
}

func TestCycleStatusRejectsUnknownValues(t *testing.T) {
	for _, status := range []BookingStatus{BookingStatusComplete, "", "cancelled"} {
		_, err := CycleStatus(status)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))
	}
}

func TestTransitionTo(t *testing.T) {
	next, err := TransitionTo(BookingStatusDraft, BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, next)

	next, err = TransitionTo(BookingStatusComplete, BookingStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusDraft, next)

	_, err = TransitionTo(BookingStatusConfirmed, BookingStatusComplete)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnsupportedStatus))

	_, err = TransitionTo(BookingStatusConfirmed, "archived")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnsupportedStatus))
}

func TestParseBookingStatusAliases(t *testing.T) {
	assert.Equal(t, BookingStatusDraft, ParseBookingStatus(" Pencil "))
	assert.Equal(t, BookingStatusConfirmed, ParseBookingStatus("CONFIRMED"))
}

func TestCalendarMapping(t *testing.T) {
	cases := []struct {
		status       BookingStatus
		availability string
		category     string
	}{
		{BookingStatusDraft, "tentative", "Blue"},
		{BookingStatusPendingConfirm, "tentative", "Purple"},
		{BookingStatusConfirmed, "busy", "Green"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.availability, tc.status.CalendarAvailability(), tc.status)
		assert.Equal(t, tc.category, tc.status.CalendarCategory(), tc.status)
	}
}
