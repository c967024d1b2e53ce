package models

import (
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/crew-booking-api/pkg/errors"
)

// BookingStatus is the confirmation stage of an assignment.
type BookingStatus string

const (
	BookingStatusDraft          BookingStatus = "draft"
	BookingStatusPendingConfirm BookingStatus = "pending_confirm"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	// BookingStatusComplete is a retired value kept readable for historical rows; it is never a transition target.
	BookingStatusComplete BookingStatus = "complete"
)

// bookingCycle is the order applied by CycleStatus; the last entry wraps to the first.
var bookingCycle = []BookingStatus{
	BookingStatusDraft,
	BookingStatusPendingConfirm,
	BookingStatusConfirmed,
}

// ParseBookingStatus normalises user input. "pencil" is accepted as an alias of draft.
func ParseBookingStatus(raw string) BookingStatus {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "pencil" {
		return BookingStatusDraft
	}
	return BookingStatus(value)
}

// Active reports whether the status belongs to the booking cycle.
func (s BookingStatus) Active() bool {
	for _, candidate := range bookingCycle {
		if s == candidate {
			return true
		}
	}
	return false
}

// CycleStatus returns the next status in the draft → pending_confirm → confirmed → draft cycle.
func CycleStatus(current BookingStatus) (BookingStatus, error) {
	for i, candidate := range bookingCycle {
		if current == candidate {
			return bookingCycle[(i+1)%len(bookingCycle)], nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot cycle booking status %q", current))
}

// TransitionTo validates an explicit status change. Any current value may move into the cycle,
// including retired ones; the target must be one of the active statuses.
func TransitionTo(current, target BookingStatus) (BookingStatus, error) {
	if !target.Active() {
		return current, appErrors.Clone(appErrors.ErrUnsupportedStatus, fmt.Sprintf("unsupported booking status %q", target))
	}
	return target, nil
}

// CalendarAvailability is the free/busy value shown on the external calendar.
func (s BookingStatus) CalendarAvailability() string {
	if s == BookingStatusConfirmed {
		return "busy"
	}
	return "tentative"
}

// CalendarCategory is the colour category attached to the external event.
func (s BookingStatus) CalendarCategory() string {
	switch s {
	case BookingStatusPendingConfirm:
		return "Purple"
	case BookingStatusConfirmed:
		return "Green"
	default:
		return "Blue"
	}
}
