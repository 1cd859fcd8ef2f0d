package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
)

var ErrInvalidTransition = errors.New("invalid booking status transition")

var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusPending: {
		model.BookingStatusApproved,
		model.BookingStatusRejected,
		model.BookingStatusDiscarded,
	},
	model.BookingStatusApproved: {
		model.BookingStatusDiscarded,
	},
	model.BookingStatusRejected: {
		model.BookingStatusPending,
		model.BookingStatusDiscarded,
	},
}

// CanTransition reports whether from -> to is a legal status change
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns ErrInvalidTransition for illegal status changes
func Transition(from, to model.BookingStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Edit carries the fields an owner may change before resubmitting.
// Nil fields keep their current value.
type Edit struct {
	RoomID    *int64
	Date      *time.Time
	StartTime *time.Time
	EndTime   *time.Time
	Purpose   *string
	Phone     *string
}

// Apply copies the edited fields into b
func (e Edit) Apply(b *model.Booking) {
	if e.RoomID != nil {
		b.RoomID = *e.RoomID
	}
	if e.Date != nil {
		b.Date = *e.Date
	}
	if e.StartTime != nil {
		b.StartTime = *e.StartTime
	}
	if e.EndTime != nil {
		b.EndTime = *e.EndTime
	}
	if e.Purpose != nil {
		b.Purpose = *e.Purpose
	}
	if e.Phone != nil {
		b.Phone = *e.Phone
	}
}

// Resubmit applies edit to a rejected booking and moves it back to PENDING
// with confirmed_by cleared. Rejection history is left untouched. The caller
// must run the conflict detector over the edited window before storing it.
func Resubmit(b *model.Booking, edit Edit) error {
	if err := Transition(b.Status, model.BookingStatusPending); err != nil {
		return err
	}
	edit.Apply(b)
	b.Status = model.BookingStatusPending
	b.ConfirmedBy = nil
	return nil
}
