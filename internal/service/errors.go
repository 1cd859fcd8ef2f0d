package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/booking"
)

var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrFacilityNotFound      = errors.New("facility not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrAuthorizationNotFound = errors.New("room authorization not found")

	ErrForbidden   = errors.New("forbidden")
	ErrValidation  = errors.New("validation failed")
	ErrDuplicate   = errors.New("already exists")
	ErrRoomInUse   = errors.New("room has bookings, deactivate it instead")
	ErrNotEligible = errors.New("not allowed to book this room")

	ErrTimeConflict      = errors.New("time window conflicts with existing bookings")
	ErrInvalidTransition = booking.ErrInvalidTransition
)

// ConflictError lists the bookings a proposed window collides with
type ConflictError struct {
	BookingIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTimeConflict, e.BookingIDs)
}

func (e *ConflictError) Unwrap() error {
	return ErrTimeConflict
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notEligible(reason string) error {
	if reason == "" {
		return ErrNotEligible
	}
	return fmt.Errorf("%w: %s", ErrNotEligible, reason)
}
