package booking

import (
	"errors"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
)

var ErrInvalidWindow = errors.New("end time must be after start time")

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow validates that end is strictly after start
func NewWindow(start, end time.Time) (Window, error) {
	if !end.After(start) {
		return Window{}, ErrInvalidWindow
	}
	return Window{Start: start, End: end}, nil
}

// Duration returns the length of the window
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether proposed collides with existing.
//
// The proposed start may not fall in [existing.Start, existing.End), the
// proposed end may not fall in (existing.Start, existing.End], and the
// proposed window may not strictly contain the existing one. Windows that only
// touch at a boundary do not overlap.
func Overlaps(proposed, existing Window) bool {
	startInside := !proposed.Start.Before(existing.Start) && proposed.Start.Before(existing.End)
	endInside := proposed.End.After(existing.Start) && !proposed.End.After(existing.End)
	contains := proposed.Start.Before(existing.Start) && proposed.End.After(existing.End)

	return startInside || endInside || contains
}

// DetectConflicts compares proposed with every booking and returns one flag
// per booking, in the same order. A flag is true when the proposed window is
// free of that booking.
func DetectConflicts(existing []*model.Booking, proposed Window) []bool {
	flags := make([]bool, len(existing))
	for i, b := range existing {
		flags[i] = !Overlaps(proposed, Window{Start: b.StartTime, End: b.EndTime})
	}
	return flags
}

// AllFree reports whether every flag is true
func AllFree(flags []bool) bool {
	for _, free := range flags {
		if !free {
			return false
		}
	}
	return true
}

// SameDate compares calendar dates, ignoring the clock and location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// OccupiesRoom reports whether a booking in this status still claims its room.
//
// Only DISCARDED bookings release the room. REJECTED bookings keep blocking
// until their owner resubmits or discards them.
func OccupiesRoom(status model.BookingStatus) bool {
	return status != model.BookingStatusDiscarded
}

// Blocking returns the bookings on date that can conflict with a new window.
// excludeID removes the booking being edited; pass 0 for new bookings.
func Blocking(bookings []*model.Booking, date time.Time, excludeID int64) []*model.Booking {
	out := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !OccupiesRoom(b.Status) || !SameDate(b.Date, date) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Availability is the detector's answer for one proposed window.
type Availability struct {
	Free        bool    `json:"free"`
	Flags       []bool  `json:"flags"`
	Conflicting []int64 `json:"conflicting"`
}

// Check filters the room's bookings down to the blocking ones and runs the
// detector over them.
func Check(bookings []*model.Booking, date time.Time, proposed Window, excludeID int64) Availability {
	blocking := Blocking(bookings, date, excludeID)
	flags := DetectConflicts(blocking, proposed)

	conflicting := []int64{}
	for i, free := range flags {
		if !free {
			conflicting = append(conflicting, blocking[i].ID)
		}
	}

	return Availability{
		Free:        len(conflicting) == 0,
		Flags:       flags,
		Conflicting: conflicting,
	}
}
