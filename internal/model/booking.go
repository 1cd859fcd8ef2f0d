package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"   // waiting for admin approval
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusRejected  BookingStatus = "REJECTED"  // owner may edit and resubmit
	BookingStatusDiscarded BookingStatus = "DISCARDED" // never blocks a room again
)

// Valid reports whether s is one of the known statuses
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusDiscarded:
		return true
	}
	return false
}

type Booking struct {
	ID          int64         `json:"id"`
	RoomID      int64         `json:"room_id"`
	AccountID   int64         `json:"account_id"`
	Date        time.Time     `json:"date"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Purpose     string        `json:"purpose"`
	Phone       string        `json:"phone,omitempty"`
	Status      BookingStatus `json:"status"`
	ConfirmedBy *int64        `json:"confirmed_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Not stored in the bookings table
	RejectionReasons []*RejectionReason `json:"rejection_reasons,omitempty"`
	Room             *Room              `json:"room,omitempty"`
}

// IsPending checks if booking waits for approval
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// IsRejected checks if booking was rejected
func (b *Booking) IsRejected() bool {
	return b.Status == BookingStatusRejected
}

// RejectionReason is one entry of a booking's rejection history. Entries are
// appended on every rejection and never removed.
type RejectionReason struct {
	ID         int64     `json:"id"`
	BookingID  int64     `json:"booking_id"`
	Reason     string    `json:"reason"`
	RejectedBy int64     `json:"rejected_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingFilter narrows admin listings. Zero values mean "any".
type BookingFilter struct {
	Status BookingStatus
	RoomID int64
	Date   *time.Time
}
