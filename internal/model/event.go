package model

import "time"

type BookingEventType string

const (
	BookingEventCreated     BookingEventType = "created"
	BookingEventApproved    BookingEventType = "approved"
	BookingEventRejected    BookingEventType = "rejected"
	BookingEventResubmitted BookingEventType = "resubmitted"
	BookingEventDiscarded   BookingEventType = "discarded"
)

// BookingEvent describes a booking state change for notifiers
type BookingEvent struct {
	Type    BookingEventType `json:"type"`
	Booking *Booking         `json:"booking"`
	Owner   *Account         `json:"-"`
	ActorID int64            `json:"actor_id"`
	Reason  string           `json:"reason,omitempty"`
	At      time.Time        `json:"at"`
}
