package model

import "time"

type Room struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Type                 string    `json:"type"`
	Location             string    `json:"location"`
	Capacity             int       `json:"capacity"`
	OpenTime             ClockTime `json:"open_time"`
	CloseTime            ClockTime `json:"close_time"`
	MinIntervalMinutes   int       `json:"min_interval_minutes"`
	IsActive             bool      `json:"is_active"`
	RequiresConfirmation bool      `json:"requires_confirmation"` // legacy, superseded by RoomAuthorization
	ImageURL             string    `json:"image_url,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Filled by the service layer, not stored in the rooms table
	Facilities []*Facility `json:"facilities,omitempty"`
}

// RoomAuthorization pairs a room with a role and says whether that role may
// book the room and whether its bookings need admin approval.
type RoomAuthorization struct {
	ID                   int64 `json:"id"`
	RoomID               int64 `json:"room_id"`
	Role                 Role  `json:"role"`
	IsAllowed            bool  `json:"is_allowed"`
	RequiresConfirmation bool  `json:"requires_confirmation"`
}

type Facility struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
