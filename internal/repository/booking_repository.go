package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(b *base.Repository) *BookingRepository {
	return &BookingRepository{Repository: b}
}

const bookingColumns = `id, room_id, account_id, date, start_time, end_time, purpose, phone,
	status, confirmed_by, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.AccountID,
		&booking.Date,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Purpose,
		&booking.Phone,
		&booking.Status,
		&booking.ConfirmedBy,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) queryBookings(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// dateOnly drops the clock so the DATE column compares by calendar day
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create creates a new booking
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (room_id, account_id, date, start_time, end_time, purpose, phone, status, confirmed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.RoomID,
		booking.AccountID,
		dateOnly(booking.Date),
		booking.StartTime,
		booking.EndTime,
		booking.Purpose,
		booking.Phone,
		booking.Status,
		booking.ConfirmedBy,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID returns the booking or nil
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// ListByRoomAndDate returns every booking of a room on a calendar date,
// whatever its status. The conflict detector does the status filtering.
func (r *BookingRepository) ListByRoomAndDate(ctx context.Context, roomID int64, date time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE room_id = $1 AND date = $2
		ORDER BY start_time
	`
	return r.queryBookings(ctx, "list bookings by room and date", query, roomID, dateOnly(date))
}

// ListByAccount returns an account's bookings, newest first
func (r *BookingRepository) ListByAccount(ctx context.Context, accountID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE account_id = $1
		ORDER BY date DESC, start_time DESC
	`
	return r.queryBookings(ctx, "list bookings by account", query, accountID)
}

// List returns bookings matching filter
func (r *BookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var date *time.Time
	if filter.Date != nil {
		d := dateOnly(*filter.Date)
		date = &d
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = 0 OR room_id = $2)
		  AND ($3::date IS NULL OR date = $3)
		ORDER BY date, start_time
	`
	return r.queryBookings(ctx, "list bookings", query, string(filter.Status), filter.RoomID, date)
}

// ListPendingEndedBefore returns PENDING bookings that ended before t
func (r *BookingRepository) ListPendingEndedBefore(ctx context.Context, t time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'PENDING' AND end_time < $1
		ORDER BY end_time
	`
	return r.queryBookings(ctx, "list stale pending bookings", query, t)
}

// Update stores the editable fields, status and confirmer of a booking
func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET room_id = $1, date = $2, start_time = $3, end_time = $4, purpose = $5,
			phone = $6, status = $7, confirmed_by = $8, updated_at = now()
		WHERE id = $9
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.RoomID,
		dateOnly(booking.Date),
		booking.StartTime,
		booking.EndTime,
		booking.Purpose,
		booking.Phone,
		booking.Status,
		booking.ConfirmedBy,
		booking.ID,
	).Scan(&booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}

// AddRejectionReason appends to a booking's rejection history
func (r *BookingRepository) AddRejectionReason(ctx context.Context, reason *model.RejectionReason) error {
	query := `
		INSERT INTO booking_rejection_reasons (booking_id, reason, rejected_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, reason.BookingID, reason.Reason, reason.RejectedBy).
		Scan(&reason.ID, &reason.CreatedAt)
	if err != nil {
		return fmt.Errorf("add rejection reason: %w", err)
	}

	return nil
}

// ListRejectionReasons returns a booking's rejection history, oldest first
func (r *BookingRepository) ListRejectionReasons(ctx context.Context, bookingID int64) ([]*model.RejectionReason, error) {
	query := `
		SELECT id, booking_id, reason, rejected_by, created_at
		FROM booking_rejection_reasons
		WHERE booking_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list rejection reasons: %w", err)
	}
	defer rows.Close()

	var reasons []*model.RejectionReason
	for rows.Next() {
		var reason model.RejectionReason
		if err := rows.Scan(&reason.ID, &reason.BookingID, &reason.Reason, &reason.RejectedBy, &reason.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rejection reason: %w", err)
		}
		reasons = append(reasons, &reason)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rejection reasons: %w", err)
	}

	return reasons, nil
}
