package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/room_booking/internal/booking"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

func copyBooking(b *model.Booking) *model.Booking {
	c := *b
	if b.ConfirmedBy != nil {
		id := *b.ConfirmedBy
		c.ConfirmedBy = &id
	}
	c.RejectionReasons = nil
	c.Room = nil
	return &c
}

type BookingRepository struct {
	db *db
}

func (r *BookingRepository) Create(_ context.Context, b *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	b.ID = r.db.id()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.db.bookings[b.ID] = copyBooking(b)
	return nil
}

func (r *BookingRepository) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if b, ok := r.db.bookings[id]; ok {
		return copyBooking(b), nil
	}
	return nil, nil
}

func (r *BookingRepository) filter(keep func(*model.Booking) bool, less func(a, b *model.Booking) bool) []*model.Booking {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Booking
	for _, b := range r.db.bookings {
		if keep(b) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byStart(a, b *model.Booking) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return a.ID < b.ID
}

func (r *BookingRepository) ListByRoomAndDate(_ context.Context, roomID int64, date time.Time) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.RoomID == roomID && booking.SameDate(b.Date, date)
	}, byStart), nil
}

func (r *BookingRepository) ListByAccount(_ context.Context, accountID int64) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.AccountID == accountID
	}, func(a, b *model.Booking) bool { return byStart(b, a) }), nil
}

func (r *BookingRepository) List(_ context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		if f.Status != "" && b.Status != f.Status {
			return false
		}
		if f.RoomID != 0 && b.RoomID != f.RoomID {
			return false
		}
		if f.Date != nil && !booking.SameDate(b.Date, *f.Date) {
			return false
		}
		return true
	}, byStart), nil
}

func (r *BookingRepository) ListPendingEndedBefore(_ context.Context, t time.Time) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.Status == model.BookingStatusPending && b.EndTime.Before(t)
	}, byStart), nil
}

func (r *BookingRepository) Update(_ context.Context, b *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.bookings[b.ID]
	if !ok {
		return repository.ErrNotFound
	}

	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now()
	r.db.bookings[b.ID] = copyBooking(b)
	return nil
}

func (r *BookingRepository) AddRejectionReason(_ context.Context, reason *model.RejectionReason) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.bookings[reason.BookingID]; !ok {
		return repository.ErrNotFound
	}

	reason.ID = r.db.id()
	reason.CreatedAt = time.Now()
	c := *reason
	r.db.rejectionReasons[reason.ID] = &c
	return nil
}

func (r *BookingRepository) ListRejectionReasons(_ context.Context, bookingID int64) ([]*model.RejectionReason, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.RejectionReason
	for _, reason := range r.db.rejectionReasons {
		if reason.BookingID == bookingID {
			c := *reason
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
