package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/booking"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)

// BookingRequest is a new booking as submitted by its owner
type BookingRequest struct {
	RoomID    int64
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
	Purpose   string
	Phone     string
}

type BookingService struct {
	stores   Stores
	notifier Notifier
	loc      *time.Location
	logger   *zap.Logger
}

func NewBookingService(stores Stores, notifier Notifier, loc *time.Location, logger *zap.Logger) *BookingService {
	return &BookingService{
		stores:   stores,
		notifier: notifier,
		loc:      loc,
		logger:   logger,
	}
}

// midnight returns the start of t's calendar day in the service location
func (s *BookingService) midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// normalize puts loaded booking dates at midnight in the service location,
// whatever location the store returned them in
func (s *BookingService) normalize(bookings ...*model.Booking) {
	for _, b := range bookings {
		if !b.Date.IsZero() {
			b.Date = s.midnight(b.Date)
		}
	}
}

func (s *BookingService) getRoom(ctx context.Context, id int64) (*model.Room, error) {
	room, err := s.stores.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *BookingService) getBooking(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.stores.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	s.normalize(b)
	return b, nil
}

// validate checks a booking's fields against its room. b.Date must already
// be normalized with midnight.
func (s *BookingService) validate(room *model.Room, b *model.Booking) error {
	if b.Date.IsZero() || b.StartTime.IsZero() || b.EndTime.IsZero() {
		return validationError("date, start_time and end_time are required")
	}
	if strings.TrimSpace(b.Purpose) == "" {
		return validationError("purpose is required")
	}

	window, err := booking.NewWindow(b.StartTime, b.EndTime)
	if err != nil {
		return validationError("%v", err)
	}

	nextDay := b.Date.AddDate(0, 0, 1)
	if !booking.SameDate(b.StartTime.In(s.loc), b.Date) ||
		!(booking.SameDate(b.EndTime.In(s.loc), b.Date) || b.EndTime.Equal(nextDay)) {
		return validationError("start_time and end_time must be on %s", b.Date.Format(time.DateOnly))
	}

	opens := room.OpenTime.On(b.Date, s.loc)
	closes := room.CloseTime.On(b.Date, s.loc)
	if window.Start.Before(opens) || window.End.After(closes) {
		return validationError("room is open from %s to %s", room.OpenTime, room.CloseTime)
	}

	if window.Duration() < time.Duration(room.MinIntervalMinutes)*time.Minute {
		return validationError("booking must last at least %d minutes", room.MinIntervalMinutes)
	}

	if b.Phone != "" && !phonePattern.MatchString(b.Phone) {
		return validationError("invalid phone number")
	}

	return nil
}

// eligibility evaluates whether actor may book room
func (s *BookingService) eligibility(ctx context.Context, actor *model.Account, room *model.Room) (booking.Eligibility, error) {
	rules, err := s.stores.Authorizations.ListByRoom(ctx, room.ID)
	if err != nil {
		return booking.Eligibility{}, fmt.Errorf("list room authorizations: %w", err)
	}
	return eligibilityFor(actor, room, rules), nil
}

// ensureFree locks the room and runs the conflict detector over the room's
// bookings for b's date, skipping excludeID. Must run inside a transaction.
func (s *BookingService) ensureFree(ctx context.Context, b *model.Booking, excludeID int64) error {
	if err := s.stores.Rooms.LockForBooking(ctx, b.RoomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("lock room: %w", err)
	}

	existing, err := s.stores.Bookings.ListByRoomAndDate(ctx, b.RoomID, b.Date)
	if err != nil {
		return fmt.Errorf("list room bookings: %w", err)
	}

	result := booking.Check(existing, b.Date, booking.Window{Start: b.StartTime, End: b.EndTime}, excludeID)
	if !result.Free {
		return &ConflictError{BookingIDs: result.Conflicting}
	}
	return nil
}

// Create validates and stores a new booking. Its status is PENDING or
// APPROVED depending on the room's authorization rule for the actor's role.
func (s *BookingService) Create(ctx context.Context, actor *model.Account, req BookingRequest) (*model.Booking, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if req.RoomID == 0 {
		return nil, validationError("room_id is required")
	}

	room, err := s.getRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		RoomID:    room.ID,
		AccountID: actor.ID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Purpose:   strings.TrimSpace(req.Purpose),
		Phone:     strings.TrimSpace(req.Phone),
	}
	if !req.Date.IsZero() {
		b.Date = s.midnight(req.Date)
	}

	if err := s.validate(room, b); err != nil {
		return nil, err
	}

	eligibility, err := s.eligibility(ctx, actor, room)
	if err != nil {
		return nil, err
	}
	if !eligibility.CanBook {
		return nil, notEligible(eligibility.Reason)
	}
	b.Status = eligibility.InitialStatus()

	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureFree(ctx, b, 0); err != nil {
			return err
		}
		if err := s.stores.Bookings.Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("room_id", b.RoomID),
		zap.Int64("account_id", actor.ID),
		zap.Time("start", b.StartTime),
		zap.Time("end", b.EndTime),
		zap.String("status", string(b.Status)),
	)

	b.Room = room
	s.notify(ctx, model.BookingEventCreated, b, actor.ID, "")

	return b, nil
}

// changeStatus loads a booking, checks the transition and stores the new status.
// apply may adjust the booking before it is saved.
func (s *BookingService) changeStatus(ctx context.Context, id int64, to model.BookingStatus, allowed func(*model.Booking) error, apply func(ctx context.Context, b *model.Booking) error) (*model.Booking, error) {
	var b *model.Booking

	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.getBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := allowed(b); err != nil {
			return err
		}
		if err := booking.Transition(b.Status, to); err != nil {
			return err
		}

		b.Status = to
		if err := s.stores.Bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if apply != nil {
			return apply(ctx, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

func adminOnly(actor *model.Account) func(*model.Booking) error {
	return func(*model.Booking) error {
		if !actor.IsAdmin() {
			return ErrForbidden
		}
		return nil
	}
}

// Approve moves a PENDING booking to APPROVED and records the approver
func (s *BookingService) Approve(ctx context.Context, admin *model.Account, id int64) (*model.Booking, error) {
	b, err := s.changeStatus(ctx, id, model.BookingStatusApproved, func(b *model.Booking) error {
		if !admin.IsAdmin() {
			return ErrForbidden
		}
		b.ConfirmedBy = &admin.ID
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking approved",
		zap.Int64("booking_id", id),
		zap.Int64("admin_id", admin.ID),
	)

	s.notify(ctx, model.BookingEventApproved, b, admin.ID, "")
	return b, nil
}

// Reject moves a PENDING booking to REJECTED and appends reason to its history
func (s *BookingService) Reject(ctx context.Context, admin *model.Account, id int64, reason string) (*model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	if reason == "" {
		return nil, validationError("reason is required")
	}

	b, err := s.changeStatus(ctx, id, model.BookingStatusRejected, adminOnly(admin), func(ctx context.Context, b *model.Booking) error {
		entry := &model.RejectionReason{
			BookingID:  b.ID,
			Reason:     reason,
			RejectedBy: admin.ID,
		}
		if err := s.stores.Bookings.AddRejectionReason(ctx, entry); err != nil {
			return fmt.Errorf("add rejection reason: %w", err)
		}
		b.RejectionReasons = append(b.RejectionReasons, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking rejected",
		zap.Int64("booking_id", id),
		zap.Int64("admin_id", admin.ID),
		zap.String("reason", reason),
	)

	s.notify(ctx, model.BookingEventRejected, b, admin.ID, reason)
	return b, nil
}

// Resubmit lets the owner edit a REJECTED booking and send it back for
// approval. The edited window is checked against the room's other bookings.
func (s *BookingService) Resubmit(ctx context.Context, owner *model.Account, id int64, edit booking.Edit) (*model.Booking, error) {
	if owner == nil {
		return nil, ErrForbidden
	}

	var b *model.Booking
	var room *model.Room

	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.getBooking(ctx, id)
		if err != nil {
			return err
		}
		if b.AccountID != owner.ID {
			return ErrForbidden
		}

		if err := booking.Resubmit(b, edit); err != nil {
			return err
		}
		b.Date = s.midnight(b.Date)
		b.Purpose = strings.TrimSpace(b.Purpose)
		b.Phone = strings.TrimSpace(b.Phone)

		room, err = s.getRoom(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if err := s.validate(room, b); err != nil {
			return err
		}

		eligibility, err := s.eligibility(ctx, owner, room)
		if err != nil {
			return err
		}
		if !eligibility.CanBook {
			return notEligible(eligibility.Reason)
		}

		if err := s.ensureFree(ctx, b, b.ID); err != nil {
			return err
		}

		if err := s.stores.Bookings.Update(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}

		b.RejectionReasons, err = s.stores.Bookings.ListRejectionReasons(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("list rejection reasons: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking resubmitted",
		zap.Int64("booking_id", b.ID),
		zap.Int64("room_id", b.RoomID),
		zap.Int64("account_id", owner.ID),
		zap.Int("rejections", len(b.RejectionReasons)),
	)

	b.Room = room
	s.notify(ctx, model.BookingEventResubmitted, b, owner.ID, "")
	return b, nil
}

// Discard withdraws a booking and frees its time window. Owners and admins may discard.
func (s *BookingService) Discard(ctx context.Context, actor *model.Account, id int64) (*model.Booking, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	b, err := s.changeStatus(ctx, id, model.BookingStatusDiscarded, func(b *model.Booking) error {
		if b.AccountID != actor.ID && !actor.IsAdmin() {
			return ErrForbidden
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking discarded",
		zap.Int64("booking_id", id),
		zap.Int64("actor_id", actor.ID),
	)

	s.notify(ctx, model.BookingEventDiscarded, b, actor.ID, "")
	return b, nil
}

// Get returns a booking with its room and rejection history
func (s *BookingService) Get(ctx context.Context, actor *model.Account, id int64) (*model.Booking, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.AccountID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	b.RejectionReasons, err = s.stores.Bookings.ListRejectionReasons(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list rejection reasons: %w", err)
	}
	b.Room, err = s.stores.Rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	return b, nil
}

// ListMine returns the actor's bookings, newest first
func (s *BookingService) ListMine(ctx context.Context, actor *model.Account) ([]*model.Booking, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	bookings, err := s.stores.Bookings.ListByAccount(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	s.normalize(bookings...)
	return bookings, nil
}

func (s *BookingService) List(ctx context.Context, admin *model.Account, filter model.BookingFilter) ([]*model.Booking, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("unknown status %q", filter.Status)
	}
	if filter.Date != nil {
		d := s.midnight(*filter.Date)
		filter.Date = &d
	}

	bookings, err := s.stores.Bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.normalize(bookings...)
	return bookings, nil
}

// DiscardStale discards PENDING bookings that ended before now without a
// decision. Returns how many were discarded.
func (s *BookingService) DiscardStale(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.stores.Bookings.ListPendingEndedBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list stale bookings: %w", err)
	}

	discarded := 0
	for _, candidate := range stale {
		b, err := s.changeStatus(ctx, candidate.ID, model.BookingStatusDiscarded, func(b *model.Booking) error {
			if !b.IsPending() {
				return booking.ErrInvalidTransition
			}
			return nil
		}, nil)
		if errors.Is(err, booking.ErrInvalidTransition) {
			// decided since it was listed
			continue
		}
		if err != nil {
			return discarded, fmt.Errorf("discard stale booking %d: %w", candidate.ID, err)
		}

		discarded++
		s.notify(ctx, model.BookingEventDiscarded, b, 0, "no decision before the booking ended")
	}

	if discarded > 0 {
		s.logger.Info("Stale bookings discarded", zap.Int("count", discarded))
	}

	return discarded, nil
}

// notify sends an event and only logs delivery failures
func (s *BookingService) notify(ctx context.Context, eventType model.BookingEventType, b *model.Booking, actorID int64, reason string) {
	if s.notifier == nil {
		return
	}

	owner, err := s.stores.Accounts.GetByID(ctx, b.AccountID)
	if err != nil {
		s.logger.Error("Failed to load booking owner for notification",
			zap.Int64("booking_id", b.ID),
			zap.Error(err),
		)
	}

	if b.Room == nil {
		if room, err := s.stores.Rooms.GetByID(ctx, b.RoomID); err == nil {
			b.Room = room
		}
	}

	event := model.BookingEvent{
		Type:    eventType,
		Booking: b,
		Owner:   owner,
		ActorID: actorID,
		Reason:  reason,
		At:      time.Now(),
	}

	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Error("Failed to send booking notification",
			zap.Int64("booking_id", b.ID),
			zap.String("event", string(eventType)),
			zap.Error(err),
		)
	}
}
