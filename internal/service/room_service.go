package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/booking"
	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

// RoomInput holds the editable fields of a room
type RoomInput struct {
	Name                 string          `json:"name"`
	Type                 string          `json:"type"`
	Location             string          `json:"location"`
	Capacity             int             `json:"capacity"`
	OpenTime             model.ClockTime `json:"open_time"`
	CloseTime            model.ClockTime `json:"close_time"`
	MinIntervalMinutes   int             `json:"min_interval_minutes"`
	IsActive             bool            `json:"is_active"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
}

func (in RoomInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return validationError("name is required")
	case in.Capacity < 0:
		return validationError("capacity cannot be negative")
	case !in.OpenTime.Valid() || !in.CloseTime.Valid():
		return validationError("opening hours must be within a day")
	case in.OpenTime >= in.CloseTime:
		return validationError("open_time must be before close_time")
	case in.MinIntervalMinutes < 0:
		return validationError("min_interval_minutes cannot be negative")
	case in.MinIntervalMinutes > int(in.CloseTime-in.OpenTime):
		return validationError("min_interval_minutes exceeds opening hours")
	}
	return nil
}

func (in RoomInput) apply(room *model.Room) {
	room.Name = strings.TrimSpace(in.Name)
	room.Type = in.Type
	room.Location = in.Location
	room.Capacity = in.Capacity
	room.OpenTime = in.OpenTime
	room.CloseTime = in.CloseTime
	room.MinIntervalMinutes = in.MinIntervalMinutes
	room.IsActive = in.IsActive
	room.RequiresConfirmation = in.RequiresConfirmation
}

// RoomView is a room as seen by one account
type RoomView struct {
	*model.Room
	Eligibility booking.Eligibility `json:"eligibility"`
}

// eligibilityFor is the capability check shared by room listings and booking
// submission. Inactive rooms cannot be booked by anyone.
func eligibilityFor(account *model.Account, room *model.Room, rules []*model.RoomAuthorization) booking.Eligibility {
	if !room.IsActive {
		return booking.Eligibility{Reason: "room is not active"}
	}
	return booking.EvaluateAccount(account, rules)
}

type RoomService struct {
	stores   Stores
	uploader Uploader
	loc      *time.Location
	logger   *zap.Logger
}

func NewRoomService(stores Stores, uploader Uploader, loc *time.Location, logger *zap.Logger) *RoomService {
	return &RoomService{
		stores:   stores,
		uploader: uploader,
		loc:      loc,
		logger:   logger,
	}
}

func (s *RoomService) getRoom(ctx context.Context, id int64) (*model.Room, error) {
	room, err := s.stores.Rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	room.Facilities, err = s.stores.Facilities.ListByRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room facilities: %w", err)
	}
	return room, nil
}

func (s *RoomService) Create(ctx context.Context, actor *model.Account, in RoomInput) (*model.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	room := &model.Room{}
	in.apply(room)

	if err := s.stores.Rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.logger.Info("Room created",
		zap.Int64("room_id", room.ID),
		zap.String("name", room.Name),
		zap.Int64("admin_id", actor.ID),
	)

	return room, nil
}

// Get returns a room with the actor's eligibility for it
func (s *RoomService) Get(ctx context.Context, actor *model.Account, id int64) (*RoomView, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	rules, err := s.stores.Authorizations.ListByRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list room authorizations: %w", err)
	}

	return &RoomView{Room: room, Eligibility: eligibilityFor(actor, room, rules)}, nil
}

// List returns rooms with the actor's eligibility for each, so clients can
// grey out rooms the actor cannot book
func (s *RoomService) List(ctx context.Context, actor *model.Account, onlyActive bool) ([]*RoomView, error) {
	rooms, err := s.stores.Rooms.List(ctx, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	rules, err := s.stores.Authorizations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list room authorizations: %w", err)
	}

	views := make([]*RoomView, 0, len(rooms))
	for _, room := range rooms {
		room.Facilities, err = s.stores.Facilities.ListByRoom(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("get room facilities: %w", err)
		}
		views = append(views, &RoomView{
			Room:        room,
			Eligibility: eligibilityFor(actor, room, rules[room.ID]),
		})
	}

	return views, nil
}

func (s *RoomService) Update(ctx context.Context, actor *model.Account, id int64, in RoomInput) (*model.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(room)
	if err := s.stores.Rooms.Update(ctx, room); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("update room: %w", err)
	}

	s.logger.Info("Room updated",
		zap.Int64("room_id", room.ID),
		zap.Bool("is_active", room.IsActive),
		zap.Int64("admin_id", actor.ID),
	)

	return room, nil
}

func (s *RoomService) Delete(ctx context.Context, actor *model.Account, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	err := s.stores.Rooms.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrRoomNotFound
	case errors.Is(err, repository.ErrInUse):
		return ErrRoomInUse
	case err != nil:
		return fmt.Errorf("delete room: %w", err)
	}

	s.logger.Info("Room deleted",
		zap.Int64("room_id", id),
		zap.Int64("admin_id", actor.ID),
	)

	return nil
}

// SetAuthorization creates or replaces the rule for role on a room
func (s *RoomService) SetAuthorization(ctx context.Context, actor *model.Account, roomID int64, role model.Role, isAllowed, requiresConfirmation bool) (*model.RoomAuthorization, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, validationError("unknown role %q", role)
	}
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	auth := &model.RoomAuthorization{
		RoomID:               roomID,
		Role:                 role,
		IsAllowed:            isAllowed,
		RequiresConfirmation: requiresConfirmation,
	}
	if err := s.stores.Authorizations.Upsert(ctx, auth); err != nil {
		return nil, fmt.Errorf("upsert room authorization: %w", err)
	}

	s.logger.Info("Room authorization set",
		zap.Int64("room_id", roomID),
		zap.String("role", string(role)),
		zap.Bool("is_allowed", isAllowed),
		zap.Bool("requires_confirmation", requiresConfirmation),
		zap.Int64("admin_id", actor.ID),
	)

	return auth, nil
}

func (s *RoomService) DeleteAuthorization(ctx context.Context, actor *model.Account, roomID int64, role model.Role) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	err := s.stores.Authorizations.Delete(ctx, roomID, role)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAuthorizationNotFound
	}
	if err != nil {
		return fmt.Errorf("delete room authorization: %w", err)
	}

	s.logger.Info("Room authorization removed",
		zap.Int64("room_id", roomID),
		zap.String("role", string(role)),
		zap.Int64("admin_id", actor.ID),
	)

	return nil
}

func (s *RoomService) ListAuthorizations(ctx context.Context, roomID int64) ([]*model.RoomAuthorization, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.stores.Authorizations.ListByRoom(ctx, roomID)
}

// SetFacilities replaces the facilities of a room
func (s *RoomService) SetFacilities(ctx context.Context, actor *model.Account, roomID int64, facilityIDs []int64) ([]*model.Facility, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	err := s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.stores.Facilities.SetForRoom(ctx, roomID, facilityIDs)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFacilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set room facilities: %w", err)
	}

	s.logger.Info("Room facilities set",
		zap.Int64("room_id", roomID),
		zap.Int64s("facility_ids", facilityIDs),
	)

	return s.stores.Facilities.ListByRoom(ctx, roomID)
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// UploadImage stores a room picture and records its URL on the room
func (s *RoomService) UploadImage(ctx context.Context, actor *model.Account, roomID int64, filename string, body io.Reader, contentType string) (*model.Room, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	ext, ok := imageTypes[contentType]
	if !ok {
		return nil, validationError("unsupported image type %q", contentType)
	}
	if e := strings.ToLower(path.Ext(filename)); e == ".jpeg" || e == ".jpg" || e == ".png" || e == ".webp" {
		ext = e
	}

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("rooms/%d/%s%s", roomID, uuid.NewString(), ext)
	url, err := s.uploader.Upload(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload room image: %w", err)
	}

	room.ImageURL = url
	if err := s.stores.Rooms.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("update room image: %w", err)
	}

	s.logger.Info("Room image uploaded",
		zap.Int64("room_id", roomID),
		zap.String("url", url),
	)

	return room, nil
}

// Availability runs the conflict detector for a proposed window on a room.
// excludeID leaves out the booking being edited.
func (s *RoomService) Availability(ctx context.Context, roomID int64, date time.Time, start, end model.ClockTime, excludeID int64) (booking.Availability, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return booking.Availability{}, err
	}

	window, err := booking.NewWindow(start.On(date, s.loc), end.On(date, s.loc))
	if err != nil {
		return booking.Availability{}, validationError("%v", err)
	}

	bookings, err := s.stores.Bookings.ListByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return booking.Availability{}, fmt.Errorf("list room bookings: %w", err)
	}

	return booking.Check(bookings, date, window, excludeID), nil
}
