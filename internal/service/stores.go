package service

import (
	"context"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
	"github.com/Freeeeeet/room_booking/internal/repository/memstore"
)

// Transactor runs fn inside one transaction carried by ctx
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AccountStore interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetBySubject(ctx context.Context, subject string) (*model.Account, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	ListByRole(ctx context.Context, role model.Role) ([]*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
}

type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id int64) (*model.Room, error)
	LockForBooking(ctx context.Context, id int64) error
	List(ctx context.Context, onlyActive bool) ([]*model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id int64) error
}

type AuthorizationStore interface {
	Upsert(ctx context.Context, auth *model.RoomAuthorization) error
	ListByRoom(ctx context.Context, roomID int64) ([]*model.RoomAuthorization, error)
	ListAll(ctx context.Context) (map[int64][]*model.RoomAuthorization, error)
	Delete(ctx context.Context, roomID int64, role model.Role) error
}

type FacilityStore interface {
	Create(ctx context.Context, facility *model.Facility) error
	List(ctx context.Context) ([]*model.Facility, error)
	ListByRoom(ctx context.Context, roomID int64) ([]*model.Facility, error)
	SetForRoom(ctx context.Context, roomID int64, facilityIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	ListByRoomAndDate(ctx context.Context, roomID int64, date time.Time) ([]*model.Booking, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	ListPendingEndedBefore(ctx context.Context, t time.Time) ([]*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	AddRejectionReason(ctx context.Context, reason *model.RejectionReason) error
	ListRejectionReasons(ctx context.Context, bookingID int64) ([]*model.RejectionReason, error)
}

// Stores is the persistence the services run on
type Stores struct {
	Tx             Transactor
	Accounts       AccountStore
	Rooms          RoomStore
	Authorizations AuthorizationStore
	Facilities     FacilityStore
	Bookings       BookingStore
}

// PostgresStores builds the pgx-backed stores over pool
func PostgresStores(pool *pgxpool.Pool) Stores {
	b := base.NewRepository(pool)
	return Stores{
		Tx:             b,
		Accounts:       repository.NewAccountRepository(b),
		Rooms:          repository.NewRoomRepository(b),
		Authorizations: repository.NewAuthorizationRepository(b),
		Facilities:     repository.NewFacilityRepository(b),
		Bookings:       repository.NewBookingRepository(b),
	}
}

// MemoryStores wraps an in-memory store
func MemoryStores(s *memstore.Store) Stores {
	return Stores{
		Tx:             s,
		Accounts:       s.Accounts,
		Rooms:          s.Rooms,
		Authorizations: s.Authorizations,
		Facilities:     s.Facilities,
		Bookings:       s.Bookings,
	}
}

// Notifier delivers booking events. Failures are logged by the caller and
// never undo the change that raised the event.
type Notifier interface {
	Notify(ctx context.Context, event model.BookingEvent) error
}

// Uploader stores a file under key and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}
