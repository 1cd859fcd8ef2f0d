// Package memstore keeps accounts, rooms and bookings in process memory. It
// backs STORAGE=memory for local runs and the service and HTTP tests.
package memstore

import (
	"context"
	"sync"

	"github.com/Freeeeeet/room_booking/internal/model"
)

type db struct {
	mu     sync.RWMutex
	nextID int64

	accounts         map[int64]*model.Account
	rooms            map[int64]*model.Room
	authorizations   map[int64]*model.RoomAuthorization
	facilities       map[int64]*model.Facility
	roomFacilities   map[int64]map[int64]struct{}
	bookings         map[int64]*model.Booking
	rejectionReasons map[int64]*model.RejectionReason
}

func (d *db) id() int64 {
	d.nextID++
	return d.nextID
}

// Store bundles the in-memory repositories over one shared data set
type Store struct {
	txMu sync.Mutex

	Accounts       *AccountRepository
	Rooms          *RoomRepository
	Authorizations *AuthorizationRepository
	Facilities     *FacilityRepository
	Bookings       *BookingRepository
}

// New returns an empty store
func New() *Store {
	d := &db{
		accounts:         make(map[int64]*model.Account),
		rooms:            make(map[int64]*model.Room),
		authorizations:   make(map[int64]*model.RoomAuthorization),
		facilities:       make(map[int64]*model.Facility),
		roomFacilities:   make(map[int64]map[int64]struct{}),
		bookings:         make(map[int64]*model.Booking),
		rejectionReasons: make(map[int64]*model.RejectionReason),
	}

	return &Store{
		Accounts:       &AccountRepository{db: d},
		Rooms:          &RoomRepository{db: d},
		Authorizations: &AuthorizationRepository{db: d},
		Facilities:     &FacilityRepository{db: d},
		Bookings:       &BookingRepository{db: d},
	}
}

type txKey struct{}

// WithinTx serializes transactions. There is no rollback: a failing fn keeps
// the writes it already made, so callers write last.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}
