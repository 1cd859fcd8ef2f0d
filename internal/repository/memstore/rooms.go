package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

func copyRoom(r *model.Room) *model.Room {
	c := *r
	c.Facilities = nil
	return &c
}

type RoomRepository struct {
	db *db
}

func (r *RoomRepository) Create(_ context.Context, room *model.Room) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now()
	room.ID = r.db.id()
	room.CreatedAt = now
	room.UpdatedAt = now
	r.db.rooms[room.ID] = copyRoom(room)
	return nil
}

func (r *RoomRepository) GetByID(_ context.Context, id int64) (*model.Room, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if room, ok := r.db.rooms[id]; ok {
		return copyRoom(room), nil
	}
	return nil, nil
}

// LockForBooking only checks existence; Store.WithinTx already serializes writers
func (r *RoomRepository) LockForBooking(ctx context.Context, id int64) error {
	room, _ := r.GetByID(ctx, id)
	if room == nil {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RoomRepository) List(_ context.Context, onlyActive bool) ([]*model.Room, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Room
	for _, room := range r.db.rooms {
		if onlyActive && !room.IsActive {
			continue
		}
		out = append(out, copyRoom(room))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *RoomRepository) Update(_ context.Context, room *model.Room) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.rooms[room.ID]
	if !ok {
		return repository.ErrNotFound
	}

	room.CreatedAt = existing.CreatedAt
	room.UpdatedAt = time.Now()
	r.db.rooms[room.ID] = copyRoom(room)
	return nil
}

func (r *RoomRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.rooms[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range r.db.bookings {
		if b.RoomID == id {
			return fmt.Errorf("delete room: %w", repository.ErrInUse)
		}
	}

	delete(r.db.rooms, id)
	delete(r.db.roomFacilities, id)
	for authID, auth := range r.db.authorizations {
		if auth.RoomID == id {
			delete(r.db.authorizations, authID)
		}
	}
	return nil
}

type AuthorizationRepository struct {
	db *db
}

func (r *AuthorizationRepository) Upsert(_ context.Context, auth *model.RoomAuthorization) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.authorizations {
		if existing.RoomID == auth.RoomID && existing.Role == auth.Role {
			auth.ID = existing.ID
			c := *auth
			r.db.authorizations[auth.ID] = &c
			return nil
		}
	}

	auth.ID = r.db.id()
	c := *auth
	r.db.authorizations[auth.ID] = &c
	return nil
}

func (r *AuthorizationRepository) ListByRoom(_ context.Context, roomID int64) ([]*model.RoomAuthorization, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.RoomAuthorization
	for _, auth := range r.db.authorizations {
		if auth.RoomID == roomID {
			c := *auth
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

func (r *AuthorizationRepository) ListAll(_ context.Context) (map[int64][]*model.RoomAuthorization, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[int64][]*model.RoomAuthorization)
	for _, auth := range r.db.authorizations {
		c := *auth
		out[auth.RoomID] = append(out[auth.RoomID], &c)
	}
	return out, nil
}

func (r *AuthorizationRepository) Delete(_ context.Context, roomID int64, role model.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, auth := range r.db.authorizations {
		if auth.RoomID == roomID && auth.Role == role {
			delete(r.db.authorizations, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type FacilityRepository struct {
	db *db
}

func (r *FacilityRepository) Create(_ context.Context, facility *model.Facility) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.facilities {
		if existing.Name == facility.Name {
			return fmt.Errorf("create facility: %w", repository.ErrDuplicate)
		}
	}

	facility.ID = r.db.id()
	facility.CreatedAt = time.Now()
	c := *facility
	r.db.facilities[facility.ID] = &c
	return nil
}

func (r *FacilityRepository) List(_ context.Context) ([]*model.Facility, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Facility
	for _, f := range r.db.facilities {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *FacilityRepository) ListByRoom(_ context.Context, roomID int64) ([]*model.Facility, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*model.Facility
	for id := range r.db.roomFacilities[roomID] {
		if f, ok := r.db.facilities[id]; ok {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *FacilityRepository) SetForRoom(_ context.Context, roomID int64, facilityIDs []int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	set := make(map[int64]struct{}, len(facilityIDs))
	for _, id := range facilityIDs {
		if _, ok := r.db.facilities[id]; !ok {
			return fmt.Errorf("set room facilities: facility %d: %w", id, repository.ErrNotFound)
		}
		set[id] = struct{}{}
	}
	r.db.roomFacilities[roomID] = set
	return nil
}

func (r *FacilityRepository) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.facilities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.facilities, id)
	for _, set := range r.db.roomFacilities {
		delete(set, id)
	}
	return nil
}
