package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
)

type RoomRepository struct {
	*base.Repository
}

func NewRoomRepository(b *base.Repository) *RoomRepository {
	return &RoomRepository{Repository: b}
}

const roomColumns = `id, name, type, location, capacity, open_minute, close_minute,
	min_interval_minutes, is_active, requires_confirmation, image_url, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
	var (
		room             model.Room
		openMin, closeMin int
	)
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Type,
		&room.Location,
		&room.Capacity,
		&openMin,
		&closeMin,
		&room.MinIntervalMinutes,
		&room.IsActive,
		&room.RequiresConfirmation,
		&room.ImageURL,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	room.OpenTime = model.ClockTime(openMin)
	room.CloseTime = model.ClockTime(closeMin)
	return &room, nil
}

// Create creates a new room
func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	query := `
		INSERT INTO rooms (name, type, location, capacity, open_minute, close_minute,
			min_interval_minutes, is_active, requires_confirmation, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		room.Name,
		room.Type,
		room.Location,
		room.Capacity,
		int(room.OpenTime),
		int(room.CloseTime),
		room.MinIntervalMinutes,
		room.IsActive,
		room.RequiresConfirmation,
		room.ImageURL,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	return nil
}

// GetByID returns the room or nil
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room by id: %w", err)
	}

	return room, nil
}

// LockForBooking takes a row lock on the room for the rest of the transaction
// in ctx, so bookings of one room are checked and written one at a time.
func (r *RoomRepository) LockForBooking(ctx context.Context, id int64) error {
	var locked int64
	err := r.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if base.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("lock room: %w", err)
	}
	return nil
}

// List returns rooms ordered by name; onlyActive skips deactivated rooms
func (r *RoomRepository) List(ctx context.Context, onlyActive bool) ([]*model.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY name, id
	`

	rows, err := r.Query(ctx, query, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return rooms, nil
}

// Update stores all editable room fields
func (r *RoomRepository) Update(ctx context.Context, room *model.Room) error {
	query := `
		UPDATE rooms
		SET name = $1, type = $2, location = $3, capacity = $4, open_minute = $5,
			close_minute = $6, min_interval_minutes = $7, is_active = $8,
			requires_confirmation = $9, image_url = $10, updated_at = now()
		WHERE id = $11
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		room.Name,
		room.Type,
		room.Location,
		room.Capacity,
		int(room.OpenTime),
		int(room.CloseTime),
		room.MinIntervalMinutes,
		room.IsActive,
		room.RequiresConfirmation,
		room.ImageURL,
		room.ID,
	).Scan(&room.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update room: %w", err)
	}

	return nil
}

// Delete removes a room. Rooms with bookings cannot be deleted, deactivate them instead.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete room: %w", ErrInUse)
		}
		return fmt.Errorf("delete room: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
