package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
)

type FacilityRepository struct {
	*base.Repository
}

func NewFacilityRepository(b *base.Repository) *FacilityRepository {
	return &FacilityRepository{Repository: b}
}

// Create creates a new facility
func (r *FacilityRepository) Create(ctx context.Context, facility *model.Facility) error {
	query := `
		INSERT INTO facilities (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, facility.Name, facility.Description).Scan(&facility.ID, &facility.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create facility: %w", ErrDuplicate)
		}
		return fmt.Errorf("create facility: %w", err)
	}

	return nil
}

// List returns all facilities
func (r *FacilityRepository) List(ctx context.Context) ([]*model.Facility, error) {
	rows, err := r.Query(ctx, `SELECT id, name, description, created_at FROM facilities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	return scanFacilities(rows)
}

// ListByRoom returns the facilities attached to a room
func (r *FacilityRepository) ListByRoom(ctx context.Context, roomID int64) ([]*model.Facility, error) {
	query := `
		SELECT f.id, f.name, f.description, f.created_at
		FROM facilities f
		JOIN room_facilities rf ON rf.facility_id = f.id
		WHERE rf.room_id = $1
		ORDER BY f.name
	`

	rows, err := r.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room facilities: %w", err)
	}
	defer rows.Close()

	return scanFacilities(rows)
}

// SetForRoom replaces the facilities of a room. Call inside a transaction.
func (r *FacilityRepository) SetForRoom(ctx context.Context, roomID int64, facilityIDs []int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM room_facilities WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("clear room facilities: %w", err)
	}

	if len(facilityIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO room_facilities (room_id, facility_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := r.ExecAffected(ctx, query, roomID, facilityIDs); err != nil {
		return fmt.Errorf("set room facilities: %w", err)
	}

	return nil
}

// Delete removes a facility and detaches it from all rooms
func (r *FacilityRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete facility: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanFacilities(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*model.Facility, error) {
	var facilities []*model.Facility
	for rows.Next() {
		var facility model.Facility
		if err := rows.Scan(&facility.ID, &facility.Name, &facility.Description, &facility.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		facilities = append(facilities, &facility)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facilities: %w", err)
	}

	return facilities, nil
}
