package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository/base"
)

type AuthorizationRepository struct {
	*base.Repository
}

func NewAuthorizationRepository(b *base.Repository) *AuthorizationRepository {
	return &AuthorizationRepository{Repository: b}
}

// Upsert creates or replaces the rule for (room, role)
func (r *AuthorizationRepository) Upsert(ctx context.Context, auth *model.RoomAuthorization) error {
	query := `
		INSERT INTO room_authorizations (room_id, role, is_allowed, requires_confirmation)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_id, role)
		DO UPDATE SET is_allowed = EXCLUDED.is_allowed, requires_confirmation = EXCLUDED.requires_confirmation
		RETURNING id
	`

	err := r.QueryRow(
		ctx, query,
		auth.RoomID,
		auth.Role,
		auth.IsAllowed,
		auth.RequiresConfirmation,
	).Scan(&auth.ID)

	if err != nil {
		return fmt.Errorf("upsert room authorization: %w", err)
	}

	return nil
}

// ListByRoom returns all rules of a room
func (r *AuthorizationRepository) ListByRoom(ctx context.Context, roomID int64) ([]*model.RoomAuthorization, error) {
	query := `
		SELECT id, room_id, role, is_allowed, requires_confirmation
		FROM room_authorizations
		WHERE room_id = $1
		ORDER BY role
	`

	rows, err := r.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room authorizations: %w", err)
	}
	defer rows.Close()

	var rules []*model.RoomAuthorization
	for rows.Next() {
		var rule model.RoomAuthorization
		if err := rows.Scan(&rule.ID, &rule.RoomID, &rule.Role, &rule.IsAllowed, &rule.RequiresConfirmation); err != nil {
			return nil, fmt.Errorf("scan room authorization: %w", err)
		}
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room authorizations: %w", err)
	}

	return rules, nil
}

// ListAll returns every rule grouped by room id
func (r *AuthorizationRepository) ListAll(ctx context.Context) (map[int64][]*model.RoomAuthorization, error) {
	query := `SELECT id, room_id, role, is_allowed, requires_confirmation FROM room_authorizations`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all room authorizations: %w", err)
	}
	defer rows.Close()

	byRoom := make(map[int64][]*model.RoomAuthorization)
	for rows.Next() {
		var rule model.RoomAuthorization
		if err := rows.Scan(&rule.ID, &rule.RoomID, &rule.Role, &rule.IsAllowed, &rule.RequiresConfirmation); err != nil {
			return nil, fmt.Errorf("scan room authorization: %w", err)
		}
		byRoom[rule.RoomID] = append(byRoom[rule.RoomID], &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room authorizations: %w", err)
	}

	return byRoom, nil
}

// Delete removes the rule for (room, role)
func (r *AuthorizationRepository) Delete(ctx context.Context, roomID int64, role model.Role) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM room_authorizations WHERE room_id = $1 AND role = $2`, roomID, role)
	if err != nil {
		return fmt.Errorf("delete room authorization: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
