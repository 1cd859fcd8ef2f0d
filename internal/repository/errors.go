package repository

import "errors"

var (
	// ErrNotFound is returned by updates and deletes that matched no row.
	// Lookups return nil, nil instead.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate wraps unique constraint violations
	ErrDuplicate = errors.New("duplicate record")

	// ErrInUse wraps foreign key violations on delete
	ErrInUse = errors.New("record is still referenced")
)
