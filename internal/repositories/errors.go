package repositories

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row, and when a write
	// references a user that no longer exists (foreign key violation).
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write hits a unique constraint, such as a
	// duplicate email or a second record for the same directed friendship pair.
	ErrConflict = errors.New("record conflict")
)
