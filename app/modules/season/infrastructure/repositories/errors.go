package seasondb

import "errors"

var (
	// ErrNotFound is returned when a season does not exist.
	ErrNotFound = errors.New("season not found")
	// ErrNoRowsAffected is returned when an update matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)
