package matchdb

import "errors"

var (
	// ErrNotFound is returned when a player, match or result does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected is returned when an update matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)
