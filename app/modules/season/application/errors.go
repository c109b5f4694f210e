package seasonservice

import "errors"

var (
	// ErrRolloverRejected wraps every rollover validation failure.
	ErrRolloverRejected = errors.New("season rollover rejected")
	// ErrUnrecognizedTime is returned when a rollover time cannot be parsed.
	ErrUnrecognizedTime = errors.New("unrecognized time")
)
