package matchservice

import (
	"errors"
	"fmt"
)

// ErrStorage is matched by every StorageError.
var ErrStorage = errors.New("storage unavailable")

// StorageError is a transient store failure. Callers retry with backoff.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
