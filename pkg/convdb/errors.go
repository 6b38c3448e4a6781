package convdb

import (
	"errors"
	"fmt"
)

// ErrStorage matches every error returned by a Store operation.
var ErrStorage = errors.New("convdb: storage failure")

// StorageError wraps a database engine error with the operation that
// produced it. Errors are never retried by the store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("convdb: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
