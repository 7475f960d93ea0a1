package auth

import (
	"errors"
	"fmt"
)

// Expected authentication outcomes. Callers branch on these and map them to
// 401/403; they are never logged as errors and never retried.
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenExpired     = errors.New("token expired")
	ErrAccountNotFound  = errors.New("account not found")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrAccountInactive  = errors.New("account inactive")
)

// StorageError wraps an infrastructural store failure. Surfaced to callers as
// a 5xx; retry policy, if any, belongs to the storage layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
