package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no live entry exists for a key. It is an expected
	// outcome, not a failure: an expired-but-present entry and an absent one
	// are indistinguishable to callers.
	ErrNotFound = errors.New("store: entry not found")

	// ErrStoreFailure indicates a driver or connectivity failure.
	ErrStoreFailure = errors.New("store: operation failed")

	// ErrNilCollection indicates a MongoStore was created without a collection.
	ErrNilCollection = errors.New("store: collection is nil")
)

// NotFoundError reports the cache key that had no live entry. It never
// carries the plaintext identifier.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: no live entry for key %s", e.Key)
}

// Is reports ErrNotFound so callers can match with errors.Is.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FailureError wraps a driver error so callers can match ErrStoreFailure
// while still unwrapping the underlying cause.
type FailureError struct {
	Op  string
	Err error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Is reports ErrStoreFailure so callers can match with errors.Is.
func (e *FailureError) Is(target error) bool {
	return target == ErrStoreFailure
}
