package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks a backend that is unreachable or rejected the request.
	ErrFetch = errors.New("fetch failed")
	// ErrNotFound marks a product or category id that does not exist.
	ErrNotFound = errors.New("not found")
)

// FetchError wraps a backend failure. Callers may retry.
type FetchError struct {
	Op  string // e.g. "ListProducts"
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrFetch)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrFetch, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// NewFetchError wraps err as a FetchError for op.
func NewFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Kind string // "product" or "category"
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFetch checks if an error is a retryable backend failure
func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}
