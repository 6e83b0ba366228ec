package common

import (
	"errors"
	"fmt"
)

// StoreError reports a failed call to one of the backing stores. It matches
// both ErrStoreUnavailable and the underlying cause with errors.Is.
type StoreError struct {
	Store string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Store, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// Unavailable wraps err as a StoreError for the named store. Nil stays nil
// and NotFound passes through untouched, since a missing row is an answer.
func Unavailable(store string, err error) error {
	if err == nil || errors.Is(err, ErrorNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Store: store, Err: err}
}

// Inconsistent builds an error describing a dangling cross-store reference.
// The result matches ErrorInconsistent and ErrorNotFound.
func Inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrorNotFound, ErrorInconsistent, fmt.Sprintf(format, args...))
}
