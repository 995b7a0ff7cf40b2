// Package model holds the catalog and order types shared by every layer,
// together with the error kinds the ledger reports. Callers match kinds
// with errors.Is against the sentinels below; the concrete types carry
// details for the HTTP layer.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed or out-of-range request.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown show or order id.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientInventory marks a request for more tickets than remain.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrPersistence marks a record store failure. It is never retried
	// by the store itself.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotification marks a failed confirmation dispatch. It stops at
	// the notifier boundary.
	ErrNotification = errors.New("notification failed")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientInventoryError is returned when a show cannot cover the
// requested ticket count.
type InsufficientInventoryError struct {
	ShowID    string
	Requested int
	Remaining int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("show %s has %d tickets remaining, %d requested", e.ShowID, e.Remaining, e.Requested)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// Persistence wraps a store failure so it matches both ErrPersistence and
// the underlying cause.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
