package models

import "errors"

// Sentinel errors returned by model operations. Controllers translate
// these into HTTP status codes and error envelopes.
var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrTableUnavailable is returned when a table is already taken;
	// of two concurrent assignments of one free table, exactly one
	// caller sees this error
	ErrTableUnavailable = errors.New("table no longer available")

	// ErrOrderClosed is returned when mutating an order that has
	// already been closed
	ErrOrderClosed = errors.New("order is closed")

	// ErrInvalidCredentials is returned on failed authentication; it is
	// deliberately the same for an unknown username and a wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidInput is returned when input fails model-level validation
	ErrInvalidInput = errors.New("invalid input")
)
