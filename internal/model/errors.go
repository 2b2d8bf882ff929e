package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown usernames, sessions and envelopes.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a username is already registered.
	ErrConflict = errors.New("username already exists")
	// ErrInvalidKeySize is returned when a public key is not exactly
	// KeySize bytes.
	ErrInvalidKeySize = errors.New("invalid key size")
	// ErrValidation covers malformed or missing request fields.
	ErrValidation = errors.New("validation failed")
)

// ReplayError reports a counter that did not advance strictly past the
// last accepted value for the sender's slot.
type ReplayError struct {
	Expected int64
	Received int64
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay attack detected: expected counter %d, received %d", e.Expected, e.Received)
}
