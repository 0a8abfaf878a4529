package alerts

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for rejected input; nothing is partially applied.
	ErrValidation = errors.New("alerts: validation failed")

	// ErrNotFound is returned when the alert id is unknown.
	ErrNotFound = errors.New("alerts: alert not found")

	// ErrInvalidState is returned for lifecycle transitions the state
	// machine does not allow.
	ErrInvalidState = errors.New("alerts: invalid state transition")

	// ErrAlreadyTriggered is returned when toggling a fired alert.
	// Triggered is terminal; matches ErrInvalidState in errors.Is checks.
	ErrAlreadyTriggered = fmt.Errorf("%w: alert already triggered", ErrInvalidState)
)
