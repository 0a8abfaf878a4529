package prefs

import "errors"

var (
	// ErrUnknownType is returned for notification type ids missing from
	// the catalog.
	ErrUnknownType = errors.New("prefs: unknown notification type")

	// ErrValidation is returned for rejected preference input.
	ErrValidation = errors.New("prefs: validation failed")
)
