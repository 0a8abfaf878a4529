package notifier

import "errors"

var (
	// ErrNotFound is returned when the notification id is unknown.
	ErrNotFound = errors.New("notifier: notification not found")

	// ErrValidation is returned for rejected input; nothing is partially applied.
	ErrValidation = errors.New("notifier: validation failed")

	// ErrStoreClosed is returned from all operations after Close.
	ErrStoreClosed = errors.New("notifier: store closed")
)
