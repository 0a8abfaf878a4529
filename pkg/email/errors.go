package email

import "errors"

var (
	// ErrFailedToSendEmail is returned when the provider rejects or fails a send.
	ErrFailedToSendEmail = errors.New("email: failed to send")

	// ErrInvalidConfig is returned for incomplete sender configuration.
	ErrInvalidConfig = errors.New("email: invalid config")

	// ErrInvalidParams is returned when send parameters fail validation.
	ErrInvalidParams = errors.New("email: invalid send parameters")
)
