package webhook

import "errors"

var (
	// ErrDeliveryFailed is returned when all delivery attempts are exhausted.
	ErrDeliveryFailed = errors.New("webhook delivery failed")

	// ErrPermanentFailure marks failures that will not resolve with retries.
	ErrPermanentFailure = errors.New("permanent webhook failure")

	// ErrTemporaryFailure marks failures that may resolve with retries.
	ErrTemporaryFailure = errors.New("temporary webhook failure")

	// ErrInvalidURL is returned for empty, unparsable, or non-HTTP URLs.
	ErrInvalidURL = errors.New("invalid webhook URL")

	// ErrInvalidPayload is returned for payloads that cannot be sent.
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrInvalidConfiguration is returned for bad signing configuration.
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")

	// ErrTimeout is returned when a single request exceeds its timeout.
	ErrTimeout = errors.New("webhook request timeout")
)

// IsPermanent reports whether err should not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentFailure) || errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrInvalidPayload)
}
