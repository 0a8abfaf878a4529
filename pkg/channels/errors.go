package channels

import "errors"

var (
	// ErrChannelNotFound is returned when a channel id is not registered.
	ErrChannelNotFound = errors.New("channels: channel not found")

	// ErrChannelDisabled is returned when delivery hits a killed channel.
	ErrChannelDisabled = errors.New("channels: channel disabled")

	// ErrDeliveryFailed wraps transient adapter failures; the router
	// retries these once.
	ErrDeliveryFailed = errors.New("channels: delivery failed")

	// ErrPermanentFailure wraps failures no retry can fix (bad address,
	// rejected payload). Never retried.
	ErrPermanentFailure = errors.New("channels: permanent delivery failure")

	// ErrNoRecipient is returned when the user has no address or
	// endpoint configured for the channel. Permanent.
	ErrNoRecipient = errors.New("channels: no recipient configured")
)

// IsPermanent reports whether err should not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanentFailure) || errors.Is(err, ErrNoRecipient)
}
