package broadcast

import "errors"

var (
	// ErrBroadcasterClosed is returned when broadcasting on a closed broadcaster.
	ErrBroadcasterClosed = errors.New("broadcast: broadcaster is closed")
)
