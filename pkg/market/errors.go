package market

import "errors"

var (
	// ErrFeedClosed is returned by Subscribe and Publish after Close.
	ErrFeedClosed = errors.New("market: feed closed")

	// ErrEmptyInstrument is returned when an instrument id is required but blank.
	ErrEmptyInstrument = errors.New("market: instrument id is required")

	// ErrInvalidTick is returned for ticks that fail validation.
	ErrInvalidTick = errors.New("market: invalid tick")
)
