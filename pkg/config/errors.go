package config

import "errors"

var (
	// ErrNilPointer is returned when Load is called with a nil target.
	ErrNilPointer = errors.New("config target cannot be nil")

	// ErrParsingConfig is returned when environment parsing fails.
	ErrParsingConfig = errors.New("failed to parse config from environment")

	// ErrConfigNotLoaded is returned when a cached config cannot be retrieved.
	ErrConfigNotLoaded = errors.New("config not loaded")
)
