package httpserver

import "errors"

var (
	// ErrStart means the listener failed to start or serve.
	ErrStart = errors.New("httpserver: start failed")
	// ErrShutdown means graceful shutdown did not complete in time.
	ErrShutdown = errors.New("httpserver: shutdown failed")
)
