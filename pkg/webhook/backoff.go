package webhook

import (
	"math"
	"time"
)

// BackoffStrategy calculates the delay before a retry attempt.
// Implementations must be safe for concurrent use.
type BackoffStrategy interface {
	// NextInterval returns the delay before the given retry attempt.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// ExponentialBackoff doubles the delay on every attempt up to MaxInterval.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	maxIv := e.MaxInterval
	if maxIv == 0 {
		maxIv = 30 * time.Second
	}

	interval := float64(initial) * math.Pow(2, float64(attempt-1))
	if interval > float64(maxIv) {
		interval = float64(maxIv)
	}

	return time.Duration(interval)
}

// DefaultBackoffStrategy matches the notification delivery policy:
// a single short fixed delay before the only retry.
func DefaultBackoffStrategy() BackoffStrategy {
	return FixedBackoff{Interval: 2 * time.Second}
}
