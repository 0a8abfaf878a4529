package broadcast

import (
	"context"
	"sync"
	"time"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving broadcast messages.
	// Messages arrive in the order they were broadcast.
	Receive(ctx context.Context) <-chan Message[T]

	// Close closes the subscriber and releases resources.
	// Close is idempotent and safe to call multiple times.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
type Broadcaster[T any] interface {
	// Subscribe creates a new subscriber that will receive all broadcast
	// messages. When the context is cancelled, the subscription is
	// automatically cleaned up. Subscribing on a closed broadcaster
	// returns ErrBroadcasterClosed.
	Subscribe(ctx context.Context) (Subscriber[T], error)

	// Broadcast sends a message to all active subscribers, preserving
	// publish order per subscriber. A subscriber whose buffer stays full
	// past the send timeout is disconnected.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch: make(chan Message[T], bufferSize),
	}
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

// Close waits for any in-flight send to finish, which is bounded by the
// broadcaster's send timeout.
func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send delivers msg, blocking up to timeout when the buffer is full.
// Returns false if the subscriber is closed or the timeout elapsed.
func (s *subscriber[T]) send(msg Message[T], timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.ch <- msg:
		return true
	case <-timer.C:
		return false
	}
}
