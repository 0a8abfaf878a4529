package broadcast

import (
	"context"
	"sync"
	"time"
)

// DefaultSendTimeout bounds how long a publish may block on one slow
// subscriber before that subscriber is disconnected.
const DefaultSendTimeout = time.Second

// MemoryBroadcaster delivers messages to every subscriber in publish
// order. A subscriber that stays full past the send timeout is
// disconnected so it cannot stall delivery to others indefinitely.
// All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	sendTimeout time.Duration
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup // tracks context-cancel cleanup goroutines
}

// NewMemoryBroadcaster creates a new in-memory broadcaster.
// bufferSize determines the per-subscriber channel buffer; a minimum of
// 1 is enforced. A non-positive sendTimeout falls back to
// DefaultSendTimeout.
func NewMemoryBroadcaster[T any](bufferSize int, sendTimeout time.Duration) *MemoryBroadcaster[T] {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
		sendTimeout: sendTimeout,
	}
}

// Subscribe creates a new subscriber that will receive all broadcast
// messages. The subscription is automatically cleaned up when the
// provided context is cancelled. Returns ErrBroadcasterClosed if the
// broadcaster has been closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) (Subscriber[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBroadcasterClosed
	}

	sub := newSubscriber[T](b.bufferSize)
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.cleanupWg.Add(1)
		go func() {
			defer b.cleanupWg.Done()
			<-ctx.Done()
			b.unsubscribe(sub)
		}()
	}

	return sub, nil
}

// Broadcast sends a message to all active subscribers. Each send blocks
// up to the send timeout when the subscriber's buffer is full; on
// timeout the subscriber is disconnected. Returns nil even if some
// subscribers were disconnected.
func (b *MemoryBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	// Snapshot under the read lock so slow sends happen without holding it.
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBroadcasterClosed
	}
	subs := make([]*subscriber[T], 0, len(b.subscribers))
	for sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !sub.send(msg, b.sendTimeout) {
			b.unsubscribe(sub)
		}
	}

	return nil
}

// SubscriberCount returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes all subscribers.
// It is safe to call Close multiple times.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()
		return nil
	}

	b.closed = true

	for sub := range b.subscribers {
		_ = sub.Close()
	}

	clear(b.subscribers)
	b.mu.Unlock()

	// Wait for context-cancel cleanup goroutines so Close fully settles
	// subscriber state before returning.
	b.cleanupWg.Wait()

	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	_ = sub.Close()
}
