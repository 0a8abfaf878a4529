package channels

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/broadcast"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// InAppAdapter delivers notifications to live user sessions. Sessions
// attach with a context; when it ends the subscription is torn down, so
// no subscriber state outlives a UI session. Delivering to a user with
// no attached session succeeds trivially: the notification is already
// in the ledger, a session is just a live view.
type InAppAdapter struct {
	mu           sync.Mutex
	broadcasters map[uuid.UUID]*broadcast.MemoryBroadcaster[notifier.Notification]
	bufferSize   int
	closed       bool
}

// NewInAppAdapter creates an adapter with the given per-session buffer.
func NewInAppAdapter(bufferSize int) *InAppAdapter {
	if bufferSize < 1 {
		bufferSize = 16
	}
	return &InAppAdapter{
		broadcasters: make(map[uuid.UUID]*broadcast.MemoryBroadcaster[notifier.Notification]),
		bufferSize:   bufferSize,
	}
}

func (a *InAppAdapter) broadcaster(userID uuid.UUID) (*broadcast.MemoryBroadcaster[notifier.Notification], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, false
	}
	b, ok := a.broadcasters[userID]
	if !ok {
		b = broadcast.NewMemoryBroadcaster[notifier.Notification](a.bufferSize, broadcast.DefaultSendTimeout)
		a.broadcasters[userID] = b
	}
	return b, true
}

// Attach subscribes a session to the user's live notifications until
// ctx ends.
func (a *InAppAdapter) Attach(ctx context.Context, userID uuid.UUID) (<-chan notifier.Notification, error) {
	b, ok := a.broadcaster(userID)
	if !ok {
		return nil, ErrChannelDisabled
	}
	sub, err := b.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan notifier.Notification, a.bufferSize)
	go func() {
		defer close(out)
		for msg := range sub.Receive(ctx) {
			select {
			case out <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Deliver pushes the notification to any attached sessions.
func (a *InAppAdapter) Deliver(ctx context.Context, n notifier.Notification) error {
	a.mu.Lock()
	b, ok := a.broadcasters[n.UserID]
	closed := a.closed
	a.mu.Unlock()

	if closed {
		return ErrChannelDisabled
	}
	if !ok || b.SubscriberCount() == 0 {
		return nil
	}
	return b.Broadcast(ctx, broadcast.Message[notifier.Notification]{Data: n})
}

// Close shuts down every session broadcaster.
func (a *InAppAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	broadcasters := make([]*broadcast.MemoryBroadcaster[notifier.Notification], 0, len(a.broadcasters))
	for _, b := range a.broadcasters {
		broadcasters = append(broadcasters, b)
	}
	a.mu.Unlock()

	for _, b := range broadcasters {
		_ = b.Close()
	}
	return nil
}
