package market

import (
	"context"
	"sync"
	"time"

	"github.com/HyperCogAI/alertkit/pkg/broadcast"
)

// MemoryFeed is an in-process Feed for tests and local development.
// Each instrument gets its own broadcaster, created lazily on first
// subscribe or publish.
type MemoryFeed struct {
	mu           sync.RWMutex
	broadcasters map[string]*broadcast.MemoryBroadcaster[Tick]
	bufferSize   int
	closed       bool
	wg           sync.WaitGroup
}

// NewMemoryFeed creates a feed with the given per-subscriber buffer size.
func NewMemoryFeed(bufferSize int) *MemoryFeed {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &MemoryFeed{
		broadcasters: make(map[string]*broadcast.MemoryBroadcaster[Tick]),
		bufferSize:   bufferSize,
	}
}

func (f *MemoryFeed) broadcaster(instrumentID string) (*broadcast.MemoryBroadcaster[Tick], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrFeedClosed
	}
	b, ok := f.broadcasters[instrumentID]
	if !ok {
		b = broadcast.NewMemoryBroadcaster[Tick](f.bufferSize, broadcast.DefaultSendTimeout)
		f.broadcasters[instrumentID] = b
	}
	return b, nil
}

// Subscribe returns a channel of ticks for one instrument. The channel
// closes when ctx is cancelled or the feed closes.
func (f *MemoryFeed) Subscribe(ctx context.Context, instrumentID string) (<-chan Tick, error) {
	if instrumentID == "" {
		return nil, ErrEmptyInstrument
	}
	b, err := f.broadcaster(instrumentID)
	if err != nil {
		return nil, err
	}
	sub, err := b.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Tick, f.bufferSize)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
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

// Publish validates and fans out a tick to the instrument's subscribers.
func (f *MemoryFeed) Publish(ctx context.Context, tick Tick) error {
	if err := tick.Validate(); err != nil {
		return err
	}
	if tick.Timestamp.IsZero() {
		tick.Timestamp = time.Now().UTC()
	}
	b, err := f.broadcaster(tick.InstrumentID)
	if err != nil {
		return err
	}
	return b.Broadcast(ctx, broadcast.Message[Tick]{Data: tick})
}

// Close shuts down every instrument broadcaster and waits for subscriber
// forwarding goroutines to drain.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	broadcasters := make([]*broadcast.MemoryBroadcaster[Tick], 0, len(f.broadcasters))
	for _, b := range f.broadcasters {
		broadcasters = append(broadcasters, b)
	}
	f.mu.Unlock()

	for _, b := range broadcasters {
		_ = b.Close()
	}
	f.wg.Wait()
	return nil
}
