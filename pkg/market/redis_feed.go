package market

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/HyperCogAI/alertkit/pkg/logger"
)

// RedisFeed consumes ticks from Redis pub/sub, one channel per
// instrument. Malformed payloads are logged and skipped; a bad publisher
// must not stall alert evaluation for everyone else.
type RedisFeed struct {
	client *goredis.Client
	cfg    Config
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
	subs   []*goredis.PubSub
	wg     sync.WaitGroup
}

// NewRedisFeed wraps an already-connected client.
func NewRedisFeed(client *goredis.Client, cfg Config, log *slog.Logger) *RedisFeed {
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "ticks:"
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisFeed{client: client, cfg: cfg, log: log}
}

// Subscribe opens a pub/sub subscription on ChannelPrefix+instrumentID
// and decodes each message into a Tick. The returned channel closes when
// ctx is cancelled or the feed closes.
func (f *RedisFeed) Subscribe(ctx context.Context, instrumentID string) (<-chan Tick, error) {
	if instrumentID == "" {
		return nil, ErrEmptyInstrument
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFeedClosed
	}
	sub := f.client.Subscribe(ctx, f.cfg.ChannelPrefix+instrumentID)
	f.subs = append(f.subs, sub)
	f.wg.Add(1)
	f.mu.Unlock()

	out := make(chan Tick, f.cfg.BufferSize)
	go func() {
		defer f.wg.Done()
		defer close(out)
		defer func() { _ = sub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var tick Tick
				if err := json.Unmarshal([]byte(msg.Payload), &tick); err != nil {
					f.log.WarnContext(ctx, "skipping malformed tick",
						logger.Component("market"),
						logger.InstrumentID(instrumentID),
						logger.Error(err),
					)
					continue
				}
				if err := tick.Validate(); err != nil {
					f.log.WarnContext(ctx, "skipping invalid tick",
						logger.Component("market"),
						logger.InstrumentID(instrumentID),
						logger.Error(err),
					)
					continue
				}
				select {
				case out <- tick:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close tears down all pub/sub subscriptions and waits for decoders to
// exit. The underlying client is owned by the caller and left open.
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	f.wg.Wait()
	return nil
}
