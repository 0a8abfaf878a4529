package market

import "context"

// Feed is a per-instrument tick subscription source. The returned channel
// is closed when ctx is cancelled or the feed shuts down; ticks for one
// instrument arrive in publish order.
type Feed interface {
	Subscribe(ctx context.Context, instrumentID string) (<-chan Tick, error)
	Close() error
}
