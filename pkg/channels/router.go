package channels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HyperCogAI/alertkit/pkg/async"
	"github.com/HyperCogAI/alertkit/pkg/logger"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
)

// DefaultRetryDelay is the fixed wait before the single transient retry.
const DefaultRetryDelay = 2 * time.Second

// DispatchResult records what the router did for one notification.
// Attempted lists every channel that was invoked, success or not;
// Failed maps channel id to the final error for channels that failed.
type DispatchResult struct {
	Attempted []string
	Failed    map[string]error
}

// Router fans a notification out to the channels its policy names. Each
// channel runs on its own goroutine; one slow or failing channel never
// blocks or fails another.
type Router struct {
	registry   *Registry
	retryDelay time.Duration
	log        *slog.Logger
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithRetryDelay overrides the fixed wait before the transient retry.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.retryDelay = d
		}
	}
}

// WithRouterLogger sets the logger.
func WithRouterLogger(log *slog.Logger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRouter creates a router over the registry.
func NewRouter(registry *Registry, opts ...RouterOption) *Router {
	r := &Router{
		registry:   registry,
		retryDelay: DefaultRetryDelay,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch delivers the notification over every enabled channel in the
// policy, concurrently, and waits for all of them. A disabled policy
// yields an empty result, except that a critical-priority notification
// is delivered even when the policy was disabled by quiet hours.
// Channel ids that are unregistered or killed are skipped, not failed;
// the channel set reflects what was actually attempted.
func (r *Router) Dispatch(ctx context.Context, n notifier.Notification, policy prefs.EffectivePolicy) DispatchResult {
	result := DispatchResult{Failed: make(map[string]error)}
	if !policy.Enabled {
		// Quiet hours never hold back a critical notification, even when
		// its type resolves to a lower priority.
		bypass := policy.SuppressedByQuietHours && n.Priority == notifier.PriorityCritical
		if !bypass {
			return result
		}
	}

	type attempt struct {
		channelID string
		future    *async.Future[struct{}]
	}
	var attempts []attempt
	for _, channelID := range policy.Channels {
		adapter, ok := r.registry.deliverable(channelID)
		if !ok {
			r.log.DebugContext(ctx, "skipping unavailable channel",
				logger.Component("channels"),
				logger.ChannelID(channelID),
				logger.NotificationID(n.ID),
			)
			continue
		}
		attempts = append(attempts, attempt{
			channelID: channelID,
			future: async.Err(ctx, n, func(ctx context.Context, n notifier.Notification) error {
				return r.deliverWithRetry(ctx, channelID, adapter, n)
			}),
		})
	}

	for _, a := range attempts {
		result.Attempted = append(result.Attempted, a.channelID)
		if _, err := a.future.Await(); err != nil {
			result.Failed[a.channelID] = err

			r.log.ErrorContext(ctx, "channel delivery failed",
				logger.Component("channels"),
				logger.ChannelID(a.channelID),
				logger.NotificationID(n.ID),
				logger.UserID(n.UserID),
				logger.Error(err),
			)
		}
	}
	return result
}

// deliverWithRetry makes the initial attempt plus at most one retry
// after a fixed delay for transient failures.
func (r *Router) deliverWithRetry(ctx context.Context, channelID string, adapter Adapter, n notifier.Notification) error {
	err := adapter.Deliver(ctx, n)
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, ctx.Err())
	case <-time.After(r.retryDelay):
	}

	r.log.WarnContext(ctx, "retrying channel delivery",
		logger.Component("channels"),
		logger.ChannelID(channelID),
		logger.NotificationID(n.ID),
		logger.RetryCount(1),
		logger.Error(err),
	)

	if err := adapter.Deliver(ctx, n); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}
