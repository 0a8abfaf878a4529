package channels

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/HyperCogAI/alertkit/pkg/logger"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// Kind names a delivery mechanism.
type Kind string

const (
	KindInApp   Kind = "in_app"
	KindPush    Kind = "push"
	KindEmail   Kind = "email"
	KindWebhook Kind = "webhook"
)

// requiresConsent reports whether the kind needs out-of-band user
// permission before delivery (push notifications do).
func (k Kind) requiresConsent() bool {
	return k == KindPush
}

// Channel is one registered delivery mechanism. Enabled is the global
// kill switch: a disabled channel is skipped by the router on the next
// dispatch, without cancelling in-flight deliveries.
type Channel struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Enabled   bool           `json:"enabled"`
	Settings  map[string]any `json:"settings,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Adapter delivers one notification over one mechanism. Errors wrapped
// in ErrPermanentFailure are not retried.
type Adapter interface {
	Deliver(ctx context.Context, n notifier.Notification) error
}

// Permission is the outcome of a consent request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ConsentFunc answers consent requests for kinds that need them.
type ConsentFunc func(ctx context.Context, kind Kind) bool

// ChangeFunc observes channel upserts for write-behind persistence.
type ChangeFunc func(ctx context.Context, ch Channel)

type registered struct {
	channel Channel
	adapter Adapter
}

// Registry holds the configured channels and their adapters.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*registered
	consent  ConsentFunc
	onChange ChangeFunc
	log      *slog.Logger
	now      func() time.Time
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithConsentFunc installs the consent source for kinds that need it.
// Without one, consent-gated kinds are denied.
func WithConsentFunc(fn ConsentFunc) RegistryOption {
	return func(r *Registry) { r.consent = fn }
}

// WithRegistryChangeHook registers the persistence hook.
func WithRegistryChangeHook(fn ChangeFunc) RegistryOption {
	return func(r *Registry) { r.onChange = fn }
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty channel registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		channels: make(map[string]*registered),
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a channel and its adapter.
func (r *Registry) Register(ctx context.Context, ch Channel, adapter Adapter) {
	ch.UpdatedAt = r.now().UTC()

	r.mu.Lock()
	r.channels[ch.ID] = &registered{channel: ch, adapter: adapter}
	r.mu.Unlock()

	r.log.InfoContext(ctx, "channel registered",
		logger.Component("channels"),
		logger.ChannelID(ch.ID),
		slog.String("kind", string(ch.Kind)),
		slog.Bool("enabled", ch.Enabled),
	)
	if r.onChange != nil {
		r.onChange(ctx, ch)
	}
}

// SetEnabled flips the kill switch. Takes effect on the next dispatch.
func (r *Registry) SetEnabled(ctx context.Context, id string, enabled bool) (Channel, error) {
	r.mu.Lock()
	reg, ok := r.channels[id]
	if !ok {
		r.mu.Unlock()
		return Channel{}, ErrChannelNotFound
	}
	reg.channel.Enabled = enabled
	reg.channel.UpdatedAt = r.now().UTC()
	ch := reg.channel
	r.mu.Unlock()

	r.log.InfoContext(ctx, "channel toggled",
		logger.Component("channels"),
		logger.ChannelID(id),
		slog.Bool("enabled", enabled),
	)
	if r.onChange != nil {
		r.onChange(ctx, ch)
	}
	return ch, nil
}

// Get returns a channel snapshot.
func (r *Registry) Get(id string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.channels[id]
	if !ok {
		return Channel{}, false
	}
	return reg.channel, true
}

// List returns snapshots of every registered channel.
func (r *Registry) List() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.channels))
	for _, reg := range r.channels {
		out = append(out, reg.channel)
	}
	return out
}

// deliverable returns the adapter for an enabled channel.
func (r *Registry) deliverable(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.channels[id]
	if !ok || !reg.channel.Enabled || reg.adapter == nil {
		return nil, false
	}
	return reg.adapter, true
}

// RequestPermission answers a consent request for a channel kind. Kinds
// without a consent requirement are always granted; consent-gated kinds
// ask the installed ConsentFunc and are denied without one. Denial is a
// normal answer, never an error.
func (r *Registry) RequestPermission(ctx context.Context, kind Kind) Permission {
	if !kind.requiresConsent() {
		return PermissionGranted
	}
	if r.consent != nil && r.consent(ctx, kind) {
		return PermissionGranted
	}
	return PermissionDenied
}
