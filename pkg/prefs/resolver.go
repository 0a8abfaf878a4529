package prefs

import (
	"time"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// EffectivePolicy is the resolved delivery configuration for one
// (user, notification type) pair at one point in time.
type EffectivePolicy struct {
	Enabled                bool
	Channels               []string
	Priority               notifier.Priority
	SuppressedByQuietHours bool
}

// Resolver merges catalog defaults with per-user overrides and quiet
// hours. Pure reads; safe to call concurrently and repeatedly.
type Resolver struct {
	catalog *Catalog
	store   *Store
}

// NewResolver creates a resolver over the catalog and preference store.
func NewResolver(catalog *Catalog, store *Store) *Resolver {
	return &Resolver{catalog: catalog, store: store}
}

// Resolve computes the effective policy for (userID, typeID) at now.
// Unknown type ids fail with ErrUnknownType; a missing preference row
// yields exactly the catalog defaults. Quiet hours turn Enabled off for
// everything except critical-priority types.
func (r *Resolver) Resolve(userID uuid.UUID, typeID string, now time.Time) (EffectivePolicy, error) {
	t, err := r.catalog.Get(typeID)
	if err != nil {
		return EffectivePolicy{}, err
	}

	policy := EffectivePolicy{
		Enabled:  t.DefaultEnabled,
		Channels: append([]string(nil), t.DefaultChannels...),
		Priority: t.Priority,
	}

	pref, ok := r.store.Get(userID, typeID)
	if ok {
		policy.Enabled = pref.Enabled
		policy.Channels = append([]string(nil), pref.Channels...)
	}

	if ok && pref.QuietHours != nil && pref.QuietHours.contains(now) {
		if t.Priority != notifier.PriorityCritical {
			policy.Enabled = false
			policy.SuppressedByQuietHours = true
		}
	}

	return policy, nil
}
