package prefs

import (
	"fmt"

	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// NotificationType is one catalog entry: immutable reference data
// describing a class of notification and its delivery defaults.
type NotificationType struct {
	ID              string
	Category        notifier.Category
	Priority        notifier.Priority
	DefaultEnabled  bool
	DefaultChannels []string
}

// Catalog is the seeded, read-only set of notification types. Safe for
// concurrent use; never mutated after construction.
type Catalog struct {
	byID map[string]NotificationType
}

// NewCatalog validates and indexes the given types.
func NewCatalog(types ...NotificationType) (*Catalog, error) {
	byID := make(map[string]NotificationType, len(types))
	for _, t := range types {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: notification type id is required", ErrValidation)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("%w: type %q has unknown category %q", ErrValidation, t.ID, t.Category)
		}
		if !t.Priority.Valid() {
			return nil, fmt.Errorf("%w: type %q has unknown priority %q", ErrValidation, t.ID, t.Priority)
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate notification type %q", ErrValidation, t.ID)
		}
		byID[t.ID] = t
	}
	return &Catalog{byID: byID}, nil
}

// MustNewCatalog panics on invalid seed data.
func MustNewCatalog(types ...NotificationType) *Catalog {
	c, err := NewCatalog(types...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the catalog entry or ErrUnknownType.
func (c *Catalog) Get(id string) (NotificationType, error) {
	t, ok := c.byID[id]
	if !ok {
		return NotificationType{}, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return t, nil
}

// Has reports whether the type id exists.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Types returns every catalog entry.
func (c *Catalog) Types() []NotificationType {
	out := make([]NotificationType, 0, len(c.byID))
	for _, t := range c.byID {
		out = append(out, t)
	}
	return out
}

// DefaultCatalog is the trading platform's seed set.
func DefaultCatalog() *Catalog {
	return MustNewCatalog(
		NotificationType{
			ID:              "price_alert",
			Category:        notifier.CategoryTrading,
			Priority:        notifier.PriorityHigh,
			DefaultEnabled:  true,
			DefaultChannels: []string{"in_app", "push"},
		},
		NotificationType{
			ID:              "volume_alert",
			Category:        notifier.CategoryTrading,
			Priority:        notifier.PriorityMedium,
			DefaultEnabled:  true,
			DefaultChannels: []string{"in_app"},
		},
		NotificationType{
			ID:              "market_update",
			Category:        notifier.CategoryMarket,
			Priority:        notifier.PriorityLow,
			DefaultEnabled:  true,
			DefaultChannels: []string{"in_app"},
		},
		NotificationType{
			ID:              "account_security",
			Category:        notifier.CategoryAccount,
			Priority:        notifier.PriorityCritical,
			DefaultEnabled:  true,
			DefaultChannels: []string{"in_app", "push", "email"},
		},
		NotificationType{
			ID:              "compliance_notice",
			Category:        notifier.CategoryCompliance,
			Priority:        notifier.PriorityHigh,
			DefaultEnabled:  true,
			DefaultChannels: []string{"in_app", "email"},
		},
		NotificationType{
			ID:              "system_announcement",
			Category:        notifier.CategorySystem,
			Priority:        notifier.PriorityLow,
			DefaultEnabled:  false,
			DefaultChannels: []string{"in_app"},
		},
	)
}
