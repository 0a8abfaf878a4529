package notifier

import (
	"time"

	"github.com/google/uuid"
)

// Category groups notifications for preferences and stats.
type Category string

const (
	CategoryTrading    Category = "trading"
	CategoryMarket     Category = "market"
	CategoryAccount    Category = "account"
	CategoryCompliance Category = "compliance"
	CategorySystem     Category = "system"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryTrading, CategoryMarket, CategoryAccount, CategoryCompliance, CategorySystem:
		return true
	}
	return false
}

// Priority orders notifications by urgency. Critical bypasses quiet
// hours; high and critical take the synchronous urgent path on create.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Urgent reports whether creations at this priority also take the
// synchronous urgent callback path.
func (p Priority) Urgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// Notification is one ledger entry. Immutable after creation except for
// read-state and the attempted-channels record.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Category  Category   `json:"category"`
	Priority  Priority   `json:"priority"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Payload   Payload    `json:"payload,omitempty"`
	Channels  []string   `json:"channels,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the notification has passed its expiry.
// Expired entries are excluded from unread counts and default listings
// but are not eagerly deleted.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}
