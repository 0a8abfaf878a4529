package prefs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const minutesPerDay = 24 * 60

// QuietHours is a daily suppression window in the user's local time.
// Start and End are minutes of day; Start > End means the window wraps
// past midnight (e.g. 22:00-06:00).
type QuietHours struct {
	Enabled     bool   `json:"enabled"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Timezone    string `json:"timezone"`
}

// Validate checks the window bounds and timezone.
func (q QuietHours) Validate() error {
	if q.StartMinute < 0 || q.StartMinute >= minutesPerDay {
		return fmt.Errorf("%w: quiet hours start out of range", ErrValidation)
	}
	if q.EndMinute < 0 || q.EndMinute >= minutesPerDay {
		return fmt.Errorf("%w: quiet hours end out of range", ErrValidation)
	}
	if q.Timezone != "" {
		if _, err := time.LoadLocation(q.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrValidation, q.Timezone)
		}
	}
	return nil
}

// contains reports whether now falls inside the window. The window is
// half-open [start, end); an equal start and end is empty.
func (q QuietHours) contains(now time.Time) bool {
	if !q.Enabled {
		return false
	}
	loc := time.UTC
	if q.Timezone != "" {
		if l, err := time.LoadLocation(q.Timezone); err == nil {
			loc = l
		}
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()

	if q.StartMinute == q.EndMinute {
		return false
	}
	if q.StartMinute < q.EndMinute {
		return minute >= q.StartMinute && minute < q.EndMinute
	}
	// Wraps past midnight.
	return minute >= q.StartMinute || minute < q.EndMinute
}

// Preference is one user's override for one notification type. Absence
// of a row means "use catalog defaults".
type Preference struct {
	UserID     uuid.UUID   `json:"user_id"`
	TypeID     string      `json:"type_id"`
	Enabled    bool        `json:"enabled"`
	Channels   []string    `json:"channels"`
	QuietHours *QuietHours `json:"quiet_hours,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type prefKey struct {
	userID uuid.UUID
	typeID string
}

// ChangeFunc observes preference upserts for write-behind persistence.
type ChangeFunc func(ctx context.Context, p Preference)

// Store holds preference rows in memory, keyed by (user, type).
type Store struct {
	catalog  *Catalog
	mu       sync.RWMutex
	rows     map[prefKey]Preference
	onChange ChangeFunc
	now      func() time.Time
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithChangeHook registers the persistence hook.
func WithChangeHook(fn ChangeFunc) StoreOption {
	return func(s *Store) { s.onChange = fn }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty preference store bound to a catalog.
func NewStore(catalog *Catalog, opts ...StoreOption) *Store {
	s := &Store{
		catalog: catalog,
		rows:    make(map[prefKey]Preference),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert validates and stores one preference row.
func (s *Store) Upsert(ctx context.Context, p Preference) (Preference, error) {
	if p.UserID == uuid.Nil {
		return Preference{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !s.catalog.Has(p.TypeID) {
		return Preference{}, fmt.Errorf("%w: %q", ErrUnknownType, p.TypeID)
	}
	if p.QuietHours != nil {
		if err := p.QuietHours.Validate(); err != nil {
			return Preference{}, err
		}
	}

	p.UpdatedAt = s.now().UTC()
	s.mu.Lock()
	s.rows[prefKey{userID: p.UserID, typeID: p.TypeID}] = p
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(ctx, p)
	}
	return p, nil
}

// Get returns the row for (user, type) if one exists.
func (s *Store) Get(userID uuid.UUID, typeID string) (Preference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[prefKey{userID: userID, typeID: typeID}]
	return p, ok
}

// ListByUser returns every row the user has overridden.
func (s *Store) ListByUser(userID uuid.UUID) []Preference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Preference
	for k, p := range s.rows {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	return out
}

// Load seeds rows from persisted state without firing the change hook.
// Rows referencing types no longer in the catalog are skipped.
func (s *Store) Load(rows []Preference) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range rows {
		if !s.catalog.Has(p.TypeID) {
			continue
		}
		s.rows[prefKey{userID: p.UserID, typeID: p.TypeID}] = p
	}
}
