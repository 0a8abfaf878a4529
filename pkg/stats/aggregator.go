package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/logger"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
)

// Summary is the aggregate view for one user.
type Summary struct {
	Total      int                       `json:"total"`
	Unread     int                       `json:"unread"`
	ByCategory map[notifier.Category]int `json:"by_category"`
	ByPriority map[notifier.Priority]int `json:"by_priority"`
	Today      int                       `json:"today"`
	ThisWeek   int                       `json:"this_week"`
}

// notifMeta is the per-notification residue the aggregator keeps so
// deletes and time windows can be computed without consulting the store.
type notifMeta struct {
	createdAt time.Time
	expiresAt *time.Time
	read      bool
	category  notifier.Category
	priority  notifier.Priority
}

type userCounters struct {
	total      int
	unread     int
	byCategory map[notifier.Category]int
	byPriority map[notifier.Priority]int
	meta       map[uuid.UUID]notifMeta
}

func newUserCounters() *userCounters {
	return &userCounters{
		byCategory: make(map[notifier.Category]int),
		byPriority: make(map[notifier.Priority]int),
		meta:       make(map[uuid.UUID]notifMeta),
	}
}

// Aggregator consumes store events and answers Stats queries.
type Aggregator struct {
	store *notifier.Store

	attachMu sync.Mutex
	events   <-chan notifier.Event

	mu      sync.RWMutex
	perUser map[uuid.UUID]*userCounters

	log *slog.Logger
	now func() time.Time
}

// AggregatorOption configures the Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an aggregator over the store; call Run to start
// consuming events.
func NewAggregator(store *notifier.Store, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		store:   store,
		perUser: make(map[uuid.UUID]*userCounters),
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attach subscribes to the store's event stream without consuming it.
// Events published after Attach returns are buffered until Run drains
// them, so attaching before the store accepts writes guarantees the
// aggregator sees the head of the stream. Idempotent.
func (a *Aggregator) Attach(ctx context.Context) error {
	a.attachMu.Lock()
	defer a.attachMu.Unlock()
	if a.events != nil {
		return nil
	}
	events, err := a.store.SubscribeAll(ctx)
	if err != nil {
		return err
	}
	a.events = events
	return nil
}

// Run consumes store events until ctx ends or the store closes.
// Attaches itself when Attach was not called first.
func (a *Aggregator) Run(ctx context.Context) error {
	if err := a.Attach(ctx); err != nil {
		return err
	}
	a.attachMu.Lock()
	events := a.events
	a.attachMu.Unlock()

	for event := range events {
		a.apply(event)
	}
	return ctx.Err()
}

func (a *Aggregator) counters(userID uuid.UUID) *userCounters {
	c, ok := a.perUser[userID]
	if !ok {
		c = newUserCounters()
		a.perUser[userID] = c
	}
	return c
}

func (a *Aggregator) apply(event notifier.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := event.Notification
	c := a.counters(n.UserID)

	switch event.Type {
	case notifier.EventCreated:
		if _, dup := c.meta[n.ID]; dup {
			return
		}
		c.total++
		c.byCategory[n.Category]++
		c.byPriority[n.Priority]++
		if !n.Read {
			c.unread++
		}
		c.meta[n.ID] = notifMeta{
			createdAt: n.CreatedAt,
			expiresAt: n.ExpiresAt,
			read:      n.Read,
			category:  n.Category,
			priority:  n.Priority,
		}

	case notifier.EventRead:
		m, ok := c.meta[n.ID]
		if !ok || m.read {
			return
		}
		m.read = true
		c.meta[n.ID] = m
		c.unread--

	case notifier.EventDeleted:
		m, ok := c.meta[n.ID]
		if !ok {
			return
		}
		c.total--
		c.byCategory[m.category]--
		c.byPriority[m.priority]--
		if !m.read {
			c.unread--
		}
		delete(c.meta, n.ID)
		if c.total == 0 {
			delete(a.perUser, n.UserID)
		}
	}
}

// Stats answers the aggregate query for one user. Unread excludes
// expired notifications; today and this week are evaluated against the
// clock at query time.
func (a *Aggregator) Stats(_ context.Context, userID uuid.UUID) (Summary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	summary := Summary{
		ByCategory: make(map[notifier.Category]int),
		ByPriority: make(map[notifier.Priority]int),
	}
	c, ok := a.perUser[userID]
	if !ok {
		return summary, nil
	}

	summary.Total = c.total
	summary.Unread = c.unread
	for k, v := range c.byCategory {
		if v > 0 {
			summary.ByCategory[k] = v
		}
	}
	for k, v := range c.byPriority {
		if v > 0 {
			summary.ByPriority[k] = v
		}
	}

	now := a.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := startOfWeek(now)
	for _, m := range c.meta {
		if !m.read && m.expiresAt != nil && m.expiresAt.Before(now) {
			summary.Unread--
		}
		if !m.createdAt.Before(dayStart) {
			summary.Today++
		}
		if !m.createdAt.Before(weekStart) {
			summary.ThisWeek++
		}
	}
	return summary, nil
}

// startOfWeek returns Monday 00:00 UTC of now's week.
func startOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Recompute rebuilds one user's counters from the ledger. The fallback
// path for restart or detected drift.
func (a *Aggregator) Recompute(ctx context.Context, userID uuid.UUID) error {
	notifications, err := a.store.List(ctx, userID, notifier.Filter{IncludeExpired: true})
	if err != nil {
		return err
	}

	c := newUserCounters()
	for _, n := range notifications {
		c.total++
		c.byCategory[n.Category]++
		c.byPriority[n.Priority]++
		if !n.Read {
			c.unread++
		}
		c.meta[n.ID] = notifMeta{
			createdAt: n.CreatedAt,
			expiresAt: n.ExpiresAt,
			read:      n.Read,
			category:  n.Category,
			priority:  n.Priority,
		}
	}

	a.mu.Lock()
	if c.total == 0 {
		delete(a.perUser, userID)
	} else {
		a.perUser[userID] = c
	}
	a.mu.Unlock()

	a.log.InfoContext(ctx, "stats recomputed",
		logger.Component("stats"),
		logger.UserID(userID),
		slog.Int("total", c.total),
	)
	return nil
}
