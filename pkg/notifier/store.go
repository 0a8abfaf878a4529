package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HyperCogAI/alertkit/pkg/broadcast"
	"github.com/HyperCogAI/alertkit/pkg/logger"
)

// UrgentFunc is the synchronous fast path for high and critical
// creations, called before Create returns so toast-style interrupts are
// not subject to bus latency. Implementations must be quick and must
// not panic.
type UrgentFunc func(ctx context.Context, n Notification)

// ChangeOp tags a mutation for the persistence hook.
type ChangeOp string

const (
	ChangeUpserted ChangeOp = "upserted"
	ChangeDeleted  ChangeOp = "deleted"
)

// Change is one observed store mutation.
type Change struct {
	Op           ChangeOp
	Notification Notification
}

// ChangeFunc observes mutations for write-behind persistence. Called
// synchronously after in-memory state is updated; in-memory state stays
// authoritative.
type ChangeFunc func(ctx context.Context, change Change)

// CreateParams describes a new notification.
type CreateParams struct {
	UserID    uuid.UUID
	Type      string
	Category  Category
	Priority  Priority
	Title     string
	Message   string
	Payload   Payload
	ExpiresAt *time.Time
}

// Validate checks the parameters without touching any state.
func (p CreateParams) Validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if p.Type == "" {
		return fmt.Errorf("%w: type is required", ErrValidation)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, p.Category)
	}
	if !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, p.Priority)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return p.Payload.Validate()
}

// Filter narrows List results. The zero value lists every non-expired
// notification for the user.
type Filter struct {
	Category       *Category
	Priority       *Priority
	UnreadOnly     bool
	Search         string
	IncludeExpired bool
}

func (f Filter) matches(n Notification, now time.Time) bool {
	if !f.IncludeExpired && n.Expired(now) {
		return false
	}
	if f.Category != nil && n.Category != *f.Category {
		return false
	}
	if f.Priority != nil && n.Priority != *f.Priority {
		return false
	}
	if f.UnreadOnly && n.Read {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(n.Title), q) &&
			!strings.Contains(strings.ToLower(n.Message), q) {
			return false
		}
	}
	return true
}

// Store is the single-writer notification ledger and event bus.
type Store struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*Notification
	byUser map[uuid.UUID][]uuid.UUID // ids in creation order
	closed bool

	outbox   *outbox
	bus      *broadcast.MemoryBroadcaster[Event]
	urgent   UrgentFunc
	onChange ChangeFunc
	log      *slog.Logger
	now      func() time.Time
	drainWg  sync.WaitGroup
	subWg    sync.WaitGroup
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithUrgentFunc registers the synchronous urgent callback.
func WithUrgentFunc(fn UrgentFunc) StoreOption {
	return func(s *Store) { s.urgent = fn }
}

// WithStoreChangeHook registers the persistence hook.
func WithStoreChangeHook(fn ChangeFunc) StoreOption {
	return func(s *Store) { s.onChange = fn }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStoreClock overrides the time source, for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store and starts its outbox drain goroutine.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		byID:   make(map[uuid.UUID]*Notification),
		byUser: make(map[uuid.UUID][]uuid.UUID),
		outbox: newOutbox(),
		bus:    broadcast.NewMemoryBroadcaster[Event](64, broadcast.DefaultSendTimeout),
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.drainWg.Add(1)
	go s.drainOutbox()
	return s
}

// drainOutbox forwards queued events to the bus in order. Runs until
// the outbox is closed and empty.
func (s *Store) drainOutbox() {
	defer s.drainWg.Done()
	for {
		event, ok := s.outbox.next()
		if !ok {
			return
		}
		if err := s.bus.Broadcast(context.Background(), broadcast.Message[Event]{Data: event}); err != nil {
			return
		}
	}
}

func (s *Store) publish(event Event) {
	s.outbox.push(event)
}

func (s *Store) notifyChange(ctx context.Context, op ChangeOp, n Notification) {
	if s.onChange != nil {
		s.onChange(ctx, Change{Op: op, Notification: n})
	}
}

// Create validates, stores, and announces a new notification. Delivery
// and persistence failures never roll the creation back.
func (s *Store) Create(ctx context.Context, params CreateParams) (Notification, error) {
	if err := params.Validate(); err != nil {
		return Notification{}, err
	}

	n := Notification{
		ID:        uuid.New(),
		UserID:    params.UserID,
		Type:      params.Type,
		Category:  params.Category,
		Priority:  params.Priority,
		Title:     params.Title,
		Message:   params.Message,
		Payload:   params.Payload,
		CreatedAt: s.now().UTC(),
		ExpiresAt: params.ExpiresAt,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Notification{}, ErrStoreClosed
	}
	s.byID[n.ID] = &n
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n.ID)
	s.publish(Event{Type: EventCreated, Notification: n})
	s.mu.Unlock()

	s.log.InfoContext(ctx, "notification created",
		logger.Component("notifier"),
		logger.NotificationID(n.ID),
		logger.UserID(n.UserID),
		slog.String("category", string(n.Category)),
		slog.String("priority", string(n.Priority)),
	)

	if n.Priority.Urgent() && s.urgent != nil {
		s.urgent(ctx, n)
	}
	s.notifyChange(ctx, ChangeUpserted, n)
	return n, nil
}

// Get returns a snapshot of one notification.
func (s *Store) Get(_ context.Context, id uuid.UUID) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Notification{}, ErrStoreClosed
	}
	n, ok := s.byID[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return *n, nil
}

// MarkAsRead transitions one notification to read. Idempotent: marking
// an already-read notification is a no-op, not an error, and publishes
// no event.
func (s *Store) MarkAsRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Notification{}, ErrStoreClosed
	}
	n, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Notification{}, ErrNotFound
	}
	if n.Read {
		snapshot := *n
		s.mu.Unlock()
		return snapshot, nil
	}

	now := s.now().UTC()
	if now.Before(n.CreatedAt) {
		now = n.CreatedAt
	}
	n.Read = true
	n.ReadAt = &now
	snapshot := *n
	s.publish(Event{Type: EventRead, Notification: snapshot})
	s.mu.Unlock()

	s.notifyChange(ctx, ChangeUpserted, snapshot)
	return snapshot, nil
}

// MarkAllAsRead transitions every unread notification of one user and
// returns how many changed.
func (s *Store) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrStoreClosed
	}

	now := s.now().UTC()
	var changed []Notification
	for _, id := range s.byUser[userID] {
		n := s.byID[id]
		if n == nil || n.Read {
			continue
		}
		readAt := now
		if readAt.Before(n.CreatedAt) {
			readAt = n.CreatedAt
		}
		n.Read = true
		n.ReadAt = &readAt
		snapshot := *n
		changed = append(changed, snapshot)
		s.publish(Event{Type: EventRead, Notification: snapshot})
	}
	s.mu.Unlock()

	for _, n := range changed {
		s.notifyChange(ctx, ChangeUpserted, n)
	}
	return len(changed), nil
}

// Delete hard-removes a notification from the ledger.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	n, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	snapshot := *n
	delete(s.byID, id)

	ids := s.byUser[snapshot.UserID]
	for i, nid := range ids {
		if nid == id {
			s.byUser[snapshot.UserID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byUser[snapshot.UserID]) == 0 {
		delete(s.byUser, snapshot.UserID)
	}
	s.publish(Event{Type: EventDeleted, Notification: snapshot})
	s.mu.Unlock()

	s.notifyChange(ctx, ChangeDeleted, snapshot)
	return nil
}

// RecordDelivery merges attempted channel ids into the notification's
// delivery record. Called by the router after dispatch; failures there
// still count as attempts.
func (s *Store) RecordDelivery(ctx context.Context, id uuid.UUID, channelIDs []string) error {
	if len(channelIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	n, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	seen := make(map[string]struct{}, len(n.Channels))
	for _, c := range n.Channels {
		seen[c] = struct{}{}
	}
	for _, c := range channelIDs {
		if _, ok := seen[c]; !ok {
			n.Channels = append(n.Channels, c)
			seen[c] = struct{}{}
		}
	}
	snapshot := *n
	s.mu.Unlock()

	s.notifyChange(ctx, ChangeUpserted, snapshot)
	return nil
}

// List returns the user's notifications matching the filter, newest
// first. Expired entries are excluded unless the filter includes them.
func (s *Store) List(_ context.Context, userID uuid.UUID, filter Filter) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	now := s.now().UTC()
	ids := s.byUser[userID]
	out := make([]Notification, 0, len(ids))
	for _, id := range ids {
		n := s.byID[id]
		if n == nil || !filter.matches(*n, now) {
			continue
		}
		out = append(out, *n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountUnread returns the user's unread, non-expired notification count.
func (s *Store) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	now := s.now().UTC()
	count := 0
	for _, id := range s.byUser[userID] {
		if n := s.byID[id]; n != nil && !n.Read && !n.Expired(now) {
			count++
		}
	}
	return count, nil
}

// Load seeds the store from persisted state without publishing events.
// Intended for startup reconciliation only.
func (s *Store) Load(notifications []Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	sorted := append([]Notification(nil), notifications...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	for _, n := range sorted {
		if _, exists := s.byID[n.ID]; exists {
			continue
		}
		stored := n
		s.byID[n.ID] = &stored
		s.byUser[n.UserID] = append(s.byUser[n.UserID], n.ID)
	}
}

// Subscribe streams one user's events in publish order. The channel
// closes when ctx is cancelled or the store closes; subscription state
// does not outlive the session.
func (s *Store) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Event, error) {
	return s.subscribe(ctx, func(e Event) bool { return e.Notification.UserID == userID })
}

// SubscribeAll streams every event, for the stats aggregator.
func (s *Store) SubscribeAll(ctx context.Context) (<-chan Event, error) {
	return s.subscribe(ctx, func(Event) bool { return true })
}

func (s *Store) subscribe(ctx context.Context, keep func(Event) bool) (<-chan Event, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s.mu.Unlock()

	sub, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, ErrStoreClosed
	}

	out := make(chan Event, 64)
	s.subWg.Add(1)
	go func() {
		defer s.subWg.Done()
		defer close(out)
		for msg := range sub.Receive(ctx) {
			if !keep(msg.Data) {
				continue
			}
			select {
			case out <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close stops the outbox and event bus. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Let the drain goroutine flush queued events before the bus goes
	// away, then close the bus so subscriber forwards can exit.
	s.outbox.close()
	s.drainWg.Wait()
	_ = s.bus.Close()
	s.subWg.Wait()
	return nil
}
