package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HyperCogAI/alertkit/pkg/logger"
)

// ChangeOp tags a lifecycle change for the persistence hook.
type ChangeOp string

const (
	ChangeUpserted ChangeOp = "upserted"
	ChangeDeleted  ChangeOp = "deleted"
)

// Change is one observed alert lifecycle change.
type Change struct {
	Op    ChangeOp
	Alert Alert
}

// ChangeFunc observes alert lifecycle changes (create, toggle, delete)
// for write-behind persistence. Called synchronously after the
// in-memory state is updated; in-memory state stays authoritative.
type ChangeFunc func(ctx context.Context, change Change)

// CreateParams describes a new alert.
//
// Baseline applies to PercentChange only: pass the current price when
// known; leave zero and the evaluator captures it from the first tick.
type CreateParams struct {
	UserID       uuid.UUID
	InstrumentID string
	Condition    ConditionKind
	Target       decimal.Decimal
	Baseline     decimal.Decimal
}

// Validate checks the parameters without touching any state.
func (p CreateParams) Validate() error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if p.InstrumentID == "" {
		return fmt.Errorf("%w: instrument id is required", ErrValidation)
	}
	if !p.Condition.Valid() {
		return fmt.Errorf("%w: unknown condition kind %q", ErrValidation, p.Condition)
	}
	if p.Condition.priceBased() && p.Target.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: target price must be positive", ErrValidation)
	}
	if p.Target.IsNegative() {
		return fmt.Errorf("%w: target must not be negative", ErrValidation)
	}
	if p.Baseline.IsNegative() {
		return fmt.Errorf("%w: baseline must not be negative", ErrValidation)
	}
	return nil
}

// Service exposes alert CRUD over the registry. Evaluation stays in
// Evaluator; the service only performs user-initiated changes.
type Service struct {
	registry *Registry
	onChange ChangeFunc
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithChangeHook registers the persistence hook.
func WithChangeHook(fn ChangeFunc) ServiceOption {
	return func(s *Service) { s.onChange = fn }
}

// WithServiceLogger sets the logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates an alert service over the given registry.
func NewService(registry *Registry, opts ...ServiceOption) *Service {
	s := &Service{
		registry: registry,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) notifyChange(ctx context.Context, op ChangeOp, alert Alert) {
	if s.onChange != nil {
		s.onChange(ctx, Change{Op: op, Alert: alert})
	}
}

// Create validates and registers a new active alert.
func (s *Service) Create(ctx context.Context, params CreateParams) (Alert, error) {
	if err := params.Validate(); err != nil {
		return Alert{}, err
	}

	now := s.now().UTC()
	alert := Alert{
		ID:           uuid.New(),
		UserID:       params.UserID,
		InstrumentID: params.InstrumentID,
		Condition:    params.Condition,
		Target:       params.Target,
		Baseline:     params.Baseline,
		State:        StateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.registry.add(alert)

	s.log.InfoContext(ctx, "alert created",
		logger.Component("alerts"),
		logger.AlertID(alert.ID),
		logger.UserID(alert.UserID),
		logger.InstrumentID(alert.InstrumentID),
		slog.String("condition", string(alert.Condition)),
	)
	s.notifyChange(ctx, ChangeUpserted, alert)
	return alert, nil
}

// Toggle pauses or resumes an alert. Toggling a triggered alert returns
// ErrAlreadyTriggered regardless of direction.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID, active bool) (Alert, error) {
	e, ok := s.registry.lookup(id)
	if !ok {
		return Alert{}, ErrNotFound
	}

	target := StateInactive
	if active {
		target = StateActive
	}

	e.mu.Lock()
	if e.alert.State == target {
		// Toggling to the current state is a no-op, not an error.
		alert := e.alert
		e.mu.Unlock()
		return alert, nil
	}
	if err := e.alert.transitionTo(target, s.now().UTC()); err != nil {
		e.mu.Unlock()
		return Alert{}, err
	}
	alert := e.alert
	e.mu.Unlock()

	s.log.InfoContext(ctx, "alert toggled",
		logger.Component("alerts"),
		logger.AlertID(alert.ID),
		slog.Bool("active", active),
	)
	s.notifyChange(ctx, ChangeUpserted, alert)
	return alert, nil
}

// Delete removes an alert from the registry. Deleting a triggered alert
// is allowed; that is how users reset a fired condition.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	alert, ok := s.registry.remove(id)
	if !ok {
		return ErrNotFound
	}

	s.log.InfoContext(ctx, "alert deleted",
		logger.Component("alerts"),
		logger.AlertID(alert.ID),
		logger.UserID(alert.UserID),
	)
	s.notifyChange(ctx, ChangeDeleted, alert)
	return nil
}

// Get returns a snapshot of one alert.
func (s *Service) Get(_ context.Context, id uuid.UUID) (Alert, error) {
	e, ok := s.registry.lookup(id)
	if !ok {
		return Alert{}, ErrNotFound
	}
	return e.snapshot(), nil
}

// List returns snapshots of the user's alerts.
func (s *Service) List(_ context.Context, userID uuid.UUID) []Alert {
	return s.registry.ListByUser(userID)
}
