package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HyperCogAI/alertkit/pkg/market"
)

// ConditionKind selects how a tick is compared against the target.
type ConditionKind string

const (
	ConditionPriceAbove    ConditionKind = "price_above"
	ConditionPriceBelow    ConditionKind = "price_below"
	ConditionPercentChange ConditionKind = "percent_change"
	ConditionVolumeSpike   ConditionKind = "volume_spike"
)

// Valid reports whether the kind is one of the known conditions.
func (k ConditionKind) Valid() bool {
	switch k {
	case ConditionPriceAbove, ConditionPriceBelow, ConditionPercentChange, ConditionVolumeSpike:
		return true
	}
	return false
}

// priceBased reports whether Target is a price threshold (and therefore
// must be positive at creation).
func (k ConditionKind) priceBased() bool {
	return k == ConditionPriceAbove || k == ConditionPriceBelow
}

// State is the alert lifecycle state. Triggered is terminal.
type State string

const (
	StateActive    State = "active"
	StateInactive  State = "inactive"
	StateTriggered State = "triggered"
)

// transitions is the allowed lifecycle graph. Nothing leaves Triggered.
var transitions = map[State]map[State]struct{}{
	StateActive:   {StateInactive: {}, StateTriggered: {}},
	StateInactive: {StateActive: {}},
}

func canTransition(from, to State) bool {
	_, ok := transitions[from][to]
	return ok
}

// Alert is a user-owned watch condition on one instrument.
//
// Target is the threshold the condition compares against: a price for
// PriceAbove/PriceBelow, an absolute percent for PercentChange, a volume
// for VolumeSpike. Baseline is captured once for PercentChange and
// stays fixed for the alert's lifetime.
type Alert struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	InstrumentID string          `json:"instrument_id"`
	Condition    ConditionKind   `json:"condition_kind"`
	Target       decimal.Decimal `json:"target_value"`
	Baseline     decimal.Decimal `json:"baseline,omitempty"`
	State        State           `json:"state"`
	CurrentValue decimal.Decimal `json:"current_value"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	TriggeredAt  *time.Time      `json:"triggered_at,omitempty"`
}

// Triggered reports whether the alert has fired.
func (a *Alert) Triggered() bool {
	return a.State == StateTriggered
}

// transitionTo validates and applies a lifecycle transition.
func (a *Alert) transitionTo(to State, now time.Time) error {
	if a.State == StateTriggered {
		return ErrAlreadyTriggered
	}
	if !canTransition(a.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, a.State, to)
	}
	a.State = to
	a.UpdatedAt = now
	return nil
}

// conditionMet evaluates the alert's condition against one tick.
// A PercentChange alert with no baseline yet never matches; the
// evaluator captures the baseline from that tick instead.
func (a *Alert) conditionMet(tick market.Tick) bool {
	switch a.Condition {
	case ConditionPriceAbove:
		return tick.Price.GreaterThanOrEqual(a.Target)
	case ConditionPriceBelow:
		return tick.Price.LessThanOrEqual(a.Target)
	case ConditionPercentChange:
		if a.Baseline.LessThanOrEqual(decimal.Zero) {
			return false
		}
		change := tick.Price.Sub(a.Baseline).Abs().
			Div(a.Baseline).
			Mul(decimal.NewFromInt(100))
		return change.GreaterThanOrEqual(a.Target)
	case ConditionVolumeSpike:
		return tick.Volume.GreaterThanOrEqual(a.Target)
	}
	return false
}
