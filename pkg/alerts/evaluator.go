package alerts

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/HyperCogAI/alertkit/pkg/logger"
	"github.com/HyperCogAI/alertkit/pkg/market"
)

// Trigger describes one alert firing: the alert's state at the moment of
// transition and the tick that caused it.
type Trigger struct {
	Alert Alert
	Tick  market.Tick
}

// TriggerFunc receives each trigger synchronously from OnTick, before
// the next tick for the instrument is evaluated. Implementations own
// their error handling; a failing sink must not panic.
type TriggerFunc func(ctx context.Context, trigger Trigger)

// Evaluator applies ticks to the registered alerts of one instrument at
// a time. Each alert is evaluated under its own lock, which is what
// makes the check-and-transition atomic: two ticks racing on the same
// alert serialize, the first one to match fires it, the second sees
// Triggered and skips.
type Evaluator struct {
	registry  *Registry
	onTrigger TriggerFunc
	log       *slog.Logger
}

// EvaluatorOption configures the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the logger.
func WithEvaluatorLogger(log *slog.Logger) EvaluatorOption {
	return func(ev *Evaluator) {
		if log != nil {
			ev.log = log
		}
	}
}

// NewEvaluator creates an evaluator that reports triggers to onTrigger.
func NewEvaluator(registry *Registry, onTrigger TriggerFunc, opts ...EvaluatorOption) *Evaluator {
	ev := &Evaluator{
		registry:  registry,
		onTrigger: onTrigger,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// OnTick evaluates every active alert on the tick's instrument. Ticks
// for instruments with no alerts return without allocating. Triggered
// alerts are reported to the sink before OnTick returns.
func (ev *Evaluator) OnTick(ctx context.Context, tick market.Tick) {
	entries := ev.registry.entries(tick.InstrumentID)
	if len(entries) == 0 {
		return
	}

	var fired []Trigger
	for _, e := range entries {
		if trigger, ok := ev.evaluate(e, tick); ok {
			fired = append(fired, trigger)
		}
	}

	for _, trigger := range fired {
		ev.log.InfoContext(ctx, "alert triggered",
			logger.Component("alerts"),
			logger.AlertID(trigger.Alert.ID),
			logger.UserID(trigger.Alert.UserID),
			logger.InstrumentID(trigger.Alert.InstrumentID),
			slog.String("condition", string(trigger.Alert.Condition)),
		)
		ev.onTrigger(ctx, trigger)
	}
}

// evaluate runs the check-and-transition for a single alert under its
// entry lock and returns the trigger if the alert fired.
func (ev *Evaluator) evaluate(e *entry, tick market.Tick) (Trigger, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := &e.alert
	if a.State != StateActive {
		return Trigger{}, false
	}

	a.CurrentValue = tick.Price

	// A percent-change alert created before any tick was observed gets
	// its baseline from the first tick, then holds it for life.
	if a.Condition == ConditionPercentChange && a.Baseline.LessThanOrEqual(decimal.Zero) {
		a.Baseline = tick.Price
		return Trigger{}, false
	}

	if !a.conditionMet(tick) {
		return Trigger{}, false
	}

	ts := tick.Timestamp
	a.State = StateTriggered
	a.UpdatedAt = ts
	a.TriggeredAt = &ts

	return Trigger{Alert: *a, Tick: tick}, true
}
