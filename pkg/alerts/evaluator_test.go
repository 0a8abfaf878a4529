package alerts_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/market"
)

func tickAt(instrument string, price int64) market.Tick {
	return market.Tick{
		InstrumentID: instrument,
		Price:        decimal.NewFromInt(price),
		Volume:       decimal.NewFromInt(100),
		Timestamp:    time.Now().UTC(),
	}
}

type triggerRecorder struct {
	mu       sync.Mutex
	triggers []alerts.Trigger
}

func (r *triggerRecorder) record(_ context.Context, trigger alerts.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
}

func (r *triggerRecorder) all() []alerts.Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]alerts.Trigger(nil), r.triggers...)
}

func TestEvaluatorConditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     alerts.ConditionKind
		target   int64
		baseline int64
		tick     market.Tick
		fires    bool
	}{
		{
			name:   "price above fires at threshold",
			kind:   alerts.ConditionPriceAbove,
			target: 50000,
			tick:   tickAt("BTC-USD", 50000),
			fires:  true,
		},
		{
			name:   "price above holds below threshold",
			kind:   alerts.ConditionPriceAbove,
			target: 50000,
			tick:   tickAt("BTC-USD", 49999),
			fires:  false,
		},
		{
			name:   "price below fires at threshold",
			kind:   alerts.ConditionPriceBelow,
			target: 40000,
			tick:   tickAt("BTC-USD", 40000),
			fires:  true,
		},
		{
			name:   "price below holds above threshold",
			kind:   alerts.ConditionPriceBelow,
			target: 40000,
			tick:   tickAt("BTC-USD", 40001),
			fires:  false,
		},
		{
			name:     "percent change fires on drop",
			kind:     alerts.ConditionPercentChange,
			target:   5,
			baseline: 50000,
			tick:     tickAt("BTC-USD", 47500),
			fires:    true,
		},
		{
			name:     "percent change fires on rise",
			kind:     alerts.ConditionPercentChange,
			target:   5,
			baseline: 50000,
			tick:     tickAt("BTC-USD", 52500),
			fires:    true,
		},
		{
			name:     "percent change holds inside band",
			kind:     alerts.ConditionPercentChange,
			target:   5,
			baseline: 50000,
			tick:     tickAt("BTC-USD", 51000),
			fires:    false,
		},
		{
			name:   "volume spike fires at threshold",
			kind:   alerts.ConditionVolumeSpike,
			target: 100,
			tick:   tickAt("BTC-USD", 50000),
			fires:  true,
		},
		{
			name:   "volume spike holds below threshold",
			kind:   alerts.ConditionVolumeSpike,
			target: 101,
			tick:   tickAt("BTC-USD", 50000),
			fires:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			registry := alerts.NewRegistry()
			svc := alerts.NewService(registry)
			rec := &triggerRecorder{}
			ev := alerts.NewEvaluator(registry, rec.record)

			_, err := svc.Create(context.Background(), alerts.CreateParams{
				UserID:       uuid.New(),
				InstrumentID: "BTC-USD",
				Condition:    tt.kind,
				Target:       decimal.NewFromInt(tt.target),
				Baseline:     decimal.NewFromInt(tt.baseline),
			})
			require.NoError(t, err)

			ev.OnTick(context.Background(), tt.tick)

			if tt.fires {
				require.Len(t, rec.all(), 1)
				got := rec.all()[0].Alert
				assert.Equal(t, alerts.StateTriggered, got.State)
				require.NotNil(t, got.TriggeredAt)
			} else {
				assert.Empty(t, rec.all())
			}
		})
	}
}

func TestEvaluatorScenario(t *testing.T) {
	t.Parallel()

	// Alert at 50000 created while price is 48000: first crossing tick
	// fires exactly once, later ticks do nothing, and the fired alert
	// can no longer be toggled.
	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)
	rec := &triggerRecorder{}
	ev := alerts.NewEvaluator(registry, rec.record)

	alert, err := svc.Create(context.Background(), alerts.CreateParams{
		UserID:       uuid.New(),
		InstrumentID: "BTC",
		Condition:    alerts.ConditionPriceAbove,
		Target:       decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	ev.OnTick(context.Background(), tickAt("BTC", 48000))
	assert.Empty(t, rec.all())

	ev.OnTick(context.Background(), tickAt("BTC", 50500))
	require.Len(t, rec.all(), 1)

	ev.OnTick(context.Background(), tickAt("BTC", 51000))
	require.Len(t, rec.all(), 1)

	_, err = svc.Toggle(context.Background(), alert.ID, false)
	assert.ErrorIs(t, err, alerts.ErrAlreadyTriggered)
	assert.ErrorIs(t, err, alerts.ErrInvalidState)

	got, err := svc.Get(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alerts.StateTriggered, got.State)
	assert.True(t, got.CurrentValue.Equal(decimal.NewFromInt(50500)))
}

func TestEvaluatorAtMostOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)

	var fired atomic.Int64
	ev := alerts.NewEvaluator(registry, func(context.Context, alerts.Trigger) {
		fired.Add(1)
	})

	const alertCount = 20
	for range alertCount {
		_, err := svc.Create(context.Background(), alerts.CreateParams{
			UserID:       uuid.New(),
			InstrumentID: "BTC-USD",
			Condition:    alerts.ConditionPriceAbove,
			Target:       decimal.NewFromInt(50000),
		})
		require.NoError(t, err)
	}

	// Hammer with qualifying ticks from many goroutines; every alert
	// must fire exactly once.
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				ev.OnTick(context.Background(), tickAt("BTC-USD", 51000))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(alertCount), fired.Load())
}

func TestEvaluatorSkipsInactiveAlerts(t *testing.T) {
	t.Parallel()

	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)
	rec := &triggerRecorder{}
	ev := alerts.NewEvaluator(registry, rec.record)

	alert, err := svc.Create(context.Background(), alerts.CreateParams{
		UserID:       uuid.New(),
		InstrumentID: "BTC-USD",
		Condition:    alerts.ConditionPriceAbove,
		Target:       decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	_, err = svc.Toggle(context.Background(), alert.ID, false)
	require.NoError(t, err)

	ev.OnTick(context.Background(), tickAt("BTC-USD", 60000))
	assert.Empty(t, rec.all())

	// Resuming re-arms evaluation.
	_, err = svc.Toggle(context.Background(), alert.ID, true)
	require.NoError(t, err)

	ev.OnTick(context.Background(), tickAt("BTC-USD", 60000))
	assert.Len(t, rec.all(), 1)
}

func TestEvaluatorPercentChangeBaselineCapture(t *testing.T) {
	t.Parallel()

	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)
	rec := &triggerRecorder{}
	ev := alerts.NewEvaluator(registry, rec.record)

	// No baseline at creation: the first tick sets it and never fires.
	alert, err := svc.Create(context.Background(), alerts.CreateParams{
		UserID:       uuid.New(),
		InstrumentID: "ETH-USD",
		Condition:    alerts.ConditionPercentChange,
		Target:       decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	ev.OnTick(context.Background(), tickAt("ETH-USD", 3000))
	assert.Empty(t, rec.all())

	got, err := svc.Get(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.True(t, got.Baseline.Equal(decimal.NewFromInt(3000)))

	// 9% move holds, 10% move fires against the captured baseline.
	ev.OnTick(context.Background(), tickAt("ETH-USD", 3270))
	assert.Empty(t, rec.all())

	ev.OnTick(context.Background(), tickAt("ETH-USD", 3300))
	assert.Len(t, rec.all(), 1)
}

func TestEvaluatorIgnoresOtherInstruments(t *testing.T) {
	t.Parallel()

	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)
	rec := &triggerRecorder{}
	ev := alerts.NewEvaluator(registry, rec.record)

	_, err := svc.Create(context.Background(), alerts.CreateParams{
		UserID:       uuid.New(),
		InstrumentID: "BTC-USD",
		Condition:    alerts.ConditionPriceAbove,
		Target:       decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	ev.OnTick(context.Background(), tickAt("ETH-USD", 99999))
	assert.Empty(t, rec.all())
}
