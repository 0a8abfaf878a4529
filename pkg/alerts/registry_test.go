package alerts_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
)

func TestRegistryInstruments(t *testing.T) {
	t.Parallel()

	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)

	for _, instrument := range []string{"BTC-USD", "BTC-USD", "ETH-USD"} {
		_, err := svc.Create(context.Background(), alerts.CreateParams{
			UserID:       uuid.New(),
			InstrumentID: instrument,
			Condition:    alerts.ConditionPriceAbove,
			Target:       decimal.NewFromInt(1),
		})
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{"BTC-USD", "ETH-USD"}, registry.Instruments())
	assert.Equal(t, 3, registry.Len())
}

func TestRegistryConcurrentMutation(t *testing.T) {
	t.Parallel()

	registry := alerts.NewRegistry()
	svc := alerts.NewService(registry)

	// Create and delete across many instruments concurrently; the
	// registry must end exactly balanced.
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instrument := fmt.Sprintf("INST-%d", i)
			for range 50 {
				alert, err := svc.Create(context.Background(), alerts.CreateParams{
					UserID:       uuid.New(),
					InstrumentID: instrument,
					Condition:    alerts.ConditionVolumeSpike,
					Target:       decimal.NewFromInt(1000),
				})
				if err != nil {
					t.Error(err)
					return
				}
				if err := svc.Delete(context.Background(), alert.ID); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.Instruments())
}
