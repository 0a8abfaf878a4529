package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/channels"
	"github.com/HyperCogAI/alertkit/pkg/engine"
	"github.com/HyperCogAI/alertkit/pkg/market"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
)

type recordingAdapter struct {
	mu        sync.Mutex
	delivered []notifier.Notification
}

func (a *recordingAdapter) Deliver(_ context.Context, n notifier.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delivered = append(a.delivered, n)
	return nil
}

func (a *recordingAdapter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.delivered)
}

func startEngine(t *testing.T) (*engine.Engine, *market.MemoryFeed, *recordingAdapter) {
	t.Helper()

	feed := market.NewMemoryFeed(16)
	t.Cleanup(func() { _ = feed.Close() })

	adapter := &recordingAdapter{}
	registry := channels.NewRegistry()
	registry.Register(context.Background(), channels.Channel{
		ID:      "in_app",
		Kind:    channels.KindInApp,
		Enabled: true,
	}, adapter)

	eng := engine.New(engine.Deps{
		Feed:            feed,
		ChannelRegistry: registry,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("engine did not shut down")
		}
	})

	return eng, feed, adapter
}

func publishTick(t *testing.T, feed *market.MemoryFeed, instrument string, price int64) {
	t.Helper()
	err := feed.Publish(context.Background(), market.Tick{
		InstrumentID: instrument,
		Price:        decimal.NewFromInt(price),
		Timestamp:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestEngineTriggerFlow(t *testing.T) {
	t.Parallel()

	eng, feed, adapter := startEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	alert, err := eng.CreateAlert(ctx, userID, "BTC-USD", alerts.ConditionPriceAbove, decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.Equal(t, alerts.StateActive, alert.State)

	// Below-target ticks never fire. The subscription attaches
	// asynchronously, so keep publishing until the evaluator has seen a
	// tick (CurrentValue updates on every evaluation of an active alert).
	require.Eventually(t, func() bool {
		publishTick(t, feed, "BTC-USD", 48000)
		got, err := eng.GetAlert(ctx, alert.ID)
		return err == nil && got.CurrentValue.Equal(decimal.NewFromInt(48000))
	}, 5*time.Second, 10*time.Millisecond)

	got, err := eng.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	require.Equal(t, alerts.StateActive, got.State)

	list, err := eng.ListNotifications(ctx, userID, notifier.Filter{})
	require.NoError(t, err)
	require.Empty(t, list)

	// Crossing the target fires exactly once.
	publishTick(t, feed, "BTC-USD", 50500)
	require.Eventually(t, func() bool {
		got, err := eng.GetAlert(ctx, alert.ID)
		return err == nil && got.State == alerts.StateTriggered
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		list, err := eng.ListNotifications(ctx, userID, notifier.Filter{})
		return err == nil && len(list) == 1
	}, 5*time.Second, 10*time.Millisecond)

	list, err = eng.ListNotifications(ctx, userID, notifier.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	n := list[0]
	assert.Equal(t, notifier.CategoryTrading, n.Category)
	assert.Equal(t, notifier.PriorityHigh, n.Priority)
	assert.Equal(t, "price_alert", n.Type)
	require.NotNil(t, n.Payload.AlertTriggered)
	assert.Equal(t, alert.ID.String(), n.Payload.AlertTriggered.AlertID)
	assert.True(t, n.Payload.AlertTriggered.ObservedPrice.Equal(decimal.NewFromInt(50500)))

	// Further qualifying ticks are ignored: the alert is terminal.
	publishTick(t, feed, "BTC-USD", 51000)
	publishTick(t, feed, "BTC-USD", 52000)
	time.Sleep(200 * time.Millisecond)

	list, err = eng.ListNotifications(ctx, userID, notifier.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// A triggered alert cannot be re-armed, only deleted.
	_, err = eng.ToggleAlert(ctx, alert.ID, true)
	require.ErrorIs(t, err, alerts.ErrAlreadyTriggered)
	require.NoError(t, eng.DeleteAlert(ctx, alert.ID))
	assert.Empty(t, eng.ListAlerts(ctx, userID))

	// Delivery went through the registered in-app channel and was
	// recorded on the notification.
	require.Eventually(t, func() bool {
		list, err := eng.ListNotifications(ctx, userID, notifier.Filter{})
		return err == nil && len(list) == 1 && len(list[0].Channels) > 0
	}, 5*time.Second, 10*time.Millisecond)

	list, err = eng.ListNotifications(ctx, userID, notifier.Filter{})
	require.NoError(t, err)
	assert.Contains(t, list[0].Channels, "in_app")
	assert.GreaterOrEqual(t, adapter.count(), 1)
}

func TestEngineDisabledPreferenceSkipsDelivery(t *testing.T) {
	t.Parallel()

	eng, feed, adapter := startEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := eng.UpdatePreference(ctx, prefs.Preference{
		UserID:  userID,
		TypeID:  "price_alert",
		Enabled: false,
	})
	require.NoError(t, err)

	alert, err := eng.CreateAlert(ctx, userID, "ETH-USD", alerts.ConditionPriceBelow, decimal.NewFromInt(3000))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		publishTick(t, feed, "ETH-USD", 2900)
		got, err := eng.GetAlert(ctx, alert.ID)
		return err == nil && got.State == alerts.StateTriggered
	}, 5*time.Second, 10*time.Millisecond)

	// The notification is still created; only delivery is suppressed.
	require.Eventually(t, func() bool {
		list, err := eng.ListNotifications(ctx, userID, notifier.Filter{})
		return err == nil && len(list) == 1
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, adapter.count())

	list, err := eng.ListNotifications(ctx, userID, notifier.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list[0].Channels)
}

func TestEngineManualNotificationAndStats(t *testing.T) {
	t.Parallel()

	eng, _, _ := startEngine(t)
	ctx := context.Background()
	userID := uuid.New()

	n, err := eng.CreateNotification(ctx, notifier.CreateParams{
		UserID:   userID,
		Type:     "system_announcement",
		Category: notifier.CategorySystem,
		Priority: notifier.PriorityLow,
		Title:    "Scheduled maintenance",
		Message:  "Trading pauses at 02:00 UTC",
	})
	require.NoError(t, err)

	count, err := eng.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Eventually(t, func() bool {
		s, err := eng.GetStats(ctx, userID)
		return err == nil && s.Total == 1 && s.Unread == 1
	}, 5*time.Second, 10*time.Millisecond)

	read, err := eng.MarkAsRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	require.Eventually(t, func() bool {
		s, err := eng.GetStats(ctx, userID)
		return err == nil && s.Unread == 0
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, eng.DeleteNotification(ctx, n.ID))
	count, err = eng.CountUnread(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngineStatsIncludeNotificationsBeforeRun(t *testing.T) {
	t.Parallel()

	feed := market.NewMemoryFeed(16)
	t.Cleanup(func() { _ = feed.Close() })

	eng := engine.New(engine.Deps{
		Feed:            feed,
		ChannelRegistry: channels.NewRegistry(),
	})
	ctx := context.Background()
	userID := uuid.New()

	// Created before Run starts. The stats subscription attaches in New,
	// so the head of the event stream is never lost to startup timing.
	_, err := eng.CreateNotification(ctx, notifier.CreateParams{
		UserID:   userID,
		Type:     "system_announcement",
		Category: notifier.CategorySystem,
		Priority: notifier.PriorityLow,
		Title:    "Maintenance window",
		Message:  "Trading pauses at 02:00 UTC",
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(runCtx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("engine did not shut down")
		}
	})

	require.Eventually(t, func() bool {
		s, err := eng.GetStats(ctx, userID)
		return err == nil && s.Total == 1 && s.Unread == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEngineSubscribeNotifications(t *testing.T) {
	t.Parallel()

	eng, _, _ := startEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	userID := uuid.New()

	events, err := eng.SubscribeNotifications(ctx, userID)
	require.NoError(t, err)

	_, err = eng.CreateNotification(ctx, notifier.CreateParams{
		UserID:   userID,
		Type:     "market_update",
		Category: notifier.CategoryMarket,
		Priority: notifier.PriorityLow,
		Title:    "Daily summary",
	})
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, notifier.EventCreated, event.Type)
		assert.Equal(t, "Daily summary", event.Notification.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}
