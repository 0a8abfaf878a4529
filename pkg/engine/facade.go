package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HyperCogAI/alertkit/pkg/alerts"
	"github.com/HyperCogAI/alertkit/pkg/channels"
	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
	"github.com/HyperCogAI/alertkit/pkg/stats"
)

// CreateAlert registers a new active alert and makes sure the engine is
// listening to the instrument's tick stream.
func (e *Engine) CreateAlert(ctx context.Context, userID uuid.UUID, instrumentID string, condition alerts.ConditionKind, target decimal.Decimal) (alerts.Alert, error) {
	alert, err := e.alertSvc.Create(ctx, alerts.CreateParams{
		UserID:       userID,
		InstrumentID: instrumentID,
		Condition:    condition,
		Target:       target,
	})
	if err != nil {
		return alerts.Alert{}, err
	}
	e.ensureSubscribed(alert.InstrumentID)
	return alert, nil
}

// ToggleAlert pauses or resumes an alert.
func (e *Engine) ToggleAlert(ctx context.Context, id uuid.UUID, active bool) (alerts.Alert, error) {
	return e.alertSvc.Toggle(ctx, id, active)
}

// DeleteAlert removes an alert. Deleting a triggered alert is how users
// clear a fired condition.
func (e *Engine) DeleteAlert(ctx context.Context, id uuid.UUID) error {
	return e.alertSvc.Delete(ctx, id)
}

// GetAlert returns a snapshot of one alert.
func (e *Engine) GetAlert(ctx context.Context, id uuid.UUID) (alerts.Alert, error) {
	return e.alertSvc.Get(ctx, id)
}

// ListAlerts returns snapshots of the user's alerts.
func (e *Engine) ListAlerts(ctx context.Context, userID uuid.UUID) []alerts.Alert {
	return e.alertSvc.List(ctx, userID)
}

// CreateNotification stores and routes a notification that did not
// originate from an alert (announcements, compliance notices).
func (e *Engine) CreateNotification(ctx context.Context, params notifier.CreateParams) (notifier.Notification, error) {
	n, err := e.store.Create(ctx, params)
	if err != nil {
		return notifier.Notification{}, err
	}

	policy, err := e.resolver.Resolve(n.UserID, n.Type, n.CreatedAt)
	if err != nil {
		// Unknown type: the notification exists, it just isn't routed.
		return n, nil
	}
	select {
	case e.dispatch <- dispatchJob{notification: n, policy: policy}:
	case <-ctx.Done():
	}
	return n, nil
}

// GetNotification returns a snapshot of one notification.
func (e *Engine) GetNotification(ctx context.Context, id uuid.UUID) (notifier.Notification, error) {
	return e.store.Get(ctx, id)
}

// ListNotifications returns the user's notifications, newest first.
func (e *Engine) ListNotifications(ctx context.Context, userID uuid.UUID, filter notifier.Filter) ([]notifier.Notification, error) {
	return e.store.List(ctx, userID, filter)
}

// MarkAsRead marks one notification read. Idempotent.
func (e *Engine) MarkAsRead(ctx context.Context, id uuid.UUID) (notifier.Notification, error) {
	return e.store.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every unread notification of the user and returns
// how many changed.
func (e *Engine) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return e.store.MarkAllAsRead(ctx, userID)
}

// DeleteNotification removes one notification.
func (e *Engine) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	return e.store.Delete(ctx, id)
}

// CountUnread returns the user's unread, non-expired count.
func (e *Engine) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return e.store.CountUnread(ctx, userID)
}

// GetStats returns the user's notification counters.
func (e *Engine) GetStats(ctx context.Context, userID uuid.UUID) (stats.Summary, error) {
	return e.agg.Stats(ctx, userID)
}

// SubscribeNotifications streams the user's notification events in
// publish order until ctx is cancelled.
func (e *Engine) SubscribeNotifications(ctx context.Context, userID uuid.UUID) (<-chan notifier.Event, error) {
	return e.store.Subscribe(ctx, userID)
}

// UpdatePreference stores a per-user override for one notification type.
func (e *Engine) UpdatePreference(ctx context.Context, pref prefs.Preference) (prefs.Preference, error) {
	return e.prefSt.Upsert(ctx, pref)
}

// ListPreferences returns the rows the user has overridden.
func (e *Engine) ListPreferences(_ context.Context, userID uuid.UUID) []prefs.Preference {
	return e.prefSt.ListByUser(userID)
}

// NotificationTypes returns the catalog of known notification types.
func (e *Engine) NotificationTypes() []prefs.NotificationType {
	return e.catalog.Types()
}

// ListChannels returns the configured delivery channels.
func (e *Engine) ListChannels() []channels.Channel {
	return e.chanReg.List()
}

// SetChannelEnabled flips the kill switch on one channel.
func (e *Engine) SetChannelEnabled(ctx context.Context, id string, enabled bool) (channels.Channel, error) {
	ch, err := e.chanReg.SetEnabled(ctx, id, enabled)
	if err != nil {
		return channels.Channel{}, err
	}
	if p := e.persist.Channels; p != nil {
		e.journal.Record("upsert channel", func(ctx context.Context) error {
			return p.Upsert(ctx, ch)
		})
	}
	return ch, nil
}

// RequestChannelPermission runs the consent flow for a channel kind.
func (e *Engine) RequestChannelPermission(ctx context.Context, kind channels.Kind) channels.Permission {
	return e.chanReg.RequestPermission(ctx, kind)
}
