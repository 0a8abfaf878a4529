package prefs_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/notifier"
	"github.com/HyperCogAI/alertkit/pkg/prefs"
)

// localTime builds a UTC instant whose wall clock in loc reads hour:min.
func localTime(t *testing.T, tz string, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	require.NoError(t, err)
	return time.Date(2026, 3, 10, hour, min, 0, 0, loc)
}

func TestResolveDefaults(t *testing.T) {
	t.Parallel()

	catalog := prefs.DefaultCatalog()
	store := prefs.NewStore(catalog)
	resolver := prefs.NewResolver(catalog, store)

	t.Run("missing row returns catalog defaults", func(t *testing.T) {
		t.Parallel()
		policy, err := resolver.Resolve(uuid.New(), "price_alert", time.Now())
		require.NoError(t, err)
		assert.True(t, policy.Enabled)
		assert.ElementsMatch(t, []string{"in_app", "push"}, policy.Channels)
		assert.Equal(t, notifier.PriorityHigh, policy.Priority)
		assert.False(t, policy.SuppressedByQuietHours)
	})

	t.Run("disabled-by-default type stays disabled", func(t *testing.T) {
		t.Parallel()
		policy, err := resolver.Resolve(uuid.New(), "system_announcement", time.Now())
		require.NoError(t, err)
		assert.False(t, policy.Enabled)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		_, err := resolver.Resolve(uuid.New(), "carrier_pigeon", time.Now())
		assert.ErrorIs(t, err, prefs.ErrUnknownType)
	})
}

func TestResolveOverrides(t *testing.T) {
	t.Parallel()

	catalog := prefs.DefaultCatalog()
	store := prefs.NewStore(catalog)
	resolver := prefs.NewResolver(catalog, store)

	userID := uuid.New()
	_, err := store.Upsert(context.Background(), prefs.Preference{
		UserID:   userID,
		TypeID:   "price_alert",
		Enabled:  true,
		Channels: []string{"email"},
	})
	require.NoError(t, err)

	policy, err := resolver.Resolve(userID, "price_alert", time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, policy.Channels)

	// Other users keep the defaults.
	other, err := resolver.Resolve(uuid.New(), "price_alert", time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"in_app", "push"}, other.Channels)
}

func TestResolveQuietHours(t *testing.T) {
	t.Parallel()

	const tz = "America/New_York"
	quiet := &prefs.QuietHours{
		Enabled:     true,
		StartMinute: 22 * 60,
		EndMinute:   6 * 60,
		Timezone:    tz,
	}

	setup := func(t *testing.T, typeID string) (*prefs.Resolver, uuid.UUID) {
		t.Helper()
		catalog := prefs.DefaultCatalog()
		store := prefs.NewStore(catalog)
		userID := uuid.New()
		entry, err := catalog.Get(typeID)
		require.NoError(t, err)
		_, err = store.Upsert(context.Background(), prefs.Preference{
			UserID:     userID,
			TypeID:     typeID,
			Enabled:    true,
			Channels:   entry.DefaultChannels,
			QuietHours: quiet,
		})
		require.NoError(t, err)
		return prefs.NewResolver(catalog, store), userID
	}

	t.Run("non-critical suppressed at 23:00", func(t *testing.T) {
		t.Parallel()
		resolver, userID := setup(t, "price_alert")
		policy, err := resolver.Resolve(userID, "price_alert", localTime(t, tz, 23, 0))
		require.NoError(t, err)
		assert.False(t, policy.Enabled)
		assert.True(t, policy.SuppressedByQuietHours)
	})

	t.Run("window wraps past midnight", func(t *testing.T) {
		t.Parallel()
		resolver, userID := setup(t, "price_alert")
		policy, err := resolver.Resolve(userID, "price_alert", localTime(t, tz, 3, 0))
		require.NoError(t, err)
		assert.True(t, policy.SuppressedByQuietHours)
	})

	t.Run("end of window is exclusive", func(t *testing.T) {
		t.Parallel()
		resolver, userID := setup(t, "price_alert")
		policy, err := resolver.Resolve(userID, "price_alert", localTime(t, tz, 6, 0))
		require.NoError(t, err)
		assert.True(t, policy.Enabled)
		assert.False(t, policy.SuppressedByQuietHours)
	})

	t.Run("daytime unaffected", func(t *testing.T) {
		t.Parallel()
		resolver, userID := setup(t, "price_alert")
		policy, err := resolver.Resolve(userID, "price_alert", localTime(t, tz, 12, 0))
		require.NoError(t, err)
		assert.True(t, policy.Enabled)
	})

	t.Run("critical bypasses quiet hours", func(t *testing.T) {
		t.Parallel()
		resolver, userID := setup(t, "account_security")
		policy, err := resolver.Resolve(userID, "account_security", localTime(t, tz, 23, 0))
		require.NoError(t, err)
		assert.True(t, policy.Enabled)
		assert.False(t, policy.SuppressedByQuietHours)
	})
}

func TestStoreUpsertValidation(t *testing.T) {
	t.Parallel()

	catalog := prefs.DefaultCatalog()
	store := prefs.NewStore(catalog)

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		_, err := store.Upsert(context.Background(), prefs.Preference{
			UserID: uuid.New(),
			TypeID: "carrier_pigeon",
		})
		assert.ErrorIs(t, err, prefs.ErrUnknownType)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		_, err := store.Upsert(context.Background(), prefs.Preference{TypeID: "price_alert"})
		assert.ErrorIs(t, err, prefs.ErrValidation)
	})

	t.Run("quiet hours bounds", func(t *testing.T) {
		t.Parallel()
		_, err := store.Upsert(context.Background(), prefs.Preference{
			UserID:     uuid.New(),
			TypeID:     "price_alert",
			QuietHours: &prefs.QuietHours{Enabled: true, StartMinute: 1500, EndMinute: 360},
		})
		assert.ErrorIs(t, err, prefs.ErrValidation)
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Parallel()
		_, err := store.Upsert(context.Background(), prefs.Preference{
			UserID: uuid.New(),
			TypeID: "price_alert",
			QuietHours: &prefs.QuietHours{
				Enabled: true, StartMinute: 0, EndMinute: 60, Timezone: "Mars/Olympus",
			},
		})
		assert.ErrorIs(t, err, prefs.ErrValidation)
	})

	t.Run("change hook fires on upsert", func(t *testing.T) {
		t.Parallel()
		var seen []prefs.Preference
		hooked := prefs.NewStore(catalog, prefs.WithChangeHook(
			func(_ context.Context, p prefs.Preference) { seen = append(seen, p) },
		))
		_, err := hooked.Upsert(context.Background(), prefs.Preference{
			UserID:  uuid.New(),
			TypeID:  "price_alert",
			Enabled: false,
		})
		require.NoError(t, err)
		require.Len(t, seen, 1)
		assert.False(t, seen[0].UpdatedAt.IsZero())
	})
}
