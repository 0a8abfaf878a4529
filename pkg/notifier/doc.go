// Package notifier is the authoritative in-memory ledger of user
// notifications: creation, read-state, expiry, hard deletion, and the
// change-event bus consumed by live sessions and the stats aggregator.
//
// The store is single-writer: every mutation runs under one lock, which
// rules out lost updates on read/unread state without per-notification
// locking. Events are published through a dedicated outbox goroutine,
// so mutating calls never block on slow subscribers while each
// subscriber still observes a user's events in publish order.
//
// Persistence is write-behind. Mutations report changes to a hook that
// journals them to PostgreSQL in the background; the in-memory state is
// authoritative and a persistence outage degrades durability only.
//
//	store := notifier.NewStore(
//	    notifier.WithUrgentFunc(toasts.Show),
//	    notifier.WithStoreChangeHook(journalChange),
//	)
//	n, err := store.Create(ctx, notifier.CreateParams{
//	    UserID:   userID,
//	    Type:     "price_alert",
//	    Category: notifier.CategoryTrading,
//	    Priority: notifier.PriorityHigh,
//	    Title:    "Price alert triggered: BTC-USD",
//	    Message:  "BTC-USD crossed 50000",
//	})
package notifier
