// Package stats maintains per-user notification counters off the store's
// event stream: totals, unread, per-category and per-priority breakdowns,
// and today/this-week windows.
//
// Counters are incremental. Time-window counts are computed at query
// time from a per-user created-at index, since day and week boundaries
// roll over regardless of write activity. A full recompute from the
// ledger is the fallback for restart or drift, never the hot path.
//
//	agg := stats.NewAggregator(store)
//	go func() { _ = agg.Run(ctx) }()
//	...
//	summary, err := agg.Stats(ctx, userID)
package stats
