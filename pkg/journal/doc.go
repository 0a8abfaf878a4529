// Package journal provides the write-behind persistence queue. The
// in-memory stores are authoritative; every durable write is recorded
// here as an operation and drained by a background goroutine that
// retries with exponential backoff.
//
// A persistence outage therefore degrades durability, never user-visible
// behavior: Record returns immediately and the operation is retried
// until it succeeds or its attempts run out.
//
//	j := journal.New()
//	go func() { _ = j.Run(ctx) }()
//	...
//	j.Record("upsert notification", func(ctx context.Context) error {
//	    return persister.Upsert(ctx, n)
//	})
package journal
