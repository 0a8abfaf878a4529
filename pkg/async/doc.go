// Package async provides a small Future abstraction for running
// independent operations concurrently and collecting their results.
//
// The channel router uses it to dispatch one delivery per channel
// without letting a slow adapter block the others:
//
//	f := async.Run(ctx, notif, adapter.Deliver)
//	...
//	if _, err := f.Await(); err != nil {
//	    // record the per-channel failure
//	}
package async
