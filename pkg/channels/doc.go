// Package channels delivers notifications to the outside world: the
// channel registry with its per-channel kill switch, the delivery
// adapters (in-app, push, email, webhook), and the router that fans a
// notification out across the channels its resolved policy names.
//
// Channels are independent by construction. The router dispatches each
// adapter on its own goroutine, retries transient failures once after a
// fixed delay, and records every attempt whether or not it succeeded.
// Delivery failures never propagate into notification creation:
//
//	result := router.Dispatch(ctx, n, policy)
//	store.RecordDelivery(ctx, n.ID, result.Attempted)
package channels
