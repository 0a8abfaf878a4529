// Package engine wires the alert and notification machinery into one
// runnable unit: tick feeds into the evaluator, triggers into the
// notification store, store creations through preference resolution into
// the channel router, and every durable write into the journal.
//
// The engine is the surface the presentation layer talks to. All of its
// operations delegate to the underlying packages; it adds the wiring,
// the per-instrument evaluation workers, and the delivery worker pool.
//
//	eng := engine.New(engine.Deps{...})
//	go func() { _ = eng.Run(ctx) }()
//	...
//	alert, err := eng.CreateAlert(ctx, userID, "BTC-USD",
//	    alerts.ConditionPriceAbove, decimal.NewFromInt(50000))
package engine
