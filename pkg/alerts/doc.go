// Package alerts owns user price alerts: the registry indexed by
// instrument, the lifecycle state machine, and the tick evaluator that
// fires each alert at most once.
//
// An alert watches one instrument with one condition (price above or
// below a threshold, absolute percent change from a baseline, or a
// volume spike). Triggering is terminal: a fired alert never rearms,
// the user deletes it and creates a fresh one.
//
// The evaluator serializes evaluation per alert, so overlapping ticks
// cannot double-fire a condition. The registry shards its instrument
// index, so registering alerts on one instrument does not contend with
// evaluation on another.
//
//	svc := alerts.NewService(registry)
//	alert, err := svc.Create(ctx, alerts.CreateParams{
//	    UserID:       userID,
//	    InstrumentID: "BTC-USD",
//	    Condition:    alerts.ConditionPriceAbove,
//	    Target:       decimal.NewFromInt(50000),
//	})
package alerts
