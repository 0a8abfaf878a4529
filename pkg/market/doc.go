// Package market delivers price ticks to the alert engine.
//
// A Feed is a per-instrument subscription source. RedisFeed consumes the
// platform's tick pub/sub stream; MemoryFeed backs tests and local
// development where ticks are published by hand:
//
//	feed := market.NewMemoryFeed()
//	ticks, err := feed.Subscribe(ctx, "BTC-USD")
//	...
//	feed.Publish(ctx, market.Tick{
//	    InstrumentID: "BTC-USD",
//	    Price:        decimal.NewFromInt(50100),
//	    Timestamp:    time.Now(),
//	})
//
// Prices and volumes are decimals; converting market data through float64
// loses precision on exactly the comparisons alerts are built from.
package market
