// Package redis connects the engine to Redis, which carries the market
// tick pub/sub stream consumed by pkg/market.
//
// Connect retries until the server answers a ping or the attempts are
// exhausted:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package redis
