// Package broadcast provides a type-safe in-memory publish/subscribe
// primitive with bounded per-subscriber buffers.
//
// Unlike fire-and-forget callback registries, every subscriber owns a
// bounded FIFO channel: messages are delivered in publish order, and a
// subscriber that cannot keep up blocks the publisher only up to the
// configured send timeout before being disconnected. This makes the
// backpressure policy explicit - block-with-timeout, then drop the
// subscriber, never reorder or silently lose messages for healthy
// subscribers.
//
//	b := broadcast.NewMemoryBroadcaster[string](16, time.Second)
//	sub, err := b.Subscribe(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sub.Close()
//
//	go b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//	    fmt.Println(msg.Data)
//	}
package broadcast
