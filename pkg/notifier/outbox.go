package notifier

import "sync"

// outbox is an unbounded FIFO queue between the store's write path and
// the event bus. Pushing never blocks, so mutating calls return without
// waiting on subscribers, while the single drain goroutine preserves
// publish order.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.cond = sync.NewCond(&o.mu)
	return o
}

func (o *outbox) push(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.queue = append(o.queue, event)
	o.cond.Signal()
}

// next blocks until an event is available or the outbox is closed and
// drained. The second return is false only when no more events will come.
func (o *outbox) next() (Event, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) == 0 && !o.closed {
		o.cond.Wait()
	}
	if len(o.queue) == 0 {
		return Event{}, false
	}
	event := o.queue[0]
	o.queue = o.queue[1:]
	return event, true
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.cond.Broadcast()
}
