package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/broadcast"
)

func TestMemoryBroadcaster_DeliversInOrder(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](16, time.Second)
	defer b.Close()

	ctx := context.Background()
	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	for i := range 10 {
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: i}))
	}

	for i := range 10 {
		select {
		case msg := <-sub.Receive(ctx):
			assert.Equal(t, i, msg.Data)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestMemoryBroadcaster_MultipleSubscribers(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[string](4, time.Second)
	defer b.Close()

	ctx := context.Background()
	sub1, err := b.Subscribe(ctx)
	require.NoError(t, err)
	sub2, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer sub1.Close()
	defer sub2.Close()

	require.NoError(t, b.Broadcast(ctx, broadcast.Message[string]{Data: "tick"}))

	assert.Equal(t, "tick", (<-sub1.Receive(ctx)).Data)
	assert.Equal(t, "tick", (<-sub2.Receive(ctx)).Data)
}

func TestMemoryBroadcaster_SlowSubscriberDisconnected(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1, 20*time.Millisecond)
	defer b.Close()

	ctx := context.Background()
	slow, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer slow.Close()

	// Fill the buffer, then publish one more; the subscriber never reads,
	// so the blocked send times out and the subscriber is dropped.
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))

	assert.Equal(t, 0, b.SubscriberCount())
}

func TestMemoryBroadcaster_HealthySubscriberUnaffectedBySlowOne(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1, 20*time.Millisecond)
	defer b.Close()

	ctx := context.Background()
	slow, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer slow.Close()
	healthy, err := b.Subscribe(ctx)
	require.NoError(t, err)
	defer healthy.Close()

	var got []int
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range healthy.Receive(ctx) {
			got = append(got, msg.Data)
			if len(got) == 3 {
				return
			}
		}
	}()

	for i := 1; i <= 3; i++ {
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: i}))
	}

	wg.Wait()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestMemoryBroadcaster_ContextCancelUnsubscribes(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](4, time.Second)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := b.Subscribe(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, b.SubscriberCount())

	cancel()

	assert.Eventually(t, func() bool {
		return b.SubscriberCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](4, time.Second)
	ctx := context.Background()
	sub, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close()) // idempotent

	_, open := <-sub.Receive(ctx)
	assert.False(t, open)

	err = b.Broadcast(ctx, broadcast.Message[int]{Data: 1})
	assert.ErrorIs(t, err, broadcast.ErrBroadcasterClosed)

	_, err = b.Subscribe(ctx)
	assert.ErrorIs(t, err, broadcast.ErrBroadcasterClosed)
}

func TestSubscriber_CloseIdempotent(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](4, time.Second)
	defer b.Close()

	sub, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}
