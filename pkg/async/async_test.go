package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HyperCogAI/alertkit/pkg/async"
)

func TestGo_Success(t *testing.T) {
	t.Parallel()

	f := async.Go(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	result, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, f.IsComplete())
}

func TestGo_Error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("delivery failed")
	f := async.Go(context.Background(), "push", func(ctx context.Context, s string) (string, error) {
		return "", wantErr
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, wantErr)
}

func TestGo_PreCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	f := async.Go(ctx, 0, func(ctx context.Context, n int) (int, error) {
		called = true
		return n, nil
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := async.Go(context.Background(), 0, func(ctx context.Context, n int) (int, error) {
		<-release
		return n, nil
	})

	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)
	assert.False(t, f.IsComplete())

	close(release)
	_, err = f.AwaitWithTimeout(time.Second)
	assert.NoError(t, err)
}

func TestErr(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	f := async.Err(context.Background(), "payload", func(ctx context.Context, s string) error {
		return wantErr
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, wantErr)
}

func TestWaitAll_CollectsAllAndFirstError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("second failed")
	ok := async.Go(context.Background(), 1, func(ctx context.Context, n int) (int, error) { return n, nil })
	bad := async.Go(context.Background(), 2, func(ctx context.Context, n int) (int, error) { return 0, wantErr })
	alsoOK := async.Go(context.Background(), 3, func(ctx context.Context, n int) (int, error) { return n, nil })

	results, err := async.WaitAll(ok, bad, alsoOK)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, []int{1, 0, 3}, results)
}
