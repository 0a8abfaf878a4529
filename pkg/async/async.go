package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the computation completes and returns its result.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits for completion up to the given timeout.
// Returns ErrTimeout if the computation is still running when the
// timeout elapses; the computation itself is not cancelled.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-time.After(timeout):
		var zero U
		return zero, ErrTimeout
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Go executes fn in a new goroutine and returns a Future for its result.
// A pre-cancelled context short-circuits without invoking fn.
func Go[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Err executes fn, which returns only an error, and wraps it in a Future.
// Convenience for side-effect operations like channel delivery.
func Err[T any](ctx context.Context, param T, fn func(context.Context, T) error) *Future[struct{}] {
	return Go(ctx, param, func(ctx context.Context, p T) (struct{}, error) {
		return struct{}{}, fn(ctx, p)
	})
}

// WaitAll waits for every future and returns the results along with the
// first error encountered, if any. All futures are awaited even after an
// error so no goroutine outcome is abandoned.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))

	var firstErr error
	for i, future := range futures {
		result, err := future.Await()
		results[i] = result
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}
