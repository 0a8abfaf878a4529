package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/HyperCogAI/alertkit/pkg/logger"
)

const (
	// DefaultMaxAttempts bounds retries per operation before it is
	// dropped with an error log.
	DefaultMaxAttempts = 5
	// DefaultBaseBackoff is the wait after the first failure; it doubles
	// per attempt up to DefaultMaxBackoff.
	DefaultBaseBackoff = 500 * time.Millisecond
	DefaultMaxBackoff  = 30 * time.Second
)

// Op is one durable write. It must be safe to retry.
type Op func(ctx context.Context) error

type task struct {
	name string
	op   Op
}

// Journal is an unbounded FIFO of pending durable writes with a single
// drain goroutine. Recording never blocks the caller.
type Journal struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool

	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	log         *slog.Logger
}

// Option configures the Journal.
type Option func(*Journal)

// WithMaxAttempts bounds retries per operation.
func WithMaxAttempts(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.maxAttempts = n
		}
	}
}

// WithBackoff sets the retry backoff range.
func WithBackoff(base, maxBackoff time.Duration) Option {
	return func(j *Journal) {
		if base > 0 {
			j.baseBackoff = base
		}
		if maxBackoff >= base {
			j.maxBackoff = maxBackoff
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(j *Journal) {
		if log != nil {
			j.log = log
		}
	}
}

// New creates a journal; call Run to start draining.
func New(opts ...Option) *Journal {
	j := &Journal{
		maxAttempts: DefaultMaxAttempts,
		baseBackoff: DefaultBaseBackoff,
		maxBackoff:  DefaultMaxBackoff,
		log:         slog.Default(),
	}
	j.cond = sync.NewCond(&j.mu)
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Record enqueues a durable write. Never blocks; returns false if the
// journal has shut down.
func (j *Journal) Record(name string, op Op) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return false
	}
	j.queue = append(j.queue, task{name: name, op: op})
	j.cond.Signal()
	return true
}

// Pending returns the number of queued operations.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.queue)
}

// Run drains the journal until ctx is cancelled, retrying each
// operation with exponential backoff. Always returns ctx.Err().
func (j *Journal) Run(ctx context.Context) error {
	// Wake the cond wait when the context ends.
	stop := context.AfterFunc(ctx, func() {
		j.mu.Lock()
		j.closed = true
		j.cond.Broadcast()
		j.mu.Unlock()
	})
	defer stop()

	for {
		t, ok := j.next()
		if !ok {
			return ctx.Err()
		}
		j.apply(ctx, t)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (j *Journal) next() (task, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for len(j.queue) == 0 && !j.closed {
		j.cond.Wait()
	}
	if len(j.queue) == 0 {
		return task{}, false
	}
	t := j.queue[0]
	j.queue = j.queue[1:]
	return t, true
}

// apply runs one operation with retries. Exhausted operations are
// dropped and logged; the in-memory state they mirror stays intact.
func (j *Journal) apply(ctx context.Context, t task) {
	backoff := j.baseBackoff
	for attempt := 1; ; attempt++ {
		err := t.op(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if attempt >= j.maxAttempts {
			j.log.ErrorContext(ctx, "journal operation dropped after retries",
				logger.Component("journal"),
				slog.String("operation", t.name),
				logger.RetryCount(attempt),
				logger.Error(err),
			)
			return
		}

		j.log.WarnContext(ctx, "journal operation failed, retrying",
			logger.Component("journal"),
			slog.String("operation", t.name),
			logger.RetryCount(attempt),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > j.maxBackoff {
			backoff = j.maxBackoff
		}
	}
}
