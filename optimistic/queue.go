package optimistic

import (
	"context"
	"log/slog"
	"sync"
)

// op is one queued durable write with its compensation and failure
// notification.
type op struct {
	name       string
	run        func(ctx context.Context) error
	compensate func()
	onFailure  func(err error)
}

// Queue executes durable-write closures strictly FIFO on a single
// worker goroutine. A failure in one operation is isolated: it is
// caught, compensated and logged, and does not block or cancel
// subsequently queued operations.
type Queue struct {
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	ops    chan op
	done   chan struct{}
}

// NewQueue starts the worker and returns the queue.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		logger: logger,
		ops:    make(chan op, 128),
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.done)
	for o := range q.ops {
		if o.run == nil {
			continue
		}
		err := o.run(context.Background())
		if err == nil {
			continue
		}
		if o.compensate != nil {
			o.compensate()
		}
		if o.onFailure != nil {
			o.onFailure(err)
		}
		q.logger.Warn("durable write failed", "op", o.name, "error", err)
	}
}

// Enqueue hands an operation to the worker. It reports false when the
// queue has already been closed; callers treat that as a write failure
// and compensate immediately.
func (q *Queue) Enqueue(o op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.ops <- o
	return true
}

// Drain blocks until every operation enqueued before the call has
// finished. Used by tests and by session teardown.
func (q *Queue) Drain() {
	ch := make(chan struct{})
	ok := q.Enqueue(op{
		name: "drain",
		run: func(context.Context) error {
			close(ch)
			return nil
		},
	})
	if !ok {
		return
	}
	<-ch
}

// Close stops accepting work, lets queued operations finish and waits
// for the worker to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.ops)
	q.mu.Unlock()
	<-q.done
}
