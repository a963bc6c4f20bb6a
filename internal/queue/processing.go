package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Decision is returned by a processFunc to report what happened to an item.
type Decision int

const (
	// DecisionSuccess is returned by a processFunc when an item was processed.
	DecisionSuccess Decision = 1

	// DecisionSkipped is returned by a processFunc when an item was skipped.
	DecisionSkipped Decision = 0

	// DecisionRequeue is returned by a processFunc when an item needs
	// requeueing. The item is pushed back onto the tail of the queue.
	DecisionRequeue Decision = -1
)

// Produce is the producer side of the queue protocol. It pushes all items
// onto the queue and sets the [ShutdownFlag] afterwards. The flag is also set
// when the context is cancelled mid-flight, so consumers never wait forever.
func Produce[T any](ctx context.Context, q *ConcurrentQueue[T], shutdown *ShutdownFlag, items []T) error {
	return ProduceTracked(ctx, q, shutdown, items, nil)
}

// ProduceTracked is [Produce], additionally recording every pushed item into
// the given [Statistics]. The stage is marked finished once all items were
// pushed. A nil stats records nothing.
func ProduceTracked[T any](ctx context.Context, q *ConcurrentQueue[T], shutdown *ShutdownFlag, items []T, stats *Statistics) error {
	defer shutdown.Set()

	if stats != nil {
		stats.AddTotal(len(items))
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return fmt.Errorf("(queue-produce) %w", ctx.Err())
		}

		if stats != nil {
			stats.SetProcessing()
		}

		q.Push(item)

		if stats != nil {
			stats.SetSuccess()
		}
	}

	if stats != nil {
		stats.Finish()
	}

	return nil
}

// Consumer is the consumer side of the queue protocol. It drains a
// [ConcurrentQueue] until the associated [ShutdownFlag] is set and no items
// remain, recording its progress in a [Statistics].
type Consumer[T any] struct {
	queue    *ConcurrentQueue[T]
	shutdown *ShutdownFlag
	stats    *Statistics
}

// NewConsumer returns a pointer to a new [Consumer]. If stats is nil, a new
// [Statistics] is created for the [Consumer].
func NewConsumer[T any](q *ConcurrentQueue[T], shutdown *ShutdownFlag, stats *Statistics) *Consumer[T] {
	if stats == nil {
		stats = NewStatistics()
	}

	return &Consumer[T]{
		queue:    q,
		shutdown: shutdown,
		stats:    stats,
	}
}

// Statistics returns the [Statistics] the [Consumer] records into.
func (c *Consumer[T]) Statistics() *Statistics {
	return c.stats
}

// Run concurrently drains the queue using the given amount of workers, each
// blocking in [ConcurrentQueue.WaitAndPopUntil]. It returns once the
// [ShutdownFlag] is set and the queue is empty. An error is only returned in
// case of a context cancellation or an invalid amount of workers.
//
// It is the responsibility of the processFunc to ensure thread-safety for
// anything happening inside the processFunc, with the [Consumer] only
// guaranteeing thread-safety for itself.
func (c *Consumer[T]) Run(ctx context.Context, workers int, processFunc func(T) Decision) error {
	if workers < 1 {
		return fmt.Errorf("(queue-consume) %w: %d", ErrInvalidWorkers, workers)
	}

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				item, err := c.queue.WaitAndPopUntil(ctx, c.shutdown)
				if err != nil {
					return
				}

				c.process(item, processFunc)
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("(queue-consume) %w", ctx.Err())
	}

	c.stats.Finish()

	return nil
}

// Poll sequentially drains the queue without blocking on it, sleeping for the
// given interval whenever the queue is found empty. The loop continues while
// the [ShutdownFlag] is not set or the queue is not empty, in that order, so
// items pushed just before the flag was set are never dropped. An error is
// only returned in case of a context cancellation or an invalid interval.
func (c *Consumer[T]) Poll(ctx context.Context, interval time.Duration, processFunc func(T) Decision) error {
	if interval <= 0 {
		return fmt.Errorf("(queue-poll) %w: %v", ErrInvalidInterval, interval)
	}

	for !c.shutdown.IsSet() || !c.queue.IsEmpty() {
		if ctx.Err() != nil {
			return fmt.Errorf("(queue-poll) %w", ctx.Err())
		}

		if item, ok := c.queue.TryPop(); ok {
			c.process(item, processFunc)

			continue
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("(queue-poll) %w", ctx.Err())
		case <-time.After(interval):
		}
	}

	c.stats.Finish()

	return nil
}

// process runs the processFunc for one item. Unknown decisions are counted as
// skipped.
func (c *Consumer[T]) process(item T, processFunc func(T) Decision) {
	c.stats.SetProcessing()

	switch processFunc(item) {
	case DecisionRequeue:
		c.queue.Push(item)
		c.stats.SetRequeued()

	case DecisionSuccess:
		c.stats.SetSuccess()

	default:
		c.stats.SetSkipped()
	}
}
