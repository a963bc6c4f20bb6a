package queue

import (
	"context"
	"sync"
	"time"
)

// compactThreshold is the minimum number of consumed slots before the backing
// slice of a [ConcurrentQueue] is compacted. Compaction happens once the
// consumed slots outnumber the queued elements.
const compactThreshold = 64

// ConcurrentQueue is an unbounded generic FIFO queue that is safe for use by
// any number of concurrently pushing and popping goroutines. It supports both
// non-blocking ([ConcurrentQueue.TryPop]) and blocking
// ([ConcurrentQueue.WaitAndPop]) retrieval.
//
// A [ConcurrentQueue] must be created with [NewConcurrentQueue] and must not be
// copied after creation, it is shared by pointer. Using a copy panics with
// [ErrQueueCopied].
type ConcurrentQueue[T any] struct {
	self *ConcurrentQueue[T]

	mu    sync.Mutex
	cond  *sync.Cond
	head  int
	items []T

	pushed uint64
	popped uint64
}

// NewConcurrentQueue returns a pointer to a new, empty [ConcurrentQueue].
func NewConcurrentQueue[T any]() *ConcurrentQueue[T] {
	q := &ConcurrentQueue[T]{}
	q.self = q
	q.cond = sync.NewCond(&q.mu)

	return q
}

func (q *ConcurrentQueue[T]) copyCheck() {
	if q.self != q {
		panic(ErrQueueCopied)
	}
}

// Push inserts a value at the tail of the queue. It always succeeds and wakes
// at most one goroutine blocked in one of the waiting pop methods.
func (q *ConcurrentQueue[T]) Push(value T) {
	q.copyCheck()

	q.mu.Lock()
	q.items = append(q.items, value)
	q.pushed++
	q.mu.Unlock()

	q.cond.Signal()
}

// PushAll inserts the given values at the tail of the queue, preserving their
// order, within a single exclusive section. One waiter is woken per value.
func (q *ConcurrentQueue[T]) PushAll(values ...T) {
	q.copyCheck()

	if len(values) == 0 {
		return
	}

	q.mu.Lock()
	q.items = append(q.items, values...)
	q.pushed += uint64(len(values))
	q.mu.Unlock()

	for range values {
		q.cond.Signal()
	}
}

// TryPop removes and returns the head of the queue without blocking. The
// boolean is false (and the value the zero value) when the queue is empty.
func (q *ConcurrentQueue[T]) TryPop() (T, bool) { //nolint:ireturn
	q.copyCheck()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		var zeroVal T

		return zeroVal, false
	}

	return q.popLocked(), true
}

// TryPopPtr is the pointer-returning variant of [ConcurrentQueue.TryPop]. It
// returns nil when the queue is empty. The returned cell is allocated before
// the head is removed, so a failing allocation leaves the queue untouched.
func (q *ConcurrentQueue[T]) TryPopPtr() *T {
	q.copyCheck()

	cell := new(T)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		return nil
	}

	*cell = q.popLocked()

	return cell
}

// WaitAndPop blocks until an element is available, then removes and returns
// the head of the queue. An error is only returned when the context ends
// before an element became available, in which case the queue is unchanged.
func (q *ConcurrentQueue[T]) WaitAndPop(ctx context.Context) (T, error) { //nolint:ireturn
	return q.waitAndPop(ctx, nil)
}

// WaitAndPopPtr is the pointer-returning variant of
// [ConcurrentQueue.WaitAndPop].
func (q *ConcurrentQueue[T]) WaitAndPopPtr(ctx context.Context) (*T, error) {
	cell := new(T)

	item, err := q.waitAndPop(ctx, nil)
	if err != nil {
		return nil, err
	}
	*cell = item

	return cell, nil
}

// WaitAndPopTimeout is the bounded-wait variant of [ConcurrentQueue.WaitAndPop].
// The boolean is false when no element became available within the timeout.
func (q *ConcurrentQueue[T]) WaitAndPopTimeout(timeout time.Duration) (T, bool) { //nolint:ireturn
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	item, err := q.waitAndPop(ctx, nil)
	if err != nil {
		return item, false
	}

	return item, true
}

// WaitAndPopUntil blocks until an element is available or the [ShutdownFlag]
// is set. Elements still queued are always returned first: [ErrShutdown] is
// only returned once the flag is set and the queue is empty. A context error
// is returned if the context ends first.
func (q *ConcurrentQueue[T]) WaitAndPopUntil(ctx context.Context, shutdown *ShutdownFlag) (T, error) { //nolint:ireturn
	return q.waitAndPop(ctx, shutdown)
}

// IsEmpty returns whether the queue is empty at the time of the call. The
// result may be outdated as soon as it is returned.
func (q *ConcurrentQueue[T]) IsEmpty() bool {
	return q.Size() == 0
}

// Size returns the number of queued elements at the time of the call. The
// result may be outdated as soon as it is returned.
func (q *ConcurrentQueue[T]) Size() int {
	q.copyCheck()

	q.mu.Lock()
	defer q.mu.Unlock()

	return q.lenLocked()
}

// Pushed returns the number of elements ever pushed onto the queue.
func (q *ConcurrentQueue[T]) Pushed() uint64 {
	q.copyCheck()

	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pushed
}

// Popped returns the number of elements ever removed from the queue.
func (q *ConcurrentQueue[T]) Popped() uint64 {
	q.copyCheck()

	q.mu.Lock()
	defer q.mu.Unlock()

	return q.popped
}

func (q *ConcurrentQueue[T]) waitAndPop(ctx context.Context, shutdown *ShutdownFlag) (T, error) { //nolint:ireturn
	q.copyCheck()

	var zeroVal T

	// Wakers take the mutex before broadcasting, so a waiter that checked the
	// predicate under the mutex is either already waiting or sees the change.
	stopCtx := context.AfterFunc(ctx, q.wakeAll)
	defer stopCtx()

	if shutdown != nil {
		stopShutdown := shutdown.AfterSet(q.wakeAll)
		defer stopShutdown()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 {
		if err := ctx.Err(); err != nil {
			return zeroVal, err
		}
		if shutdown != nil && shutdown.IsSet() {
			return zeroVal, ErrShutdown
		}
		q.cond.Wait()
	}

	return q.popLocked(), nil
}

func (q *ConcurrentQueue[T]) wakeAll() {
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *ConcurrentQueue[T]) lenLocked() int {
	return len(q.items) - q.head
}

// popLocked expects a non-empty queue and the mutex to be held.
func (q *ConcurrentQueue[T]) popLocked() T { //nolint:ireturn
	var zeroVal T

	item := q.items[q.head]
	q.items[q.head] = zeroVal
	q.head++
	q.popped++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0

	case q.head >= compactThreshold && q.head >= q.lenLocked():
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return item
}
