package queue

import "errors"

var (
	// ErrShutdown is returned by a waiting pop once the [ShutdownFlag] is set
	// and no more elements are left in the queue.
	ErrShutdown = errors.New("shutdown signaled and queue drained")

	// ErrQueueCopied is the panic value of any [ConcurrentQueue] method called
	// on a copy of a queue instead of the original.
	ErrQueueCopied = errors.New("illegal use of copied concurrent queue")

	// ErrInvalidWorkers occurs when a consumer is started with less than one
	// worker.
	ErrInvalidWorkers = errors.New("invalid number of workers < 1")

	// ErrInvalidInterval occurs when a polling consumer is started with a
	// polling interval that is not positive.
	ErrInvalidInterval = errors.New("invalid polling interval <= 0")
)
