package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// TaskManager is a simple task manager for delayed function execution. It is
// used to run the producer and consumer stages of a pipeline side by side.
type TaskManager struct {
	sync.Mutex
	Tasks []func(context.Context) error
}

// NewTaskManager returns a pointer to a new [TaskManager].
func NewTaskManager() *TaskManager {
	return &TaskManager{
		Tasks: []func(context.Context) error{},
	}
}

// Add adds a new taskedFunc to the [TaskManager].
func (t *TaskManager) Add(taskedFunc func(context.Context) error) {
	t.Lock()
	defer t.Unlock()

	t.Tasks = append(t.Tasks, taskedFunc)
}

// Launch sequentially launches the functions stored in a [TaskManager],
// stopping at the first failing function or a context cancellation.
func (t *TaskManager) Launch(ctx context.Context) error {
	t.Lock()
	defer t.Unlock()

	for _, task := range t.Tasks {
		if ctx.Err() != nil {
			return fmt.Errorf("(queue-tasker) %w", ctx.Err())
		}

		if err := task(ctx); err != nil {
			return fmt.Errorf("(queue-tasker) %w", err)
		}
	}

	return nil
}

// LaunchConcAndWait concurrently launches the functions stored in a
// [TaskManager], with at most maxWorkers running at the same time, and waits
// for all of them. The errors of all failed functions are joined.
//
// It is the responsibility of the taskedFunc to ensure thread-safety for
// anything happening inside the taskedFunc, with the [TaskManager] only
// guaranteeing thread-safety for itself.
func (t *TaskManager) LaunchConcAndWait(ctx context.Context, maxWorkers int) error {
	t.Lock()
	defer t.Unlock()

	if maxWorkers < 1 {
		return fmt.Errorf("(queue-tasker-conc) %w: %d", ErrInvalidWorkers, maxWorkers)
	}

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error

	semaphore := make(chan struct{}, maxWorkers)

	for _, task := range t.Tasks {
		select {
		case <-ctx.Done():
			wg.Wait()
			errs = append(errs, ctx.Err())

			return fmt.Errorf("(queue-tasker-conc) %w", errors.Join(errs...))
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(task func(context.Context) error) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := task(ctx); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(task)
	}

	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("(queue-tasker-conc) %w", errors.Join(errs...))
	}

	return nil
}
