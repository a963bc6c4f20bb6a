package queue

import (
	"sync"
	"sync/atomic"
)

// ShutdownFlag is a set-once signal shared between producers and consumers of
// a [ConcurrentQueue]. Producers set it after their final push, consumers stop
// once it is set and the queue has been drained.
//
// The zero value is not usable, a [ShutdownFlag] is created with
// [NewShutdownFlag] and shared by pointer.
type ShutdownFlag struct {
	set  atomic.Bool
	done chan struct{}

	mu        sync.Mutex
	nextID    uint64
	callbacks map[uint64]func()
}

// NewShutdownFlag returns a pointer to a new, unset [ShutdownFlag].
func NewShutdownFlag() *ShutdownFlag {
	return &ShutdownFlag{
		done:      make(chan struct{}),
		callbacks: make(map[uint64]func()),
	}
}

// Set sets the flag and runs all callbacks registered with
// [ShutdownFlag.AfterSet]. Only the first call has an effect, it is also the
// only one to return true.
func (f *ShutdownFlag) Set() bool {
	if !f.set.CompareAndSwap(false, true) {
		return false
	}

	f.mu.Lock()
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	close(f.done)

	for _, cb := range callbacks {
		cb()
	}

	return true
}

// IsSet returns whether the flag was set.
func (f *ShutdownFlag) IsSet() bool {
	return f.set.Load()
}

// Done returns a channel that is closed once the flag is set.
func (f *ShutdownFlag) Done() <-chan struct{} {
	return f.done
}

// AfterSet registers a function to be called once the flag is set. If the flag
// is already set, the function is not registered, as callers are expected to
// check [ShutdownFlag.IsSet] afterwards. The returned stop function
// unregisters the callback and reports whether it was still registered.
func (f *ShutdownFlag) AfterSet(cb func()) func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.set.Load() {
		return func() bool { return false }
	}

	id := f.nextID
	f.nextID++
	f.callbacks[id] = cb

	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()

		if _, ok := f.callbacks[id]; !ok {
			return false
		}
		delete(f.callbacks, id)

		return true
	}
}
