package main

import (
	"context"
	"log/slog"
	"os"
	"runtime/pprof"
)

// profileKind selects what a [profiler] records.
type profileKind int

const (
	// cpuProfile records a CPU profile for the lifetime of the [profiler].
	cpuProfile profileKind = iota

	// allocProfile writes the allocations profile when the [profiler] stops.
	allocProfile
)

// profiler writes a [pprof] profile to a file. An empty path disables it.
//
//nolint:containedctx
type profiler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	doneChan chan struct{}
}

// newProfiler returns a pointer to a new, started [profiler]. It needs to be
// stopped with [profiler.Stop] before program exit, for the profile to be
// written out completely.
func newProfiler(ctx context.Context, kind profileKind, path string) *profiler {
	prof := &profiler{
		doneChan: make(chan struct{}),
	}
	prof.ctx, prof.cancel = context.WithCancel(ctx)

	go prof.profile(kind, path)

	return prof
}

func (prof *profiler) profile(kind profileKind, path string) {
	defer close(prof.doneChan)

	if path == "" {
		return
	}

	if kind == allocProfile {
		<-prof.ctx.Done()
	}

	f, err := os.Create(path)
	if err != nil {
		slog.Error("Could not create profile.", "path", path, "err", err)

		return
	}
	defer f.Close()

	switch kind {
	case cpuProfile:
		if err := pprof.StartCPUProfile(f); err != nil {
			slog.Error("Could not start cpu profile.", "path", path, "err", err)

			return
		}
		defer pprof.StopCPUProfile()

		<-prof.ctx.Done()

	case allocProfile:
		if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
			slog.Error("Could not write allocs profile.", "path", path, "err", err)
		}
	}
}

// Stop ends the profiling and waits for the profile to be written.
func (prof *profiler) Stop() {
	prof.cancel()
	<-prof.doneChan
}
