package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/desertwitch/procwatch/internal/configuration"
	"github.com/desertwitch/procwatch/internal/queue"
	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/desertwitch/procwatch/internal/ui"
)

// producerConsumerTasks is the amount of concurrently running pipeline stages.
const producerConsumerTasks = 2

type processProvider interface {
	List(ctx context.Context) ([]schema.ProcessDescriptor, error)
}

type openFilesProvider interface {
	Update(ctx context.Context) error
	Len() int
	IsInUse(path string) bool
	Holders(path string) []int
}

type securityProvider interface {
	Algorithm() string
	IsElevated() bool
	Fingerprint(ctx context.Context, proc schema.ProcessDescriptor) schema.Fingerprint
}

// App is the principal application, wiring the enumeration and fingerprinting
// stages through a [queue.ConcurrentQueue].
type App struct {
	config          *configuration.AppConfiguration
	processHandler  processProvider
	securityHandler securityProvider
	openFiles       openFilesProvider
	queueManager    *queue.Manager
	uiHandler       *ui.Handler
	out             io.Writer
}

// NewApp returns a pointer to a new [App]. The openFiles and uiHandler may be
// nil, in which case open files are not indexed or the application runs
// without a user interface.
func NewApp(config *configuration.AppConfiguration,
	processHandler processProvider,
	securityHandler securityProvider,
	openFiles openFilesProvider,
	queueManager *queue.Manager,
	uiHandler *ui.Handler,
	out io.Writer,
) *App {
	return &App{
		config:          config,
		processHandler:  processHandler,
		securityHandler: securityHandler,
		openFiles:       openFiles,
		queueManager:    queueManager,
		uiHandler:       uiHandler,
		out:             out,
	}
}

// Launch runs the application to completion and returns its [Report].
// [ErrNoProcesses] is returned if the enumeration yielded no processes.
func (app *App) Launch(ctx context.Context) (*Report, error) {
	start := time.Now()

	if app.securityHandler.IsElevated() {
		slog.Info("Running with elevated privileges.")
	} else {
		slog.Warn("Running without elevated privileges, some executables may not be fingerprinted.")
	}

	processes, err := app.processHandler.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("(app-enum) %w", err)
	}

	if len(processes) == 0 {
		return nil, fmt.Errorf("(app-enum) %w", ErrNoProcesses)
	}

	slog.Info("Enumerated running processes.", "count", len(processes))
	printProcesses(app.out, processes, app.config.DisplayLimit)

	openFiles := app.indexOpenFiles(ctx)

	fingerprints, err := app.Fingerprint(ctx, processes)
	if err != nil {
		return nil, fmt.Errorf("(app) %w", err)
	}

	report := NewReport(app.securityHandler.Algorithm(), processes, fingerprints, time.Since(start))
	report.OpenFiles = openFiles
	report.HeldOpen = app.countHeldOpen(fingerprints)
	printSummary(app.out, report)

	return report, nil
}

// Fingerprint hands the processes from a producer to the configured consumers
// through a [queue.ConcurrentQueue], fingerprinting every process executable.
// The results are returned sorted by process ID.
func (app *App) Fingerprint(ctx context.Context, processes []schema.ProcessDescriptor) ([]schema.Fingerprint, error) {
	workQueue := queue.NewConcurrentQueue[schema.ProcessDescriptor]()
	shutdown := queue.NewShutdownFlag()

	consumer := queue.NewConsumer(workQueue, shutdown, app.queueManager.Fingerprinting)
	consumer.Statistics().AddTotal(len(processes))

	var resultsMu sync.Mutex
	results := make([]schema.Fingerprint, 0, len(processes))

	processFunc := func(proc schema.ProcessDescriptor) queue.Decision {
		fp := app.securityHandler.Fingerprint(ctx, proc)

		resultsMu.Lock()
		results = append(results, fp)
		resultsMu.Unlock()

		if !fp.OK() {
			slog.Debug("Skipped fingerprinting process.",
				"pid", proc.PID(),
				"name", proc.Name(),
				"err", fp.Err,
			)

			return queue.DecisionSkipped
		}

		if app.openFiles != nil {
			if holders := app.openFiles.Holders(proc.Path()); len(holders) > 0 {
				slog.Debug("Fingerprinted executable is held open.",
					"pid", proc.PID(),
					"path", proc.Path(),
					"holders", holders,
				)
			}
		}

		return queue.DecisionSuccess
	}

	tasker := queue.NewTaskManager()

	tasker.Add(func(ctx context.Context) error {
		return queue.ProduceTracked(ctx, workQueue, shutdown, processes, app.queueManager.Enumeration)
	})

	tasker.Add(func(ctx context.Context) error {
		if app.config.ConsumerMode == configuration.ConsumerPolling {
			return consumer.Poll(ctx, app.config.PollInterval, processFunc)
		}

		return consumer.Run(ctx, app.config.Workers, processFunc)
	})

	if err := tasker.LaunchConcAndWait(ctx, producerConsumerTasks); err != nil {
		return nil, fmt.Errorf("(app-fingerprint) %w", err)
	}

	slices.SortFunc(results, func(a, b schema.Fingerprint) int {
		return cmp.Compare(a.Process.PID(), b.Process.PID())
	})

	return results, nil
}

// indexOpenFiles returns the amount of distinct paths held open by running
// processes, or -1 if open files are not indexed.
func (app *App) indexOpenFiles(ctx context.Context) int {
	if app.openFiles == nil {
		return -1
	}

	if err := app.openFiles.Update(ctx); err != nil {
		slog.Warn("Failed to index open files.", "err", err)

		return -1
	}

	return app.openFiles.Len()
}

// countHeldOpen returns the amount of fingerprinted executables held open by
// any process, or -1 if open files are not indexed.
func (app *App) countHeldOpen(fingerprints []schema.Fingerprint) int {
	if app.openFiles == nil {
		return -1
	}

	var n int
	for _, fp := range fingerprints {
		if fp.OK() && app.openFiles.IsInUse(fp.Process.Path()) {
			n++
		}
	}

	return n
}

// LaunchUI launches the user interface, blocking until it exits.
func (app *App) LaunchUI() error {
	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}
