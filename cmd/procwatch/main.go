package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/desertwitch/procwatch/internal/configuration"
	"github.com/desertwitch/procwatch/internal/process"
	"github.com/desertwitch/procwatch/internal/queue"
	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/desertwitch/procwatch/internal/security"
	"github.com/desertwitch/procwatch/internal/ui"
)

const (
	stackTraceBufMax = 1 << 24

	// uiReadyPollInterval is the interval at which the [App] checks for the
	// user interface to be ready, before starting its work.
	uiReadyPollInterval = 10 * time.Millisecond
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string
)

func setupLogging(level slog.Leveler) *SlogManager {
	logManager := NewSlogManager()
	logManager.AddHandler(terminalLogHandler, newTintHandler(os.Stdout, level, false))

	slog.SetDefault(slog.New(logManager))

	return logManager
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()

	sigChan3 := make(chan os.Signal, 1)
	signal.Notify(sigChan3, syscall.SIGUSR2)
	go func() {
		for range sigChan3 {
			runtime.GC()
		}
	}()
}

func startApp(ctx context.Context, app *App) error {
	if app.uiHandler != nil {
		slog.Info("Waiting for UI...")

		ticker := time.NewTicker(uiReadyPollInterval)
		defer ticker.Stop()

		for !app.uiHandler.Initialized.Load() && !app.uiHandler.Failed.Load() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}

	if _, err := app.Launch(ctx); err != nil {
		if app.uiHandler != nil {
			app.uiHandler.Quit()
		}

		return err
	}

	if app.uiHandler != nil && !app.uiHandler.Failed.Load() {
		slog.Info("Finished, press q to exit the UI.")
	}

	return nil
}

func startUI(wg *sync.WaitGroup, app *App, logManager *SlogManager, level slog.Leveler) {
	defer wg.Done()

	logManager.AddHandler(uiLogHandler, newTintHandler(app.uiHandler.LogWriter, level, false))
	logManager.RemoveHandler(terminalLogHandler)

	err := app.LaunchUI()

	logManager.AddHandler(terminalLogHandler, newTintHandler(os.Stdout, level, false))
	logManager.RemoveHandler(uiLogHandler)

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("UI failure: falling back to terminal.", "err", err)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, flags *cliFlags, logManager *SlogManager, level slog.Leveler) error {
	osProvider := &schema.OS{}
	unixProvider := &schema.Unix{}
	configHandler := configuration.NewHandler(&configuration.GodotenvProvider{})

	var configFiles []string
	if flags.configFile != "" {
		configFiles = append(configFiles, flags.configFile)
	}

	config, err := configHandler.ReadApp(configFiles...)
	if err != nil {
		return fmt.Errorf("(main) failed to read configuration: %w", err)
	}

	flags.apply(flag.CommandLine, config)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("(main) invalid configuration: %w", err)
	}

	procRoot := config.ProcRoot
	if procRoot == "" {
		procRoot = process.DefaultProcRoot
	}

	processHandler := process.NewHandler(osProvider, procRoot)
	openFiles := process.NewOpenFilesIndex(osProvider, procRoot)

	securityHandler, err := security.NewHandler(osProvider, unixProvider, config.HashAlgorithm)
	if err != nil {
		return fmt.Errorf("(main) failed to establish security handler: %w", err)
	}

	queueManager := queue.NewManager()

	var uiHandler *ui.Handler
	var out io.Writer = os.Stdout
	var outBuf bytes.Buffer

	if config.UI {
		uiHandler = ui.NewHandler(ctx, cancel, queueManager)
		out = &outBuf
	}

	app := NewApp(config, processHandler, securityHandler, openFiles, queueManager, uiHandler, out)

	var wg sync.WaitGroup
	var appErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		appErr = startApp(ctx, app)
	}()

	if uiHandler != nil {
		wg.Add(1)
		go startUI(&wg, app, logManager, level)
	}

	wg.Wait()

	if uiHandler != nil {
		_, _ = os.Stdout.Write(outBuf.Bytes())
	}

	return appErr
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flags := registerFlags(flag.CommandLine)
	flag.Parse()

	level := new(slog.LevelVar)
	if flags.debug {
		level.Set(slog.LevelDebug)
	}

	logManager := setupLogging(level)
	setupSignalHandlers(cancel)

	if Version != "" {
		slog.Info("Starting procwatch.", "version", Version)
	}

	memObserver := newMemoryObserver(ctx)
	defer memObserver.Stop()

	cpuProfiler := newProfiler(ctx, cpuProfile, flags.cpuProfile)
	defer cpuProfiler.Stop()

	allocProfiler := newProfiler(ctx, allocProfile, flags.memProfile)
	defer allocProfiler.Stop()

	if err := run(ctx, cancel, flags, logManager, level); err != nil {
		ExitCode = 1

		if errors.Is(err, ErrNoProcesses) {
			slog.Error("No processes could be enumerated.", "err", err)

			return
		}

		slog.Error("Program failure.", "err", err)
	}
}
