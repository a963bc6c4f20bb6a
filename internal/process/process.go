// Package process implements the enumeration of running processes from a
// procfs snapshot.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/desertwitch/procwatch/internal/schema"
)

// DefaultProcRoot is the mount point of the procfs on Linux systems.
const DefaultProcRoot = "/proc"

type osProvider interface {
	ReadDir(name string) ([]os.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	Readlink(name string) (string, error)
}

// Handler is the principal implementation of the process enumeration.
type Handler struct {
	osHandler osProvider
	procRoot  string
}

// NewHandler returns a pointer to a new process [Handler]. An empty procRoot
// defaults to [DefaultProcRoot].
func NewHandler(osHandler osProvider, procRoot string) *Handler {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}

	return &Handler{
		osHandler: osHandler,
		procRoot:  procRoot,
	}
}

// List returns a snapshot of all running processes, ordered by process
// identifier. Processes exiting while the snapshot is taken are left out. An
// error is only returned if the process table itself cannot be read or the
// context is cancelled, an empty result is not an error.
func (h *Handler) List(ctx context.Context) ([]schema.ProcessDescriptor, error) {
	entries, err := h.osHandler.ReadDir(h.procRoot)
	if err != nil {
		return nil, fmt.Errorf("(process-list) failed to read proc root: %w", err)
	}

	processes := []schema.ProcessDescriptor{}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("(process-list) %w", ctx.Err())
		}

		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		proc, err := h.Get(pid)
		if err != nil {
			if !errors.Is(err, ErrProcessNotFound) {
				slog.Debug("Skipped process during enumeration.",
					"pid", pid,
					"err", err,
				)
			}

			continue
		}

		processes = append(processes, proc)
	}

	slices.SortFunc(processes, func(a, b schema.ProcessDescriptor) int {
		return a.PID() - b.PID()
	})

	return processes, nil
}

// ListOrEmpty is a variant of [Handler.List] that does not distinguish between
// a failure and an empty process table, returning an empty slice for both.
func (h *Handler) ListOrEmpty(ctx context.Context) []schema.ProcessDescriptor {
	processes, err := h.List(ctx)
	if err != nil {
		slog.Warn("Process enumeration failed.",
			"err", err,
		)

		return []schema.ProcessDescriptor{}
	}

	return processes
}

// Get returns the [schema.ProcessDescriptor] for a single process. The path of
// the descriptor is left empty if the executable cannot be resolved, which is
// common for kernel threads or when lacking privileges.
func (h *Handler) Get(pid int) (schema.ProcessDescriptor, error) {
	procDir := filepath.Join(h.procRoot, strconv.Itoa(pid))

	data, err := h.osHandler.ReadFile(filepath.Join(procDir, "stat"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schema.ProcessDescriptor{}, fmt.Errorf("(process-get) %w: %d", ErrProcessNotFound, pid)
		}

		return schema.ProcessDescriptor{}, fmt.Errorf("(process-get) failed to read stat: %w", err)
	}

	name, ppid, err := parseStat(data)
	if err != nil {
		return schema.ProcessDescriptor{}, fmt.Errorf("(process-get) pid %d: %w", pid, err)
	}

	path, err := h.osHandler.Readlink(filepath.Join(procDir, "exe"))
	if err != nil {
		path = ""
	}

	return schema.NewProcessDescriptor(pid, name, path, ppid), nil
}

// parseStat extracts the command name and the parent process identifier from
// a procfs stat record ("pid (comm) state ppid ..."). The command name may
// itself contain spaces and parentheses, so it is delimited by the first
// opening and the last closing parenthesis.
func parseStat(data []byte) (string, int, error) {
	open := bytes.IndexByte(data, '(')
	closing := bytes.LastIndexByte(data, ')')

	if open < 0 || closing < open {
		return "", 0, ErrMalformedStat
	}

	name := string(data[open+1 : closing])

	fields := bytes.Fields(data[closing+1:])
	if len(fields) < 2 { //nolint:mnd
		return "", 0, ErrMalformedStat
	}

	ppid, err := strconv.Atoi(string(fields[1]))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrMalformedStat, err)
	}

	return name, ppid, nil
}
