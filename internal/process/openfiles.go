package process

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
)

// OpenFilesIndex caches the paths held open by running processes, as listed
// in their procfs file descriptor tables. This allows for fast lookups of
// the processes holding a path, without querying the OS for every lookup.
type OpenFilesIndex struct {
	sync.RWMutex
	osHandler  osProvider
	procRoot   string
	holders    map[string][]int
	isUpdating atomic.Bool
}

// NewOpenFilesIndex returns a pointer to a new, empty [OpenFilesIndex]. An
// empty procRoot defaults to [DefaultProcRoot].
func NewOpenFilesIndex(osHandler osProvider, procRoot string) *OpenFilesIndex {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}

	return &OpenFilesIndex{
		osHandler: osHandler,
		procRoot:  procRoot,
		holders:   make(map[string][]int),
	}
}

// Holders returns the sorted identifiers of all processes holding the path
// open, as of the last update.
func (idx *OpenFilesIndex) Holders(path string) []int {
	idx.RLock()
	defer idx.RUnlock()

	return slices.Clone(idx.holders[path])
}

// IsInUse returns whether any process held the path open, as of the last
// update.
func (idx *OpenFilesIndex) IsInUse(path string) bool {
	idx.RLock()
	defer idx.RUnlock()

	_, exists := idx.holders[path]

	return exists
}

// Len returns the amount of distinct paths held open, as of the last update.
func (idx *OpenFilesIndex) Len() int {
	idx.RLock()
	defer idx.RUnlock()

	return len(idx.holders)
}

// Update rebuilds the index from the file descriptor tables of all running
// processes. Tables which cannot be read, e.g. for lack of privileges, are
// left out. Since this is a time and resource intensive operation, it is a
// no-op with another update in progress.
func (idx *OpenFilesIndex) Update(ctx context.Context) error {
	if !idx.isUpdating.CompareAndSwap(false, true) {
		return nil
	}
	defer idx.isUpdating.Store(false)

	procEntries, err := idx.osHandler.ReadDir(idx.procRoot)
	if err != nil {
		return fmt.Errorf("(process-openfiles) failed to read proc root: %w", err)
	}

	holders := make(map[string][]int)

	for _, procEntry := range procEntries {
		if ctx.Err() != nil {
			return fmt.Errorf("(process-openfiles) %w", ctx.Err())
		}

		pid, err := strconv.Atoi(procEntry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		fdPath := filepath.Join(idx.procRoot, procEntry.Name(), "fd")

		fdEntries, err := idx.osHandler.ReadDir(fdPath)
		if err != nil {
			continue
		}

		for _, fdEntry := range fdEntries {
			target, err := idx.osHandler.Readlink(filepath.Join(fdPath, fdEntry.Name()))
			if err != nil {
				continue
			}

			if pids := holders[target]; len(pids) == 0 || pids[len(pids)-1] != pid {
				holders[target] = append(pids, pid)
			}
		}
	}

	for _, pids := range holders {
		slices.Sort(pids)
	}

	idx.Lock()
	idx.holders = holders
	idx.Unlock()

	return nil
}
