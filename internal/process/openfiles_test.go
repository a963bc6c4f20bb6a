package process

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeFds creates a procfs-like file descriptor table for a process
// below root, with one descriptor per target.
func writeFakeFds(t *testing.T, root string, pid int, targets ...string) {
	t.Helper()

	dir := filepath.Join(root, strconv.Itoa(pid), "fd")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for i, target := range targets {
		require.NoError(t, os.Symlink(target, filepath.Join(dir, strconv.Itoa(i))))
	}
}

// TestOpenFilesIndex_Update_Success tests that the index maps every open path
// to its sorted holders.
func TestOpenFilesIndex_Update_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFakeFds(t, root, 42, "/var/log/syslog", "/dev/null", "/dev/null")
	writeFakeFds(t, root, 7, "/dev/null")
	writeFakeFds(t, root, 9)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "self"), 0o755))

	idx := NewOpenFilesIndex(&schema.OS{}, root)
	require.NoError(t, idx.Update(t.Context()))

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []int{7, 42}, idx.Holders("/dev/null"))
	assert.Equal(t, []int{42}, idx.Holders("/var/log/syslog"))
	assert.True(t, idx.IsInUse("/var/log/syslog"))
	assert.False(t, idx.IsInUse("/etc/passwd"))
	assert.Nil(t, idx.Holders("/etc/passwd"))
}

// TestOpenFilesIndex_Update_Replaces tests that an update replaces, rather
// than extends, the previous index.
func TestOpenFilesIndex_Update_Replaces(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFakeFds(t, root, 1, "/tmp/a")

	idx := NewOpenFilesIndex(&schema.OS{}, root)
	require.NoError(t, idx.Update(t.Context()))
	require.True(t, idx.IsInUse("/tmp/a"))

	require.NoError(t, os.RemoveAll(filepath.Join(root, "1")))
	writeFakeFds(t, root, 2, "/tmp/b")

	require.NoError(t, idx.Update(t.Context()))
	assert.False(t, idx.IsInUse("/tmp/a"))
	assert.True(t, idx.IsInUse("/tmp/b"))
}

// TestOpenFilesIndex_Update_Fail_ReadDir tests that an unreadable proc root
// is an error and leaves the index untouched.
func TestOpenFilesIndex_Update_Fail_ReadDir(t *testing.T) {
	t.Parallel()

	idx := NewOpenFilesIndex(&failingOS{}, "/proc")

	require.ErrorIs(t, idx.Update(t.Context()), os.ErrPermission)
	assert.Zero(t, idx.Len())
}

// TestOpenFilesIndex_Update_Fail_CtxCancel tests that a cancelled update
// returns the context error.
func TestOpenFilesIndex_Update_Fail_CtxCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFakeFds(t, root, 1, "/tmp/a")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	idx := NewOpenFilesIndex(&schema.OS{}, root)
	require.ErrorIs(t, idx.Update(ctx), context.Canceled)
}

// TestOpenFilesIndex_Update_Live tests the index against the running system,
// where the test binary holds at least its standard descriptors.
func TestOpenFilesIndex_Update_Live(t *testing.T) {
	t.Parallel()

	if _, err := os.Stat("/proc/self/fd"); err != nil {
		t.Skip("no procfs available")
	}

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	f, err := os.Open(dir)
	require.NoError(t, err)
	defer f.Close()

	idx := NewOpenFilesIndex(&schema.OS{}, "")
	require.NoError(t, idx.Update(t.Context()))

	assert.Positive(t, idx.Len())
	assert.Contains(t, idx.Holders(dir), os.Getpid())
}
