package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeProc creates a procfs-like entry for a process below root.
func writeFakeProc(t *testing.T, root string, pid int, stat string, exe string) {
	t.Helper()

	dir := filepath.Join(root, strconv.Itoa(pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644))

	if exe != "" {
		require.NoError(t, os.Symlink(exe, filepath.Join(dir, "exe")))
	}
}

// failingOS is an osProvider whose directory listing always fails.
type failingOS struct {
	schema.OS
}

func (*failingOS) ReadDir(string) ([]os.DirEntry, error) {
	return nil, os.ErrPermission
}

// TestParseStat_Table tests parsing of procfs stat records.
func TestParseStat_Table(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		wantName string
		wantPPID int
		wantErr  bool
	}{
		{"Success_Simple", "1 (systemd) S 0 1 1 0 -1", "systemd", 0, false},
		{"Success_Spaces", "123 (Web Content) S 99 123 1", "Web Content", 99, false},
		{"Success_Parentheses", "7 (a) (b)) R 5 7 7", "a) (b)", 5, false},
		{"Success_Empty", "8 () S 2 0 0", "", 2, false},
		{"Fail_NoParentheses", "1 systemd S 0", "", 0, true},
		{"Fail_Truncated", "1 (systemd) S", "", 0, true},
		{"Fail_BadPPID", "1 (systemd) S x 1", "", 0, true},
		{"Fail_Empty", "", "", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			name, ppid, err := parseStat([]byte(tc.input))
			if tc.wantErr {
				require.ErrorIs(t, err, ErrMalformedStat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantPPID, ppid)
		})
	}
}

// TestNewHandler_DefaultRoot tests the default proc root.
func TestNewHandler_DefaultRoot(t *testing.T) {
	t.Parallel()

	h := NewHandler(&schema.OS{}, "")
	assert.Equal(t, DefaultProcRoot, h.procRoot)
}

// TestList_Success tests enumeration of a fake process table.
func TestList_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFakeProc(t, root, 1, "1 (init) S 0 1 1", "/sbin/init")
	writeFakeProc(t, root, 10, "10 (bash) S 1 10 10", "/usr/bin/bash")
	writeFakeProc(t, root, 2, "2 (kthreadd) S 0 0 0", "")

	// Noise which must be ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sys"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uptime"), []byte("1 1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "99"), 0o755))
	writeFakeProc(t, root, 77, "garbage", "")

	h := NewHandler(&schema.OS{}, root)

	processes, err := h.List(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []schema.ProcessDescriptor{
		schema.NewProcessDescriptor(1, "init", "/sbin/init", 0),
		schema.NewProcessDescriptor(2, "kthreadd", "", 0),
		schema.NewProcessDescriptor(10, "bash", "/usr/bin/bash", 1),
	}, processes)

	assert.Equal(t, processes, h.ListOrEmpty(t.Context()))
}

// TestList_Success_Empty tests that an empty process table is not an error.
func TestList_Success_Empty(t *testing.T) {
	t.Parallel()

	h := NewHandler(&schema.OS{}, t.TempDir())

	processes, err := h.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, processes)
	assert.NotNil(t, processes)
}

// TestList_Fail_ReadDir tests failures reading the process table.
func TestList_Fail_ReadDir(t *testing.T) {
	t.Parallel()

	h := NewHandler(&failingOS{}, "/proc")

	processes, err := h.List(t.Context())
	require.ErrorIs(t, err, os.ErrPermission)
	assert.Nil(t, processes)

	assert.Empty(t, h.ListOrEmpty(t.Context()))
	assert.NotNil(t, h.ListOrEmpty(t.Context()))
}

// TestList_Fail_CtxCancel tests that a cancelled enumeration returns an
// error.
func TestList_Fail_CtxCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFakeProc(t, root, 1, "1 (init) S 0 1 1", "")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	h := NewHandler(&schema.OS{}, root)

	_, err := h.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// TestGet_Fail_NotFound tests looking up a process that does not exist.
func TestGet_Fail_NotFound(t *testing.T) {
	t.Parallel()

	h := NewHandler(&schema.OS{}, t.TempDir())

	_, err := h.Get(12345)
	require.ErrorIs(t, err, ErrProcessNotFound)
}

// TestGet_Live tests looking up the test process itself on a real procfs.
func TestGet_Live(t *testing.T) {
	t.Parallel()

	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no procfs available")
	}

	h := NewHandler(&schema.OS{}, "")

	proc, err := h.Get(os.Getpid())
	require.NoError(t, err)

	assert.Equal(t, os.Getpid(), proc.PID())
	assert.Equal(t, os.Getppid(), proc.ParentPID())
	assert.NotEmpty(t, proc.Name())

	exe, err := os.Executable()
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(exe)
	require.NoError(t, err)
	assert.Equal(t, resolved, proc.Path())
}

var errSentinel = errors.New("sentinel")

// TestGet_Fail_ReadError tests that unexpected read errors are wrapped.
func TestGet_Fail_ReadError(t *testing.T) {
	t.Parallel()

	h := NewHandler(&errorOS{err: errSentinel}, "/proc")

	_, err := h.Get(1)
	require.ErrorIs(t, err, errSentinel)
	require.NotErrorIs(t, err, ErrProcessNotFound)
}

// errorOS is an osProvider whose file reads always fail with err.
type errorOS struct {
	schema.OS
	err error
}

func (e *errorOS) ReadFile(string) ([]byte, error) {
	return nil, e.err
}
