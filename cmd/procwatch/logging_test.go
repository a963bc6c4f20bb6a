package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// TestSlogManager_Handle_Success tests that records are fanned out to all
// registered handlers.
func TestSlogManager_Handle_Success(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("one", newTestLogger(&buf1))
	m.AddHandler("two", newTestLogger(&buf2))

	slog.New(m).Info("hello", "key", "value")

	assert.Contains(t, buf1.String(), "msg=hello key=value")
	assert.Contains(t, buf2.String(), "msg=hello key=value")
}

// TestSlogManager_RemoveHandler_Success tests that removed handlers no longer
// receive records, as when switching from the terminal to the user interface.
func TestSlogManager_RemoveHandler_Success(t *testing.T) {
	t.Parallel()

	var terminal, userInterface bytes.Buffer

	m := NewSlogManager()
	m.AddHandler(terminalLogHandler, newTestLogger(&terminal))
	logger := slog.New(m)

	logger.Info("before")

	m.AddHandler(uiLogHandler, newTestLogger(&userInterface))
	m.RemoveHandler(terminalLogHandler)

	logger.Info("after")

	assert.Contains(t, terminal.String(), "before")
	assert.NotContains(t, terminal.String(), "after")
	assert.Contains(t, userInterface.String(), "after")

	_, ok := m.GetHandler(terminalLogHandler)
	assert.False(t, ok)
}

// TestSlogManager_Enabled_Success tests that the manager is enabled for a
// level if any handler is.
func TestSlogManager_Enabled_Success(t *testing.T) {
	t.Parallel()

	m := NewSlogManager()
	assert.False(t, m.Enabled(t.Context(), slog.LevelError))

	var buf bytes.Buffer
	m.AddHandler("warn", slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	assert.False(t, m.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, m.Enabled(t.Context(), slog.LevelWarn))
}

// TestSlogManager_WithAttrs_Success tests that attributes are applied to both
// existing and later added handlers, without altering the parent manager.
func TestSlogManager_WithAttrs_Success(t *testing.T) {
	t.Parallel()

	var existing, later, parent bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("existing", newTestLogger(&existing))

	child, ok := m.WithAttrs([]slog.Attr{slog.String("stage", "enum")}).(*SlogManager)
	require.True(t, ok)
	child.AddHandler("later", newTestLogger(&later))

	m.AddHandler("parent", newTestLogger(&parent))

	slog.New(child).Info("child")
	slog.New(m).Info("parent")

	assert.Contains(t, existing.String(), "msg=child stage=enum")
	assert.Contains(t, later.String(), "msg=child stage=enum")
	assert.NotContains(t, parent.String(), "stage=enum")
}

// TestSlogManager_WithGroup_Success tests that groups qualify the attributes
// of later records.
func TestSlogManager_WithGroup_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	m := NewSlogManager()
	m.AddHandler("one", newTestLogger(&buf))

	slog.New(m.WithGroup("proc")).Info("grouped", "pid", 1)

	assert.Contains(t, buf.String(), "proc.pid=1")
	assert.Same(t, m, m.WithGroup(""))
}
