package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/stretchr/testify/assert"
)

// TestNewReport_Success tests the aggregation of fingerprint results.
func TestNewReport_Success(t *testing.T) {
	t.Parallel()

	procs := []schema.ProcessDescriptor{
		schema.NewProcessDescriptor(1, "init", "/sbin/init", 0),
		schema.NewProcessDescriptor(2, "kthreadd", "", 0),
		schema.NewProcessDescriptor(3, "sshd", "/usr/sbin/sshd", 1),
	}

	fps := []schema.Fingerprint{
		{Process: procs[0], Digest: "a", Size: 2048},
		{Process: procs[1], Err: errors.New("no path")},
		{Process: procs[2], Digest: "b", Size: 1 << 20},
	}

	report := NewReport("sha256", procs, fps, 1500*time.Millisecond)

	assert.Equal(t, 3, report.Processes)
	assert.Equal(t, 2, report.WithPath)
	assert.Equal(t, 2, report.Hashed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, uint64(2048+1<<20), report.HashedBytes)

	var buf bytes.Buffer
	printSummary(&buf, report)

	assert.Contains(t, buf.String(), "Fingerprinted 2 of 3 processes (2 with a readable executable path) using sha256.")
	assert.Contains(t, buf.String(), "Hashed 1.0 MiB in 1.5s, 1 could not be fingerprinted.")
}
