package main

import (
	"fmt"
	"io"
	"time"

	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/dustin/go-humanize"
)

// Report summarizes a completed run of the [App].
type Report struct {
	Algorithm    string
	Processes    int
	WithPath     int
	Fingerprints []schema.Fingerprint
	Hashed       int
	Failed       int
	HashedBytes  uint64
	OpenFiles    int
	HeldOpen     int
	Elapsed      time.Duration
}

// NewReport returns a pointer to a new [Report] for the given results.
func NewReport(algorithm string, processes []schema.ProcessDescriptor, fingerprints []schema.Fingerprint, elapsed time.Duration) *Report {
	report := &Report{
		Algorithm:    algorithm,
		Processes:    len(processes),
		Fingerprints: fingerprints,
		OpenFiles:    -1,
		HeldOpen:     -1,
		Elapsed:      elapsed,
	}

	for _, proc := range processes {
		if proc.HasPath() {
			report.WithPath++
		}
	}

	for _, fp := range fingerprints {
		if !fp.OK() {
			report.Failed++

			continue
		}

		report.Hashed++
		report.HashedBytes += fp.Size
	}

	return report
}

// printProcesses writes up to limit processes to the writer, one per line.
func printProcesses(w io.Writer, processes []schema.ProcessDescriptor, limit int) {
	shown := min(limit, len(processes))

	fmt.Fprintf(w, "Running processes (showing %d of %s):\n", shown, humanize.Comma(int64(len(processes))))

	for _, proc := range processes[:shown] {
		fmt.Fprintln(w, proc.String())
	}
}

// printSummary writes the human-readable form of a [Report] to the writer.
func printSummary(w io.Writer, report *Report) {
	fmt.Fprintf(w, "Fingerprinted %s of %s processes (%s with a readable executable path) using %s.\n",
		humanize.Comma(int64(report.Hashed)),
		humanize.Comma(int64(report.Processes)),
		humanize.Comma(int64(report.WithPath)),
		report.Algorithm,
	)

	fmt.Fprintf(w, "Hashed %s in %s, %s could not be fingerprinted.\n",
		humanize.IBytes(report.HashedBytes),
		report.Elapsed.Round(time.Millisecond),
		humanize.Comma(int64(report.Failed)),
	)

	if report.OpenFiles >= 0 {
		fmt.Fprintf(w, "Running processes hold %s distinct files open.\n",
			humanize.Comma(int64(report.OpenFiles)),
		)
	}

	if report.HeldOpen > 0 {
		fmt.Fprintf(w, "%s of the fingerprinted executables are held open by a process.\n",
			humanize.Comma(int64(report.HeldOpen)),
		)
	}
}
