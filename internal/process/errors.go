package process

import "errors"

var (
	// ErrProcessNotFound occurs when a process is no longer (or was never)
	// present in the process table.
	ErrProcessNotFound = errors.New("process not found")

	// ErrMalformedStat occurs when the stat record of a process cannot be
	// parsed.
	ErrMalformedStat = errors.New("malformed process stat record")
)
