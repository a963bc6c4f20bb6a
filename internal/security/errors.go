package security

import "errors"

var (
	// ErrUnsupportedAlgorithm occurs when a [Handler] is configured with an
	// unknown hash algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

	// ErrNoExecutablePath occurs when a process without a known executable
	// path is attempted to be fingerprinted.
	ErrNoExecutablePath = errors.New("process has no executable path")

	// ErrNotRegularFile occurs when a path to be hashed does not point to a
	// regular file.
	ErrNotRegularFile = errors.New("not a regular file")
)
