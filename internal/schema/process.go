package schema

import "fmt"

// ProcessDescriptor describes a single process of a process snapshot. It is an
// immutable value type and is meant to be passed by value, e.g. through a work
// queue.
type ProcessDescriptor struct {
	pid       int
	name      string
	path      string
	parentPID int
}

// NewProcessDescriptor returns a new [ProcessDescriptor]. The path may be
// empty if the executable of the process could not be resolved.
func NewProcessDescriptor(pid int, name string, path string, parentPID int) ProcessDescriptor {
	return ProcessDescriptor{
		pid:       pid,
		name:      name,
		path:      path,
		parentPID: parentPID,
	}
}

// PID returns the process identifier.
func (p ProcessDescriptor) PID() int {
	return p.pid
}

// Name returns the process (command) name.
func (p ProcessDescriptor) Name() string {
	return p.name
}

// Path returns the absolute path of the process executable, or an empty string
// if it could not be resolved.
func (p ProcessDescriptor) Path() string {
	return p.path
}

// ParentPID returns the process identifier of the parent process.
func (p ProcessDescriptor) ParentPID() int {
	return p.parentPID
}

// HasPath returns whether the executable path of the process is known.
func (p ProcessDescriptor) HasPath() bool {
	return p.path != ""
}

// String returns a human-readable representation of the [ProcessDescriptor].
func (p ProcessDescriptor) String() string {
	return fmt.Sprintf("PID: %d, Name: %s, Parent: %d", p.pid, p.name, p.parentPID)
}
