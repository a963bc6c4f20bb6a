// Package schema provides the principal schematics for all other packages. It
// defines the process and fingerprint value types, the operating system
// interfaces and implementations wrapping the (Unix-based) operating system
// calls used by the collaborators. The package serves as a foundational layer
// for process and filesystem interactions throughout the codebase.
package schema
