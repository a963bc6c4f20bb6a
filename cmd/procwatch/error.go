package main

import "errors"

// ErrNoProcesses occurs when the enumeration yielded no processes at all.
var ErrNoProcesses = errors.New("no processes enumerated")
