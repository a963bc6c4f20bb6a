package queue

// Manager groups the [Statistics] of the program's processing stages, for
// consumption by e.g. a user interface.
type Manager struct {
	// Enumeration tracks discovered processes being pushed onto the work queue.
	Enumeration *Statistics

	// Fingerprinting tracks work items being consumed and fingerprinted.
	Fingerprinting *Statistics
}

// NewManager returns a pointer to a new [Manager].
func NewManager() *Manager {
	return &Manager{
		Enumeration:    NewStatistics(),
		Fingerprinting: NewStatistics(),
	}
}
