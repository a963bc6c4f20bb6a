package queue

import (
	"sync"
	"time"
)

// Progress is a point-in-time snapshot of a processing stage's progress.
type Progress struct {
	HasStarted        bool
	HasFinished       bool
	StartTime         time.Time
	FinishTime        time.Time
	ProgressPct       float64
	TotalItems        int
	ProcessedItems    int
	InProgressItems   int
	SuccessItems      int
	SkippedItems      int
	RequeuedItems     int
	ETA               time.Time
	TimeLeft          time.Duration
	TransferSpeed     float64
	TransferSpeedUnit string
}

// Statistics records the progress of one processing stage. It is safe for
// concurrent use, usually being written by workers and read by a user
// interface.
type Statistics struct {
	sync.RWMutex
	hasStarted  bool
	hasFinished bool
	startTime   time.Time
	finishTime  time.Time
	total       int
	inProgress  int
	success     int
	skipped     int
	requeued    int
}

// NewStatistics returns a pointer to a new [Statistics].
func NewStatistics() *Statistics {
	return &Statistics{}
}

// AddTotal announces n more items to be processed by the stage.
func (s *Statistics) AddTotal(n int) {
	s.Lock()
	defer s.Unlock()

	s.total += n

	if s.hasFinished && s.success+s.skipped < s.total {
		s.finishTime = time.Time{}
		s.hasFinished = false
	}
}

// SetProcessing marks one item as being in progress. The first call marks the
// stage as started.
func (s *Statistics) SetProcessing() {
	s.Lock()
	defer s.Unlock()

	if !s.hasStarted {
		s.startTime = time.Now()
		s.hasStarted = true
	}

	s.inProgress++
}

// SetSuccess marks one in-progress item as successfully processed.
func (s *Statistics) SetSuccess() {
	s.Lock()
	defer s.Unlock()

	s.inProgress = max(0, s.inProgress-1)
	s.success++
}

// SetSkipped marks one in-progress item as skipped.
func (s *Statistics) SetSkipped() {
	s.Lock()
	defer s.Unlock()

	s.inProgress = max(0, s.inProgress-1)
	s.skipped++
}

// SetRequeued marks one in-progress item as handed back to its queue.
func (s *Statistics) SetRequeued() {
	s.Lock()
	defer s.Unlock()

	s.inProgress = max(0, s.inProgress-1)
	s.requeued++
}

// Finish marks the stage as finished.
func (s *Statistics) Finish() {
	s.Lock()
	defer s.Unlock()

	if !s.hasFinished {
		s.finishTime = time.Now()
		s.hasFinished = true
	}
}

// Progress returns the [Progress] for the [Statistics].
func (s *Statistics) Progress() Progress {
	s.RLock()
	defer s.RUnlock()

	totalItems := s.total
	processedItems := min(s.success+s.skipped, max(totalItems, 0))

	var progressPct float64
	if totalItems > 0 {
		progressPct = float64(processedItems) / float64(totalItems) * 100 //nolint:mnd
		progressPct = max(float64(0), min(progressPct, float64(100)))     //nolint:mnd
	}

	var eta time.Time
	var timeLeft time.Duration
	var transferSpeed float64

	if s.hasStarted && processedItems > 0 && processedItems < totalItems {
		elapsed := time.Since(s.startTime)
		itemsPerSec := float64(processedItems) / max(elapsed.Seconds(), 1)

		if itemsPerSec > 0 {
			remainingItems := totalItems - processedItems
			remainingSeconds := float64(remainingItems) / itemsPerSec
			timeLeft = time.Duration(remainingSeconds * float64(time.Second))
			eta = time.Now().Add(timeLeft)
			transferSpeed = itemsPerSec
		}
	}

	return Progress{
		HasStarted:        s.hasStarted,
		HasFinished:       s.hasFinished,
		StartTime:         s.startTime,
		FinishTime:        s.finishTime,
		ProgressPct:       progressPct,
		TotalItems:        totalItems,
		ProcessedItems:    processedItems,
		InProgressItems:   s.inProgress,
		SuccessItems:      s.success,
		SkippedItems:      s.skipped,
		RequeuedItems:     s.requeued,
		ETA:               eta,
		TimeLeft:          timeLeft,
		TransferSpeed:     transferSpeed,
		TransferSpeedUnit: "items/sec",
	}
}
