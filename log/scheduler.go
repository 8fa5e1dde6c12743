// FILE: log/scheduler.go
package log

import (
	"github.com/panjf2000/ants/v2"
)

// Scheduler runs cooperative units of work on a shared goroutine pool.
// It backs task-mode timers and the asynchronous callback fan-out of
// BufferedLogger: each submitted unit is independently scheduled, so
// ordering across units is not guaranteed.
type Scheduler struct {
	pool *ants.Pool
}

// NewScheduler creates a scheduler with at most size concurrent workers.
func NewScheduler(size int) (*Scheduler, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmtErrorf("failed to create scheduler pool: %w", err)
	}
	return &Scheduler{pool: pool}, nil
}

// Submit schedules task as an independent unit of work.
func (s *Scheduler) Submit(task func()) error {
	if err := s.pool.Submit(task); err != nil {
		return fmtErrorf("failed to submit task: %w", err)
	}
	return nil
}

// Running reports the number of currently executing units.
func (s *Scheduler) Running() int {
	return s.pool.Running()
}

// Release tears the pool down. Pending units are abandoned; callers that
// need completion should quiesce producers first.
func (s *Scheduler) Release() {
	s.pool.Release()
}
