// FILE: log/timeout.go
package log

import (
	"sync"
	"sync/atomic"
	"time"
)

// TimeoutMode selects the execution model of an armed timer.
type TimeoutMode int

const (
	// ModeBlocking suspends the arming goroutine for the full delay and
	// runs callbacks inline.
	ModeBlocking TimeoutMode = iota
	// ModeThread spawns a dedicated goroutine that sleeps then fires.
	ModeThread
	// ModeTask schedules the sleep-then-fire unit on the attached
	// Scheduler. Arming fails fast when no scheduler is attached.
	ModeTask
)

// Timer status values. Transitions: idle -> active -> {idle, cancelled}.
const (
	timerIdle int32 = iota
	timerActive
	timerCancelled
)

// Timeout is a single-shot, re-armable delayed-callback mechanism.
// One instance is created per owning logger and re-armed (never recreated)
// on every triggering log call.
//
// Cancellation is best-effort, not linearizable: the cancelled flag is
// observed at fire time only. If the timer has already begun invoking
// callbacks when Cancel is called, in-flight callbacks are not undone.
type Timeout struct {
	delay time.Duration
	mode  TimeoutMode
	sched *Scheduler

	mu        sync.Mutex
	callbacks []func()

	status atomic.Int32
	wg     sync.WaitGroup
}

// NewTimeout creates a timer firing after delay in the given mode.
// sched may be nil unless ModeTask is used at arm time.
func NewTimeout(delay time.Duration, mode TimeoutMode, sched *Scheduler) *Timeout {
	return &Timeout{
		delay: delay,
		mode:  mode,
		sched: sched,
	}
}

// AddCallback registers cb to run when the timer fires. Must be called
// before arming to take effect on that arming cycle.
func (t *Timeout) AddCallback(cb func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = append(t.callbacks, cb)
}

// ClearCallbacks removes all registered callbacks.
func (t *Timeout) ClearCallbacks() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callbacks = nil
}

// Start arms the timer. If it is already active the call returns
// ErrTimerBusy when raiseOnActive is true and is a silent no-op otherwise.
// An optional mode overrides the construction-time mode for this arming.
//
// Re-arming from the cancelled state while the cancelled worker is still
// sleeping leaves that stale worker alive; it fires against the new active
// status ahead of the fresh worker, so callbacks may run once early. A
// consequence of best-effort cancellation; callbacks must tolerate an
// extra invocation.
func (t *Timeout) Start(raiseOnActive bool, mode ...TimeoutMode) error {
	m := t.mode
	if len(mode) > 0 {
		m = mode[0]
	}

	for {
		s := t.status.Load()
		if s == timerActive {
			if raiseOnActive {
				return ErrTimerBusy
			}
			return nil
		}
		// idle or cancelled: re-arm
		if t.status.CompareAndSwap(s, timerActive) {
			break
		}
	}

	switch m {
	case ModeBlocking:
		time.Sleep(t.delay)
		t.fire()
		return nil

	case ModeThread:
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			time.Sleep(t.delay)
			t.fire()
		}()
		return nil

	case ModeTask:
		if t.sched == nil {
			t.status.Store(timerIdle)
			return fmtErrorf("cannot arm task-mode timer: %w", ErrSchedulerRequired)
		}
		t.wg.Add(1)
		err := t.sched.Submit(func() {
			defer t.wg.Done()
			time.Sleep(t.delay)
			t.fire()
		})
		if err != nil {
			t.wg.Done()
			t.status.Store(timerIdle)
			return err
		}
		return nil

	default:
		t.status.Store(timerIdle)
		return fmtErrorf("%w: %d", ErrUnsupportedMode, m)
	}
}

// Cancel marks the handle cancelled. Suppression only takes effect if the
// cancelled flag is observed at fire time.
func (t *Timeout) Cancel() {
	t.status.CompareAndSwap(timerActive, timerCancelled)
}

// Close cancels any pending firing and joins outstanding workers so that
// teardown never leaks a running timer.
func (t *Timeout) Close() {
	t.Cancel()
	t.wg.Wait()
}

// fire runs the registered callbacks unless cancellation was observed.
func (t *Timeout) fire() {
	if t.status.CompareAndSwap(timerCancelled, timerIdle) {
		return
	}
	t.mu.Lock()
	cbs := make([]func(), len(t.callbacks))
	copy(cbs, t.callbacks)
	t.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
	t.status.CompareAndSwap(timerActive, timerIdle)
}
