// FILE: log/asyncfile.go
package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AsyncFileOptions enumerates the construction-time configuration of an
// AsyncFileLogger.
type AsyncFileOptions struct {
	DefaultLevel string
	// Directory holds the rolling log file. Empty with no Output means
	// records go to standard output.
	Directory string
	// FileName within Directory, default "async.log".
	FileName string
	// Rolling limits, passed to the underlying rolling writer.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output overrides Directory entirely when set.
	Output io.Writer
	// MaxLogRate caps accepted records per second; excess records are
	// counted as dropped instead of queued. Zero disables the cap.
	MaxLogRate int
}

// AsyncFileLogger is the continuous variant for high-frequency, low-latency
// logging: Log pushes onto an unbounded queue without ever blocking the
// producer, and a single worker drains one record per step, persisting it,
// with a cooperative cancellation check between steps.
//
// Records enqueued before Start or after Stop remain queued for the next
// run. Flush is intentionally a no-op: persistence happens continuously.
type AsyncFileLogger struct {
	level   string
	out     io.Writer
	closer  io.Closer
	limiter *rate.Limiter

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []string
	running bool
	forced  bool

	lifeMu sync.Mutex
	done   chan struct{}

	dropped atomic.Uint64
}

// NewAsyncFileLogger creates the logger. The worker is not started until
// Start is called.
func NewAsyncFileLogger(opts AsyncFileOptions) *AsyncFileLogger {
	out := opts.Output
	var closer io.Closer
	if out == nil {
		if opts.Directory != "" {
			name := opts.FileName
			if name == "" {
				name = "async.log"
			}
			lj := &lumberjack.Logger{
				Filename:   filepath.Join(opts.Directory, name),
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
			}
			out = lj
			closer = lj
		} else {
			out = os.Stdout
		}
	}

	var limiter *rate.Limiter
	if opts.MaxLogRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxLogRate), opts.MaxLogRate)
	}

	l := &AsyncFileLogger{
		level:   opts.DefaultLevel,
		out:     out,
		closer:  closer,
		limiter: limiter,
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *AsyncFileLogger) Log(msgs ...any) error {
	return l.LogWith(LogOptions{}, msgs...)
}

// LogWith formats and enqueues one record without suspending, regardless
// of running state.
func (l *AsyncFileLogger) LogWith(opts LogOptions, msgs ...any) error {
	if l.limiter != nil && !l.limiter.Allow() {
		l.dropped.Add(1)
		return nil
	}
	line := formatRecord(opts.normalize(l.level), msgs)
	l.mu.Lock()
	l.queue = append(l.queue, line)
	l.mu.Unlock()
	l.cond.Signal()
	return nil
}

// Flush satisfies the contract. Persistence already happens continuously.
func (l *AsyncFileLogger) Flush(...bool) error {
	return nil
}

// Dropped reports how many records the rate cap rejected.
func (l *AsyncFileLogger) Dropped() uint64 {
	return l.dropped.Load()
}

// Start launches the worker. Idempotent.
func (l *AsyncFileLogger) Start() {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.forced = false
	l.mu.Unlock()

	l.done = make(chan struct{})
	go l.saveLoop(l.done)
}

// Stop halts the worker. Idempotent. With force false the worker first
// drains the records already queued, so nothing accepted before Stop is
// lost. With force true it returns as soon as the in-flight step
// completes, leaving the remainder queued for the next run.
func (l *AsyncFileLogger) Stop(force bool) {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.forced = force
	l.mu.Unlock()
	l.cond.Broadcast()

	<-l.done
}

// Run is the scoped acquisition pattern: Start on entry, graceful Stop on
// every exit path including failure of fn.
func (l *AsyncFileLogger) Run(fn func(Logger) error) error {
	l.Start()
	defer l.Stop(false)
	return fn(l)
}

// Close stops the worker gracefully and releases the rolling writer.
func (l *AsyncFileLogger) Close() error {
	l.Stop(false)
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// saveLoop drains the queue one record per iteration. Each iteration is an
// independently cancellable step: flags are checked between steps, never
// mid-write.
func (l *AsyncFileLogger) saveLoop(done chan struct{}) {
	defer close(done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && l.running {
			l.cond.Wait()
		}
		if len(l.queue) == 0 || l.forced {
			l.mu.Unlock()
			return
		}
		record := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		_, _ = io.WriteString(l.out, record)
	}
}
