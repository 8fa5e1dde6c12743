// FILE: log/buffered.go
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Callback receives one formatted record during synchronous flush dispatch.
type Callback func(record string) error

// AsyncCallback receives one formatted record as an independently scheduled
// unit of cooperative work. Its failure never propagates to the Flush caller.
type AsyncCallback func(record string) error

// BufferedOptions enumerates the construction-time configuration of a
// BufferedLogger.
type BufferedOptions struct {
	// DefaultLevel prefixes records that carry no per-call level.
	// Empty means no prefix.
	DefaultLevel string
	// Mirroring writes each record to MirrorOutput (stdout when nil) as
	// it is appended. On unless DisableMirror is set.
	DisableMirror bool
	MirrorOutput  io.Writer
	// MaxBufferSize triggers an automatic flush once the buffer reaches
	// it. Zero means unbuffered: every Log call flushes.
	MaxBufferSize int
	// Callbacks run synchronously, in record order, on every flush.
	Callbacks []Callback
	// AsyncCallbacks are scheduled per record on Scheduler. Supplying any
	// without a Scheduler is a fatal configuration error.
	AsyncCallbacks []AsyncCallback
	// SuppressErrors is the instance default for the suppress policy.
	SuppressErrors bool
	Scheduler      *Scheduler
	// AsyncErrorHandler receives unsuppressed failures from async
	// callback execution. Defaults to a stderr report.
	AsyncErrorHandler func(error)
}

// BufferedLogger accumulates formatted records and fans them out to
// synchronous and asynchronous callbacks on flush.
//
// The buffer is exclusively owned by the instance. A flush logically
// drains the buffer before dispatch begins, so a callback failure cannot
// cause redundant re-delivery and concurrent flush calls never
// double-process a record.
type BufferedLogger struct {
	level          string
	mirror         bool
	mirrorOut      io.Writer
	maxSize        int
	callbacks      []Callback
	asyncCallbacks []AsyncCallback
	suppress       bool
	sched          *Scheduler
	onAsyncError   func(error)

	mu  sync.Mutex
	buf []string
}

// NewBufferedLogger validates opts and creates the logger. Supplying
// asynchronous callbacks without a scheduler fails with
// ErrSchedulerRequired.
func NewBufferedLogger(opts BufferedOptions) (*BufferedLogger, error) {
	if len(opts.AsyncCallbacks) > 0 && opts.Scheduler == nil {
		return nil, fmtErrorf("async callbacks were provided: %w", ErrSchedulerRequired)
	}
	mirrorOut := opts.MirrorOutput
	if mirrorOut == nil {
		mirrorOut = os.Stdout
	}
	onAsyncError := opts.AsyncErrorHandler
	if onAsyncError == nil {
		onAsyncError = func(err error) {
			fmt.Fprintf(os.Stderr, "log: async callback failed: %v\n", err)
		}
	}
	return &BufferedLogger{
		level:          opts.DefaultLevel,
		mirror:         !opts.DisableMirror,
		mirrorOut:      mirrorOut,
		maxSize:        opts.MaxBufferSize,
		callbacks:      append([]Callback(nil), opts.Callbacks...),
		asyncCallbacks: append([]AsyncCallback(nil), opts.AsyncCallbacks...),
		suppress:       opts.SuppressErrors,
		sched:          opts.Scheduler,
		onAsyncError:   onAsyncError,
	}, nil
}

func (b *BufferedLogger) Log(msgs ...any) error {
	return b.LogWith(LogOptions{}, msgs...)
}

// LogWith formats and appends one record, then flushes when the call
// requests it, when no maximum size is configured (flush-every-time is the
// deliberate unset-size default), or when the buffer reached the maximum.
func (b *BufferedLogger) LogWith(opts LogOptions, msgs ...any) error {
	n := b.append(opts, msgs)
	if opts.Flush || b.maxSize <= 0 || n >= b.maxSize {
		return b.Flush()
	}
	return nil
}

// append formats, optionally mirrors, and buffers one record, returning
// the new buffer length.
func (b *BufferedLogger) append(opts LogOptions, msgs []any) int {
	line := formatRecord(opts.normalize(b.level), msgs)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mirror {
		_, _ = io.WriteString(b.mirrorOut, line)
	}
	b.buf = append(b.buf, line)
	return len(b.buf)
}

// drain atomically empties the buffer and returns its records in
// emission order.
func (b *BufferedLogger) drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	records := b.buf
	b.buf = nil
	return records
}

// restore re-queues records at the front of the buffer, preserving order.
// Used by destination-backed variants when an unsuppressed write fails.
func (b *BufferedLogger) restore(records []string) {
	if len(records) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(records, b.buf...)
}

// Len reports the number of currently buffered records.
func (b *BufferedLogger) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Flush drains the buffer and dispatches every record, in order, to every
// synchronous callback. The first failing callback aborts dispatch and
// propagates unless suppressed. Asynchronous callbacks are then scheduled
// as one fire-and-forget unit per record; their failures go to the async
// error handler (or are swallowed) and never block this call.
func (b *BufferedLogger) Flush(suppressErrors ...bool) error {
	suppress := b.suppress
	if len(suppressErrors) > 0 {
		suppress = suppressErrors[0]
	}
	return b.dispatch(b.drain(), suppress)
}

func (b *BufferedLogger) dispatch(records []string, suppress bool) error {
	for _, record := range records {
		for _, cb := range b.callbacks {
			if err := cb(record); err != nil && !suppress {
				return err
			}
		}
		for _, acb := range b.asyncCallbacks {
			acb, record := acb, record
			submitErr := b.sched.Submit(func() {
				if err := acb(record); err != nil && !suppress {
					b.onAsyncError(err)
				}
			})
			if submitErr != nil && !suppress {
				b.onAsyncError(submitErr)
			}
		}
	}
	return nil
}
