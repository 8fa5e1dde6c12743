// FILE: log/batchfile.go
package log

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultNameFormat is the time layout used to name flushed batches.
const DefaultNameFormat = "2006-01-02T15-04-05.log"

// DefaultFlushDelay bounds how long a record can sit in the buffer with
// no explicit flush call.
const DefaultFlushDelay = 10 * time.Second

// Destination is the sink strategy a BatchFileLogger writes batches to.
// It is resolved once from a URI at construction.
type Destination interface {
	// Store persists one batch as a single unit under name.
	Store(name string, batch []byte) error
}

type fileDestination struct {
	dir string
}

func (d *fileDestination) Store(name string, batch []byte) error {
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, batch, 0644); err != nil {
		return fmtErrorf("failed to write batch to '%s': %w", path, err)
	}
	return nil
}

// stubDestination covers schemes that are recognized but intentionally
// unimplemented, so callers can distinguish "unsupported right now" from
// a write failure.
type stubDestination struct {
	scheme string
}

func (d *stubDestination) Store(string, []byte) error {
	return fmtErrorf("%w: %s", ErrDestinationUnavailable, d.scheme)
}

// ResolveDestination parses a destination URI of the form
// <scheme>://<location>. Absence of "://" implies the file scheme with the
// whole string as a local path. File destinations ensure the target
// directory exists; s3 and http(s) defer to write time, where they report
// ErrDestinationUnavailable.
func ResolveDestination(uri string) (Destination, error) {
	scheme, location := "file", uri
	if i := strings.Index(uri, "://"); i >= 0 {
		scheme = strings.ToLower(uri[:i])
		location = uri[i+3:]
	}
	switch scheme {
	case "file":
		if err := os.MkdirAll(location, 0755); err != nil {
			return nil, fmtErrorf("failed to create log directory '%s': %w", location, err)
		}
		return &fileDestination{dir: location}, nil
	case "s3", "http", "https":
		return &stubDestination{scheme: scheme}, nil
	default:
		return nil, fmtErrorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// BatchFileOptions enumerates the construction-time configuration of a
// BatchFileLogger beyond its destination URI.
type BatchFileOptions struct {
	// NameFormat is the time layout naming each flushed batch.
	NameFormat   string
	DefaultLevel string
	// Mirroring to stdout is on unless disabled.
	DisableMirror bool
	// MaxBufferSize triggers an automatic flush once reached; zero means
	// flush on every Log call.
	MaxBufferSize  int
	SuppressErrors bool
	// FlushDelay bounds how long records are held before the timer-driven
	// auto-flush. Zero means DefaultFlushDelay.
	FlushDelay time.Duration
	// UseAsync runs the auto-flush timer as a cooperative task on
	// Scheduler instead of a dedicated goroutine.
	UseAsync  bool
	Scheduler *Scheduler
	// ErrorHandler receives unsuppressed failures of timer-triggered
	// flushes, which have no caller to propagate to.
	ErrorHandler func(error)
}

// BatchFileLogger buffers records and writes them as timestamp-named
// batches to a URI-resolved destination. A deferred-flush timer is armed
// on every Log call so records are never held longer than FlushDelay.
type BatchFileLogger struct {
	engine     *BufferedLogger
	dest       Destination
	nameFormat string
	timer      *Timeout
	suppress   bool
	now        func() time.Time
}

// NewBatchFileLogger resolves destinationURI and creates the logger.
// Unknown schemes are a construction-time configuration error.
func NewBatchFileLogger(destinationURI string, opts BatchFileOptions) (*BatchFileLogger, error) {
	dest, err := ResolveDestination(destinationURI)
	if err != nil {
		return nil, err
	}

	if opts.NameFormat == "" {
		opts.NameFormat = DefaultNameFormat
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = DefaultFlushDelay
	}
	mode := ModeThread
	if opts.UseAsync {
		mode = ModeTask
		if opts.Scheduler == nil {
			return nil, fmtErrorf("async auto-flush requested: %w", ErrSchedulerRequired)
		}
	}

	engine, err := NewBufferedLogger(BufferedOptions{
		DefaultLevel:   opts.DefaultLevel,
		DisableMirror:  opts.DisableMirror,
		MaxBufferSize:  opts.MaxBufferSize,
		SuppressErrors: opts.SuppressErrors,
	})
	if err != nil {
		return nil, err
	}

	l := &BatchFileLogger{
		engine:     engine,
		dest:       dest,
		nameFormat: opts.NameFormat,
		suppress:   opts.SuppressErrors,
		now:        time.Now,
	}
	l.timer = NewTimeout(opts.FlushDelay, mode, opts.Scheduler)
	onError := opts.ErrorHandler
	l.timer.AddCallback(func() {
		if err := l.Flush(); err != nil && onError != nil {
			onError(err)
		}
	})
	return l, nil
}

func (l *BatchFileLogger) Log(msgs ...any) error {
	return l.LogWith(LogOptions{}, msgs...)
}

// LogWith appends one record, flushes per the buffering policy, then
// re-arms the auto-flush timer. An already-active timer is left alone
// (busy, don't raise).
func (l *BatchFileLogger) LogWith(opts LogOptions, msgs ...any) error {
	n := l.engine.append(opts, msgs)
	var err error
	if opts.Flush || l.engine.maxSize <= 0 || n >= l.engine.maxSize {
		err = l.Flush()
	}
	if armErr := l.timer.Start(false); armErr != nil && err == nil {
		err = armErr
	}
	return err
}

// Flush cancels any pending auto-flush (an explicit flush makes it
// redundant), joins all buffered records into one batch and writes it to
// the destination under a timestamp-derived name. On an unsuppressed
// write failure the records are restored for a later retry; a successful
// or suppressed-failure write leaves the buffer empty.
func (l *BatchFileLogger) Flush(suppressErrors ...bool) error {
	l.timer.Cancel()
	suppress := l.suppress
	if len(suppressErrors) > 0 {
		suppress = suppressErrors[0]
	}

	records := l.engine.drain()
	if len(records) == 0 {
		return nil
	}
	batch := strings.Join(records, "")
	name := l.now().Format(l.nameFormat)
	if err := l.dest.Store(name, []byte(batch)); err != nil && !suppress {
		l.engine.restore(records)
		return err
	}
	return nil
}

// Len reports the number of currently buffered records.
func (l *BatchFileLogger) Len() int {
	return l.engine.Len()
}

// Close flushes any remaining records and joins the auto-flush timer.
func (l *BatchFileLogger) Close() error {
	err := l.Flush()
	l.timer.Close()
	return err
}
