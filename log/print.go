// FILE: log/print.go
package log

import (
	"io"
	"os"
	"sync"
)

// PrintLogger is the stateless pass-through variant of the contract:
// records are written immediately, nothing is buffered, Flush is a no-op.
type PrintLogger struct {
	level string
	mu    sync.Mutex
	out   io.Writer
}

// NewPrintLogger creates an immediate logger writing to out. A nil out
// means standard output.
func NewPrintLogger(out io.Writer, defaultLevel string) *PrintLogger {
	if out == nil {
		out = os.Stdout
	}
	return &PrintLogger{level: defaultLevel, out: out}
}

func (p *PrintLogger) Log(msgs ...any) error {
	return p.LogWith(LogOptions{}, msgs...)
}

func (p *PrintLogger) LogWith(opts LogOptions, msgs ...any) error {
	line := formatRecord(opts.normalize(p.level), msgs)
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, line)
	return nil
}

// Flush satisfies the contract; there is never anything to drain.
func (p *PrintLogger) Flush(...bool) error {
	return nil
}
