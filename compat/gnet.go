// FILE: compat/gnet.go
package compat

import (
	"fmt"
	"os"

	"github.com/modelkit-io/modelkit/log"
)

// GnetAdapter wraps a log.Logger to implement gnet's logging.Logger interface
type GnetAdapter struct {
	logger       log.Logger
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger log.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: log.OrDiscard(logger),
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

func (a *GnetAdapter) logf(level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_ = a.logger.LogWith(log.LogOptions{Level: level}, "gnet:", msg)
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logf(log.LevelDebug, format, args...)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logf(log.LevelInfo, format, args...)
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logf(log.LevelWarning, format, args...)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logf(log.LevelError, format, args...)
}

// Fatalf logs at error level and triggers fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_ = a.logger.LogWith(log.LogOptions{Level: log.LevelError}, "gnet: fatal:", msg)

	// Ensure buffered records are persisted before exit
	_ = a.logger.Flush(true)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
