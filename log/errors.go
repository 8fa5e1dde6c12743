// FILE: log/errors.go
package log

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Configuration conditions are always fatal and surface at
// construction or arm time; they are never subject to the suppress-errors
// policy. Runtime dispatch and write failures honor the per-call or
// per-instance suppress flag.
var (
	// ErrTimerBusy is returned by Timeout.Start when the timer is already
	// active and the caller asked for strict arming.
	ErrTimerBusy = errors.New("log: timer already active")

	// ErrDestinationUnavailable marks a recognized destination scheme that
	// has no write implementation yet. Distinct from a write failure so
	// callers can tell "unsupported right now" from "failed".
	ErrDestinationUnavailable = errors.New("log: destination scheme not implemented")

	// ErrUnsupportedScheme marks a destination URI scheme the batch logger
	// does not recognize at all.
	ErrUnsupportedScheme = errors.New("log: unsupported destination scheme")

	// ErrSchedulerRequired is returned when cooperative work is requested
	// (async callbacks, task-mode timers) with no Scheduler attached.
	ErrSchedulerRequired = errors.New("log: no scheduler attached")

	// ErrUnsupportedMode is returned when a Timeout is armed with a mode
	// it does not know.
	ErrUnsupportedMode = errors.New("log: unsupported timeout mode")
)

// fmtErrorf wraps fmt.Errorf ensuring the package prefix on every error.
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "log: ") {
		format = "log: " + format
	}
	return fmt.Errorf(format, args...)
}
