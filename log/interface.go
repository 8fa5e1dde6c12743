// FILE: log/interface.go
package log

// Log level constants. Levels are plain strings, not a closed enum:
// any string supplied by a caller is accepted and rendered as-is.
const (
	LevelError   = "ERROR"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelDebug   = "DEBUG"
)

// Logger is the capability contract shared by every logger variant.
// Log appends (or immediately emits) one formatted record built from msgs.
// LogWith does the same with explicit per-call options. Flush drains any
// buffered records to their destination or callbacks; the optional
// suppressErrors argument overrides the instance default for that call.
//
// Formatting never fails. Errors returned by Log and LogWith only surface
// unsuppressed flush failures triggered by the call itself.
type Logger interface {
	Log(msgs ...any) error
	LogWith(opts LogOptions, msgs ...any) error
	Flush(suppressErrors ...bool) error
}

// LogOptions controls formatting and flush behavior of a single Log call.
// Zero values mean defaults: Sep " ", End "\n", Level the instance default.
type LogOptions struct {
	Sep   string
	End   string
	Level string
	Flush bool
}

const (
	defaultSep = " "
	defaultEnd = "\n"
)

// normalize fills zero-value options with the contract defaults.
func (o LogOptions) normalize(defaultLevel string) LogOptions {
	if o.Sep == "" {
		o.Sep = defaultSep
	}
	if o.End == "" {
		o.End = defaultEnd
	}
	if o.Level == "" {
		o.Level = defaultLevel
	}
	return o
}

// Discard is a Logger that drops everything. Framework components accept
// a nil Logger and substitute Discard, so logging is always optional.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Log(...any) error                  { return nil }
func (discardLogger) LogWith(LogOptions, ...any) error  { return nil }
func (discardLogger) Flush(...bool) error               { return nil }

// OrDiscard returns l, or Discard when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}
