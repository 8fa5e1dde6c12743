// FILE: log/builder.go
package log

import "time"

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg   *Config
	sched *Scheduler
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a BatchFileLogger with the specified configuration.
func (b *Builder) Build() (*BatchFileLogger, error) {
	return b.cfg.BatchLogger(b.sched)
}

// BuildAsync creates an AsyncFileLogger with the specified configuration.
func (b *Builder) BuildAsync() (*AsyncFileLogger, error) {
	return b.cfg.AsyncLogger()
}

// Level sets the default record level.
func (b *Builder) Level(level string) *Builder {
	b.cfg.Level = level
	return b
}

// Directory sets the destination URI or local path.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// NameFormat sets the time layout naming each flushed batch.
func (b *Builder) NameFormat(format string) *Builder {
	b.cfg.NameFormat = format
	return b
}

// BufferSize sets the record count that triggers an automatic flush.
func (b *Builder) BufferSize(size int64) *Builder {
	b.cfg.BufferSize = size
	return b
}

// FlushDelay sets the auto-flush timer delay.
func (b *Builder) FlushDelay(delay time.Duration) *Builder {
	b.cfg.FlushDelayMs = delay.Milliseconds()
	return b
}

// Mirror enables mirroring records to stdout as they are appended.
func (b *Builder) Mirror(enable bool) *Builder {
	b.cfg.Mirror = enable
	return b
}

// SuppressErrors sets the instance default suppress policy.
func (b *Builder) SuppressErrors(suppress bool) *Builder {
	b.cfg.SuppressErrors = suppress
	return b
}

// UseAsync runs the auto-flush timer on the attached scheduler.
func (b *Builder) UseAsync(sched *Scheduler) *Builder {
	b.cfg.UseAsync = true
	b.sched = sched
	return b
}

// MaxLogRate caps records accepted per second in continuous mode.
func (b *Builder) MaxLogRate(perSecond int64) *Builder {
	b.cfg.MaxLogRate = perSecond
	return b
}

// Example usage:
// logger, err := log.NewBuilder().
//
//	Directory("/var/log/app").
//	Level(log.LevelInfo).
//	BufferSize(64).
//	FlushDelay(5 * time.Second).
//	Build()
//
// if err == nil {
//
//	 defer logger.Close()
//	 logger.Log("logger initialized")
//
// }
