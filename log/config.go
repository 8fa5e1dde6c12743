// FILE: log/config.go
package log

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// Config holds the file-backed logger configuration surface. It maps onto
// BatchFileLogger (batch mode) or AsyncFileLogger (continuous mode).
type Config struct {
	// Basic settings
	Level      string `toml:"level"`       // Default record level; empty for none
	Directory  string `toml:"directory"`   // Destination URI or local path
	NameFormat string `toml:"name_format"` // Time layout naming each flushed batch

	// Buffering
	BufferSize   int64 `toml:"buffer_size"`    // Records before auto-flush; 0 = flush every record
	FlushDelayMs int64 `toml:"flush_delay_ms"` // Auto-flush timer delay

	// Behavior
	Mirror         bool `toml:"mirror"`          // Mirror records to stdout on append
	SuppressErrors bool `toml:"suppress_errors"` // Default suppress policy
	UseAsync       bool `toml:"use_async"`       // Run the auto-flush timer on a scheduler

	// Continuous mode
	MaxLogRate int64 `toml:"max_log_rate"` // Records/second accepted; 0 = unlimited
	MaxSizeMB  int64 `toml:"max_size_mb"`  // Rolling file size limit
	MaxBackups int64 `toml:"max_backups"`  // Rolling files kept
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Level:      "",
	Directory:  "./logs",
	NameFormat: DefaultNameFormat,

	BufferSize:   0,
	FlushDelayMs: 10000,

	Mirror:         true,
	SuppressErrors: false,
	UseAsync:       false,

	MaxLogRate: 0,
	MaxSizeMB:  10,
	MaxBackups: 5,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a
// validated Config.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct("log.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// File not found falls back to defaults
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "log.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies
// overrides keyed by toml tag.
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig extracts values from the loader into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}
		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Directory) == "" {
		return fmtErrorf("directory cannot be empty")
	}
	if strings.TrimSpace(c.NameFormat) == "" {
		return fmtErrorf("name_format cannot be empty")
	}
	if c.BufferSize < 0 {
		return fmtErrorf("buffer_size cannot be negative: %d", c.BufferSize)
	}
	if c.FlushDelayMs <= 0 {
		return fmtErrorf("flush_delay_ms must be positive: %d", c.FlushDelayMs)
	}
	if c.MaxLogRate < 0 {
		return fmtErrorf("max_log_rate cannot be negative: %d", c.MaxLogRate)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 {
		return fmtErrorf("rolling limits cannot be negative")
	}
	return nil
}

// BatchLogger constructs a BatchFileLogger from the configuration. sched
// may be nil unless use_async is set.
func (c *Config) BatchLogger(sched *Scheduler) (*BatchFileLogger, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return NewBatchFileLogger(c.Directory, BatchFileOptions{
		NameFormat:     c.NameFormat,
		DefaultLevel:   c.Level,
		DisableMirror:  !c.Mirror,
		MaxBufferSize:  int(c.BufferSize),
		SuppressErrors: c.SuppressErrors,
		FlushDelay:     time.Duration(c.FlushDelayMs) * time.Millisecond,
		UseAsync:       c.UseAsync,
		Scheduler:      sched,
	})
}

// AsyncLogger constructs an AsyncFileLogger from the configuration.
func (c *Config) AsyncLogger() (*AsyncFileLogger, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return NewAsyncFileLogger(AsyncFileOptions{
		DefaultLevel: c.Level,
		Directory:    c.Directory,
		MaxSizeMB:    int(c.MaxSizeMB),
		MaxBackups:   int(c.MaxBackups),
		MaxLogRate:   int(c.MaxLogRate),
	}), nil
}
