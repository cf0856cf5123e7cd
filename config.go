package hdmiswitch

import (
	"fmt"
	"time"
)

const (
	DefaultMaxRetries = 9
	DefaultTimeout    = 500 * time.Millisecond

	MaxRetriesLimit = 99
	MinTimeout      = 10 * time.Millisecond
	MaxTimeout      = 10 * time.Second
)

// Config describes one run against the switch.
type Config struct {
	Device     string
	MaxRetries int
	Timeout    time.Duration

	// Verbose is not read by Exchanger, which logs at debug level
	// regardless. Callers use it to pick the level of the logger they pass.
	Verbose bool

	// Input, when non-zero, is selected before querying.
	Input int
}

// DefaultConfig returns a query-only config for device.
func DefaultConfig(device string) Config {
	return Config{
		Device:     device,
		MaxRetries: DefaultMaxRetries,
		Timeout:    DefaultTimeout,
	}
}

// ConfigError is a rejected setting. Nothing has touched the device when
// one is returned.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validate checks every setting is in range.
func (c Config) Validate() error {
	if c.Device == "" {
		return &ConfigError{Field: "device", Msg: "no device given"}
	}
	if c.Input != 0 && (c.Input < MinInput || c.Input > MaxInput) {
		return &ConfigError{Field: "input", Msg: fmt.Sprintf("%d out of range [%d-%d]", c.Input, MinInput, MaxInput)}
	}
	if c.MaxRetries < 0 || c.MaxRetries > MaxRetriesLimit {
		return &ConfigError{Field: "retries", Msg: fmt.Sprintf("%d out of range [0-%d]", c.MaxRetries, MaxRetriesLimit)}
	}
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return &ConfigError{Field: "timeout", Msg: fmt.Sprintf("%dms out of range [%d-%d]",
			c.Timeout.Milliseconds(), MinTimeout.Milliseconds(), MaxTimeout.Milliseconds())}
	}

	return nil
}
