package remote

import (
	"time"

	"github.com/moffa90/go-wlflash/flash"
)

// Config holds the client configuration.
type Config struct {
	// Retries is the number of extra attempts for a read whose response
	// was lost or corrupted. Writes are never retried.
	Retries int

	// CommandDelay is the delay between writing a command and reading its response
	CommandDelay time.Duration

	// Logger for debug output (optional)
	Logger flash.Logger
}

func defaultConfig() Config {
	return Config{
		Retries: 2,
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithRetries sets the number of retry attempts for failed reads.
//
// Example:
//
//	client := remote.New(port, remote.WithRetries(5))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithCommandDelay sets a delay between each command and its response.
// Some USB serial adapters need a few milliseconds.
func WithCommandDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.CommandDelay = delay
		}
	}
}

// WithLogger sets a logger for frame-level debug output.
func WithLogger(logger flash.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
