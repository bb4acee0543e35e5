package flash

import (
	"fmt"
	"strings"
	"time"

	"github.com/moffa90/go-wlflash/register"
)

// CompletionMode selects how the end of a programming operation is judged.
type CompletionMode uint8

const (
	// CompletionDecode waits for BSY and CFGBSY to clear, then decodes every
	// sticky error flag before declaring success.
	CompletionDecode CompletionMode = iota

	// CompletionEndOfOperation waits for EOP and declares success without
	// looking at the error flags. EOP is only raised when EOPIE is enabled,
	// so this mode blocks forever on controllers configured without it.
	CompletionEndOfOperation
)

func (m CompletionMode) String() string {
	switch m {
	case CompletionDecode:
		return "decode"
	case CompletionEndOfOperation:
		return "eop"
	default:
		return "unknown"
	}
}

// ParseCompletionMode parses "decode" or "eop". The empty string selects
// CompletionDecode.
func ParseCompletionMode(s string) (CompletionMode, error) {
	switch strings.ToLower(s) {
	case "", "decode":
		return CompletionDecode, nil
	case "eop":
		return CompletionEndOfOperation, nil
	default:
		return 0, fmt.Errorf("unknown completion mode %q", s)
	}
}

// Config holds the controller configuration.
type Config struct {
	// View selects the status/control register pair (default register.CPU1)
	View register.View

	// Completion selects how completion is detected
	Completion CompletionMode

	// PollInterval is the pause between status reads while waiting.
	// Zero polls back to back.
	PollInterval time.Duration

	// FlashStart is the first address accepted by Write and ProgramImage
	FlashStart uint32

	// FlashSize is the size of the window accepted by Write and ProgramImage
	FlashSize uint32

	// Verify enables read-back of every double-word written by Write
	Verify bool

	// ProgressCallback is called during Write and ProgramImage (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		View:       register.CPU1,
		Completion: CompletionDecode,
		FlashStart: register.FlashBase,
		FlashSize:  register.DefaultFlashSize,
		Verify:     true,
	}
}

// Option is a functional option for configuring the Controller.
type Option func(*Config)

// WithView binds the controller to a register view. The choice is fixed for
// the lifetime of the controller.
//
// Example:
//
//	ctrl, err := flash.New(periph, flash.WithView(register.CPU2))
func WithView(view register.View) Option {
	return func(c *Config) {
		c.View = view
	}
}

// WithCompletion selects the completion detection mode.
func WithCompletion(mode CompletionMode) Option {
	return func(c *Config) {
		c.Completion = mode
	}
}

// WithPollInterval sets the pause between status reads while waiting for
// completion. Useful on slow remote links.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}

// WithFlashWindow sets the address range accepted by Write and ProgramImage.
//
// Example:
//
//	ctrl, err := flash.New(periph, flash.WithFlashWindow(0x0800_0000, 128*1024))
func WithFlashWindow(start, size uint32) Option {
	return func(c *Config) {
		if size > 0 {
			c.FlashStart = start
			c.FlashSize = size
		}
	}
}

// WithVerify enables or disables read-back verification in Write.
// Default is true.
func WithVerify(verify bool) Option {
	return func(c *Config) {
		c.Verify = verify
	}
}

// WithProgressCallback sets a callback function to track Write progress.
//
// Example:
//
//	ctrl, err := flash.New(periph,
//	    flash.WithProgressCallback(func(p flash.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the controller operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
