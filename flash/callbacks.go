package flash

import "time"

// Progress phases.
const (
	PhaseProgramming = "programming"
	PhaseVerifying   = "verifying"
	PhaseComplete    = "complete"
)

// Progress contains information about a block write in progress.
// Passed to ProgressCallback during Write and ProgramImage.
type Progress struct {
	// Phase describes the current operation phase:
	//   "programming" - programming double-words
	//   "verifying"   - reading a double-word back
	//   "complete"    - operation completed successfully
	Phase string

	// Address is the double-word currently being handled
	Address uint32

	// Current is the number of double-words handled so far
	Current int

	// Total is the number of double-words to handle
	Total int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the number of bytes programmed so far
	BytesWritten int

	// ElapsedTime is the time elapsed since the write started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each double-word. Implementations should
// return quickly; the controller stays armed for the next double-word only
// between calls, never during one.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// controller. This allows integration with any logging framework.
//
// Example with log/slog:
//
//	ctrl, err := flash.New(periph, flash.WithLogger(flash.NewSlogLogger(slog.Default())))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
