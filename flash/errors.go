package flash

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-wlflash/register"
)

// ErrorKind is the closed set of programming failure kinds.
type ErrorKind uint8

const (
	// KindBusy means an operation was already in progress when programming
	// was requested. Nothing was written.
	KindBusy ErrorKind = iota + 1

	// KindSuspend means program and erase operations were suspended when
	// programming was requested. Nothing was written.
	KindSuspend

	// KindMiss means fast programming data was not delivered in time (MISSERR).
	KindMiss

	// KindSeq means a programming sequence error (PGSERR): a write without
	// PG, or stale error flags from an earlier operation.
	KindSeq

	// KindSize means a byte or half-word access during programming (SIZERR).
	KindSize

	// KindAlign means the two words did not fall in one aligned double-word
	// (PGAERR).
	KindAlign

	// KindWriteProtect means the target is protected by WRP, PCROP or RDP
	// (WRPERR).
	KindWriteProtect

	// KindProg means the target double-word was not erased and the value was
	// not all zeros (PROGERR).
	KindProg

	// KindOp is the catch-all for OPERR and unrecognized flag combinations.
	KindOp
)

func (k ErrorKind) String() string {
	switch k {
	case KindBusy:
		return "busy"
	case KindSuspend:
		return "suspended"
	case KindMiss:
		return "data miss"
	case KindSeq:
		return "sequence error"
	case KindSize:
		return "size error"
	case KindAlign:
		return "alignment error"
	case KindWriteProtect:
		return "write protection error"
	case KindProg:
		return "programming error"
	case KindOp:
		return "operation error"
	default:
		return fmt.Sprintf("unknown kind %d", uint8(k))
	}
}

// Precondition reports whether the kind is detected before any hardware
// state is changed. Such failures can be retried later as-is.
func (k ErrorKind) Precondition() bool {
	return k == KindBusy || k == KindSuspend
}

// Error is a programming failure reported by the flash controller.
type Error struct {
	// Kind classifies the failure
	Kind ErrorKind

	// Address is the double-word address being programmed
	Address uint32

	// Status is the status register snapshot the kind was derived from
	Status register.Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("program 0x%08X: %s (SR=%s)", e.Address, e.Kind, e.Status)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAlign) works
// regardless of address and status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrBusy         = &Error{Kind: KindBusy}
	ErrSuspend      = &Error{Kind: KindSuspend}
	ErrMiss         = &Error{Kind: KindMiss}
	ErrSeq          = &Error{Kind: KindSeq}
	ErrSize         = &Error{Kind: KindSize}
	ErrAlign        = &Error{Kind: KindAlign}
	ErrWriteProtect = &Error{Kind: KindWriteProtect}
	ErrProg         = &Error{Kind: KindProg}
	ErrOp           = &Error{Kind: KindOp}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

var (
	// ErrReleased is returned by every Controller method after Release.
	ErrReleased = errors.New("flash controller released")

	// ErrAlreadyOwned is returned by New when another live Controller owns
	// the peripheral.
	ErrAlreadyOwned = errors.New("flash peripheral already owned by another controller")
)

// TransportError indicates that the peripheral-access layer failed a read or
// write. The controller state is unknown after one.
type TransportError struct {
	Op      string
	Address uint32
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s 0x%08X: %v", e.Op, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// WaitError indicates that the caller's context ended while waiting for the
// controller to finish. The operation may still complete in hardware.
type WaitError struct {
	Address uint32
	Status  register.Status
	Err     error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("wait for 0x%08X (SR=%s): %v", e.Address, e.Status, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// VerifyError indicates that a programmed double-word read back differently.
type VerifyError struct {
	Address  uint32
	Expected uint64
	Actual   uint64
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify 0x%08X: expected 0x%016X, read 0x%016X",
		e.Address, e.Expected, e.Actual)
}

// RangeError indicates that a write falls outside the flash window.
type RangeError struct {
	Address uint32
	Length  int
	Start   uint32
	End     uint32
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range 0x%08X+%d is outside flash 0x%08X-0x%08X",
		e.Address, e.Length, e.Start, e.End)
}
