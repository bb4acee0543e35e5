package trace

import "time"

// Event is one peripheral access captured by a Recorder.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the access completed (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the Recorder that captured the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Seq is the position of the event within its session, starting at 1.
	Seq uint64 `cbor:"3,keyasint"`

	// Op is the kind of access.
	Op Op `cbor:"4,keyasint"`

	// Address is the register offset or memory address.
	Address uint32 `cbor:"5,keyasint"`

	// Value is the value written, or the value read on success.
	Value uint32 `cbor:"6,keyasint"`

	// Err is the access error, if any.
	Err string `cbor:"7,keyasint,omitempty"`
}

// Op identifies the kind of peripheral access.
type Op uint8

const (
	OpReadRegister  Op = 0
	OpWriteRegister Op = 1
	OpReadWord      Op = 2
	OpWriteWord     Op = 3
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpReadRegister:
		return "RREG"
	case OpWriteRegister:
		return "WREG"
	case OpReadWord:
		return "RMEM"
	case OpWriteWord:
		return "WMEM"
	default:
		return "UNKNOWN"
	}
}

// IsWrite reports whether the op stores a value.
func (o Op) IsWrite() bool {
	return o == OpWriteRegister || o == OpWriteWord
}
