package protocol

// ProtocolVersion is the monitor link protocol version implemented by this library.
const ProtocolVersion = "1.1"

// Frame structure constants.
const (
	// StartOfPacket is the frame start marker (0x01)
	StartOfPacket = 0x01

	// EndOfPacket is the frame end marker (0x17)
	EndOfPacket = 0x17

	// MinFrameSize is the minimum frame size in bytes:
	// SOP(1) + CMD/STATUS(1) + LEN(2) + CHECKSUM(2) + EOP(1)
	MinFrameSize = 7

	// HeaderSize is the number of bytes before the payload: SOP, CMD/STATUS, LEN
	HeaderSize = 4
)

// Command codes understood by the target monitor.
const (
	// CmdPing checks that the monitor is alive and returns the protocol version
	CmdPing = 0x01

	// CmdReadRegister reads a 32-bit flash controller register
	CmdReadRegister = 0x10

	// CmdWriteRegister writes a 32-bit flash controller register
	CmdWriteRegister = 0x11

	// CmdReadWord reads a 32-bit word of memory
	CmdReadWord = 0x12

	// CmdWriteWord performs a single 32-bit store to memory
	CmdWriteWord = 0x13
)

// Status/Error codes returned by the monitor.
const (
	// StatusSuccess indicates command was successfully received and executed
	StatusSuccess = 0x00

	// ErrLength indicates data amount is outside expected range
	ErrLength = 0x03

	// ErrData indicates data is not of proper form
	ErrData = 0x04

	// ErrCommand indicates command is not recognized
	ErrCommand = 0x05

	// ErrChecksum indicates packet checksum doesn't match expected value
	ErrChecksum = 0x08

	// ErrAddress indicates the access faulted on the target bus
	ErrAddress = 0x0A

	// ErrUnknown indicates an unknown error occurred
	ErrUnknown = 0x0F
)

// Payload sizes.
const (
	// SequenceSize is the size of the sequence byte that starts every
	// payload. Responses echo the sequence byte of their command.
	SequenceSize = 1

	// AddressSize is the size of an offset or address field (4 bytes)
	AddressSize = 4

	// ValueSize is the size of a register or word value (4 bytes)
	ValueSize = 4

	// MaxDataSize is the maximum payload accepted by ParseFrame
	MaxDataSize = 256

	// MaxFrameSize is the largest frame a peer may send
	MaxFrameSize = MinFrameSize + MaxDataSize
)
