// Package protocol implements the monitor link used to reach a flash
// controller on a remote target.
//
// The target runs a small monitor that performs 32-bit register and memory
// accesses on behalf of the host. Every access is one command frame and one
// response frame.
//
// # Protocol Overview
//
//	Command:  [SOP][CMD][LEN_L][LEN_H][SEQ][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//	Response: [SOP][STATUS][LEN_L][LEN_H][SEQ][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//
// Where:
//   - SOP = Start of Packet (0x01)
//   - EOP = End of Packet (0x17)
//   - LEN = 16-bit data length including SEQ (little-endian)
//   - SEQ = sequence byte chosen by the host and echoed in the response
//   - CHECKSUM = 16-bit checksum (little-endian, 2's complement)
//
// Addresses and values in DATA are 32-bit little-endian. A host that gave up
// on a late response recognises it by its SEQ and discards it.
//
// # Command Builders
//
//	frame, err := protocol.BuildReadRegisterCmd(seq, register.OffsetSR)
//	frame, err := protocol.BuildWriteWordCmd(seq, 0x08001000, 0xDEADBEEF)
//
// # Frame Parsing
//
// ReadFrame pulls one frame off a stream, discarding bytes before the next
// start-of-packet marker. ParseResponse and ParseCommand validate a frame
// and return its code, sequence byte and data:
//
//	frame, err := protocol.ReadFrame(port)
//	status, seq, data, err := protocol.ParseResponse(frame)
//	if status != protocol.StatusSuccess {
//	    return &protocol.ProtocolError{Operation: "read word", StatusCode: status}
//	}
//	value, err := protocol.ParseValueResponse(data)
package protocol
