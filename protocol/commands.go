package protocol

import (
	"encoding/binary"
	"fmt"
)

// buildFrame wraps a code and payload into a frame:
//
//	[SOP][CODE][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
func buildFrame(code byte, data []byte) ([]byte, error) {
	if len(data) > MaxDataSize {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(data), MaxDataSize)
	}

	frame := make([]byte, 0, MinFrameSize+len(data))

	// Start of packet
	frame = append(frame, StartOfPacket)

	// Command or status
	frame = append(frame, code)

	// Data length (little-endian)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(data)))

	frame = append(frame, data...)

	// Checksum covers everything after SOP up to the checksum
	checksum := calculatePacketChecksum(frame[1:])
	frame = binary.LittleEndian.AppendUint16(frame, checksum)

	// End of packet
	frame = append(frame, EndOfPacket)

	return frame, nil
}

// tagged prefixes a payload with the sequence byte.
func tagged(seq byte, data []byte) []byte {
	out := make([]byte, 0, SequenceSize+len(data))
	out = append(out, seq)
	return append(out, data...)
}

// BuildPingCmd constructs a Ping command frame.
//
// Frame structure:
//
//	[SOP][CMD][0x01][0x00][SEQ][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildPingCmd(seq byte) ([]byte, error) {
	return buildFrame(CmdPing, tagged(seq, nil))
}

// BuildReadRegisterCmd constructs a Read Register command frame.
// The offset is relative to the flash register block.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][SEQ][OFFSET(4)][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildReadRegisterCmd(seq byte, offset uint32) ([]byte, error) {
	return buildFrame(CmdReadRegister, tagged(seq, binary.LittleEndian.AppendUint32(nil, offset)))
}

// BuildWriteRegisterCmd constructs a Write Register command frame.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][SEQ][OFFSET(4)][VALUE(4)][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildWriteRegisterCmd(seq byte, offset, value uint32) ([]byte, error) {
	data := binary.LittleEndian.AppendUint32(nil, offset)
	data = binary.LittleEndian.AppendUint32(data, value)
	return buildFrame(CmdWriteRegister, tagged(seq, data))
}

// BuildReadWordCmd constructs a Read Word command frame for an absolute
// memory address.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][SEQ][ADDRESS(4)][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildReadWordCmd(seq byte, address uint32) ([]byte, error) {
	return buildFrame(CmdReadWord, tagged(seq, binary.LittleEndian.AppendUint32(nil, address)))
}

// BuildWriteWordCmd constructs a Write Word command frame. The monitor
// must perform exactly one 32-bit store.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][SEQ][ADDRESS(4)][VALUE(4)][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildWriteWordCmd(seq byte, address, value uint32) ([]byte, error) {
	data := binary.LittleEndian.AppendUint32(nil, address)
	data = binary.LittleEndian.AppendUint32(data, value)
	return buildFrame(CmdWriteWord, tagged(seq, data))
}

// BuildResponse constructs a response frame with the given status and data.
// seq echoes the sequence byte of the command being answered.
// Used by monitors and responders.
//
// Frame structure:
//
//	[SOP][STATUS][LEN_L][LEN_H][SEQ][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildResponse(status, seq byte, data []byte) ([]byte, error) {
	return buildFrame(status, tagged(seq, data))
}

// BuildValueResponse constructs a successful response carrying one value.
func BuildValueResponse(seq byte, value uint32) ([]byte, error) {
	return BuildResponse(StatusSuccess, seq, binary.LittleEndian.AppendUint32(nil, value))
}
