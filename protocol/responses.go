package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ParseFrame validates a frame and extracts its code and data.
// Validates frame structure, length, and checksum.
func ParseFrame(frame []byte) (code byte, data []byte, err error) {
	if len(frame) < MinFrameSize {
		return 0, nil, fmt.Errorf("frame too short: got %d bytes, minimum is %d", len(frame), MinFrameSize)
	}

	if frame[0] != StartOfPacket {
		return 0, nil, fmt.Errorf("invalid start of packet: got 0x%02X, expected 0x%02X", frame[0], StartOfPacket)
	}

	if frame[len(frame)-1] != EndOfPacket {
		return 0, nil, fmt.Errorf("invalid end of packet: got 0x%02X, expected 0x%02X", frame[len(frame)-1], EndOfPacket)
	}

	code = frame[1]
	dataLen := binary.LittleEndian.Uint16(frame[2:4])

	expectedLen := int(MinFrameSize + dataLen)
	if len(frame) != expectedLen {
		return 0, nil, fmt.Errorf("frame length mismatch: got %d bytes, expected %d (MinFrameSize=%d + dataLen=%d)",
			len(frame), expectedLen, MinFrameSize, dataLen)
	}

	// Verify checksum
	checksumExpected := binary.LittleEndian.Uint16(frame[len(frame)-3 : len(frame)-1])
	checksumActual := calculatePacketChecksum(frame[1 : len(frame)-3])

	if checksumExpected != checksumActual {
		return 0, nil, &ChecksumError{Expected: checksumExpected, Actual: checksumActual}
	}

	// Extract data if present
	if dataLen > 0 {
		data = frame[4 : 4+dataLen]
	}

	return code, data, nil
}

// ParseResponse extracts status code, echoed sequence byte and data from a
// response frame.
//
// Response frame structure:
//
//	[SOP][STATUS][LEN_L][LEN_H][SEQ][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
func ParseResponse(frame []byte) (statusCode, seq byte, data []byte, err error) {
	return parseTagged(frame)
}

// ParseCommand extracts the command code, sequence byte and payload from a
// command frame.
func ParseCommand(frame []byte) (cmd, seq byte, data []byte, err error) {
	return parseTagged(frame)
}

func parseTagged(frame []byte) (code, seq byte, data []byte, err error) {
	code, data, err = ParseFrame(frame)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(data) < SequenceSize {
		return 0, 0, nil, fmt.Errorf("frame has no sequence byte")
	}
	return code, data[0], data[SequenceSize:], nil
}

// ParseValueResponse parses the data of a Read Register or Read Word response.
//
// Data format (4 bytes):
//
//	[VALUE(4)]
func ParseValueResponse(data []byte) (uint32, error) {
	if len(data) != ValueSize {
		return 0, fmt.Errorf("invalid data length for value response: got %d bytes, expected %d", len(data), ValueSize)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseAddress parses the payload of Read Register and Read Word commands.
func ParseAddress(data []byte) (uint32, error) {
	if len(data) != AddressSize {
		return 0, fmt.Errorf("invalid data length: got %d bytes, expected %d", len(data), AddressSize)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseAddressValue parses the payload of Write Register and Write Word commands.
func ParseAddressValue(data []byte) (address, value uint32, err error) {
	if len(data) != AddressSize+ValueSize {
		return 0, 0, fmt.Errorf("invalid data length: got %d bytes, expected %d", len(data), AddressSize+ValueSize)
	}
	return binary.LittleEndian.Uint32(data[0:4]), binary.LittleEndian.Uint32(data[4:8]), nil
}

// ReadFrame reads one complete frame from a byte stream. Bytes before a
// start-of-packet marker are discarded.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	for {
		if _, err := io.ReadFull(r, header[:1]); err != nil {
			return nil, err
		}
		if header[0] == StartOfPacket {
			break
		}
	}
	if _, err := io.ReadFull(r, header[1:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dataLen := int(binary.LittleEndian.Uint16(header[2:4]))
	if dataLen > MaxDataSize {
		return nil, fmt.Errorf("frame data length %d exceeds maximum %d bytes", dataLen, MaxDataSize)
	}

	frame := make([]byte, MinFrameSize+dataLen)
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return frame, nil
}

// ChecksumError indicates a frame whose checksum does not match its content.
type ChecksumError struct {
	Expected uint16
	Actual   uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: got 0x%04X, expected 0x%04X", e.Actual, e.Expected)
}
