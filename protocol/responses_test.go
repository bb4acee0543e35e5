package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// Helper function to build a valid response frame for testing
func buildTestResponse(statusCode byte, data []byte) []byte {
	dataLen := uint16(len(data))
	frame := make([]byte, 0, MinFrameSize+len(data))

	frame = append(frame, StartOfPacket)
	frame = append(frame, statusCode)

	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, dataLen)
	frame = append(frame, lenBytes...)

	frame = append(frame, data...)

	checksum := calculatePacketChecksum(frame[1:])
	checksumBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(checksumBytes, checksum)
	frame = append(frame, checksumBytes...)

	frame = append(frame, EndOfPacket)

	return frame
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name           string
		frame          []byte
		wantStatusCode byte
		wantSeq        byte
		wantDataLen    int
		wantErr        bool
		errMsg         string
	}{
		{
			name:           "valid response with no data",
			frame:          buildTestResponse(StatusSuccess, []byte{0x07}),
			wantStatusCode: StatusSuccess,
			wantSeq:        0x07,
			wantDataLen:    0,
			wantErr:        false,
		},
		{
			name:           "valid response with data",
			frame:          buildTestResponse(StatusSuccess, []byte{0x80, 0x01, 0x02, 0x03}),
			wantStatusCode: StatusSuccess,
			wantSeq:        0x80,
			wantDataLen:    3,
			wantErr:        false,
		},
		{
			name:           "error status code",
			frame:          buildTestResponse(ErrChecksum, []byte{0x00}),
			wantStatusCode: ErrChecksum,
			wantDataLen:    0,
			wantErr:        false,
		},
		{
			name:    "missing sequence byte",
			frame:   buildTestResponse(StatusSuccess, nil),
			wantErr: true,
			errMsg:  "no sequence byte",
		},
		{
			name:    "frame too short",
			frame:   []byte{0x01, 0x00},
			wantErr: true,
			errMsg:  "frame too short",
		},
		{
			name:    "invalid start of packet",
			frame:   []byte{0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x17},
			wantErr: true,
			errMsg:  "invalid start of packet",
		},
		{
			name:    "invalid end of packet",
			frame:   []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF},
			wantErr: true,
			errMsg:  "invalid end of packet",
		},
		{
			name: "checksum mismatch",
			frame: []byte{
				StartOfPacket,
				StatusSuccess,
				0x00, 0x00, // length
				0xFF, 0xFF, // wrong checksum
				EndOfPacket,
			},
			wantErr: true,
			errMsg:  "checksum mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statusCode, seq, data, err := ParseResponse(tt.frame)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if statusCode != tt.wantStatusCode {
				t.Errorf("statusCode = 0x%02X, want 0x%02X", statusCode, tt.wantStatusCode)
			}

			if seq != tt.wantSeq {
				t.Errorf("seq = 0x%02X, want 0x%02X", seq, tt.wantSeq)
			}

			if len(data) != tt.wantDataLen {
				t.Errorf("data length = %d, want %d", len(data), tt.wantDataLen)
			}
		})
	}
}

func TestParseValueResponse(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint32
		wantErr bool
	}{
		{
			name: "little-endian value",
			data: []byte{0x21, 0x00, 0x01, 0x00},
			want: 0x0001_0021,
		},
		{
			name:    "data too short",
			data:    []byte{0x01, 0x02},
			wantErr: true,
		},
		{
			name:    "data too long",
			data:    make([]byte, 8),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValueResponse(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !bytes.Contains([]byte(err.Error()), []byte("invalid data length")) {
					t.Errorf("error = %v, want substring %q", err, "invalid data length")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("value = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}
}

func TestBuildValueResponseRoundTrip(t *testing.T) {
	frame, err := BuildValueResponse(0x33, 0xCAFE_F00D)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, seq, data, err := ParseResponse(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusSuccess {
		t.Errorf("status = 0x%02X, want success", status)
	}
	if seq != 0x33 {
		t.Errorf("seq = 0x%02X, want 0x33", seq)
	}
	value, err := ParseValueResponse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 0xCAFE_F00D {
		t.Errorf("value = 0x%08X, want 0xCAFEF00D", value)
	}
}

func TestParseAddressValueLength(t *testing.T) {
	if _, _, err := ParseAddressValue(make([]byte, AddressSize)); err == nil {
		t.Error("expected error for short payload")
	}
	if _, err := ParseAddress(make([]byte, AddressSize+1)); err == nil {
		t.Error("expected error for long payload")
	}
}

func TestReadFrame(t *testing.T) {
	first := buildTestResponse(StatusSuccess, []byte{0x01, 0x02, 0x03, 0x04})
	second := buildTestResponse(ErrAddress, nil)

	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0xAA, 0x17}) // line noise before the first frame
	stream.Write(first)
	stream.Write(second)

	got, err := ReadFrame(&stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Errorf("first frame = % X, want % X", got, first)
	}

	got, err = ReadFrame(&stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Errorf("second frame = % X, want % X", got, second)
	}

	if _, err := ReadFrame(&stream); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	frame := buildTestResponse(StatusSuccess, []byte{0x01, 0x02, 0x03, 0x04})

	_, err := ReadFrame(bytes.NewReader(frame[:len(frame)-2]))
	if err == nil {
		t.Fatal("expected error for truncated frame")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadFrameOversized(t *testing.T) {
	header := []byte{StartOfPacket, StatusSuccess, 0xFF, 0xFF}

	_, err := ReadFrame(bytes.NewReader(header))
	if err == nil {
		t.Fatal("expected error for oversized length")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("exceeds maximum")) {
		t.Errorf("error = %v, want substring %q", err, "exceeds maximum")
	}
}

func TestProtocolError(t *testing.T) {
	err := error(&ProtocolError{Operation: CommandName(CmdWriteWord), StatusCode: ErrAddress})

	if !IsProtocolError(err) {
		t.Error("IsProtocolError() = false, want true")
	}
	want := "write word failed: bus fault (0x0A)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if IsProtocolError(errors.New("other")) {
		t.Error("IsProtocolError() = true for plain error")
	}
}
