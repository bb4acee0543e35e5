package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestBuildPingCmd(t *testing.T) {
	frame, err := BuildPingCmd(0x05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sum 0x01+0x01+0x00+0x05 = 0x07
	expected := []byte{StartOfPacket, CmdPing, 0x01, 0x00, 0x05, 0xF9, 0xFF, EndOfPacket}
	if !bytes.Equal(frame, expected) {
		t.Errorf("frame = % X, want % X", frame, expected)
	}
}

func TestBuildReadRegisterCmd(t *testing.T) {
	frame, err := BuildReadRegisterCmd(0x2A, 0x10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(frame) != MinFrameSize+SequenceSize+AddressSize {
		t.Fatalf("frame length = %d, want %d", len(frame), MinFrameSize+SequenceSize+AddressSize)
	}
	if frame[1] != CmdReadRegister {
		t.Errorf("CMD = 0x%02X, want 0x%02X", frame[1], CmdReadRegister)
	}
	if got := binary.LittleEndian.Uint16(frame[2:4]); got != SequenceSize+AddressSize {
		t.Errorf("length = %d, want %d", got, SequenceSize+AddressSize)
	}
	if frame[4] != 0x2A {
		t.Errorf("SEQ = 0x%02X, want 0x2A", frame[4])
	}
	if got := binary.LittleEndian.Uint32(frame[5:9]); got != 0x10 {
		t.Errorf("offset = 0x%X, want 0x10", got)
	}

	cmd, seq, data, err := ParseCommand(frame)
	if err != nil {
		t.Fatalf("frame does not parse: %v", err)
	}
	if cmd != CmdReadRegister || seq != 0x2A || len(data) != AddressSize {
		t.Errorf("parsed cmd=0x%02X seq=0x%02X len=%d", cmd, seq, len(data))
	}
}

func TestBuildWriteCmds(t *testing.T) {
	tests := []struct {
		name    string
		build   func(byte, uint32, uint32) ([]byte, error)
		cmd     byte
		address uint32
		value   uint32
	}{
		{
			name:    "write register",
			build:   BuildWriteRegisterCmd,
			cmd:     CmdWriteRegister,
			address: 0x14,
			value:   0x0000_0001,
		},
		{
			name:    "write word",
			build:   BuildWriteWordCmd,
			cmd:     CmdWriteWord,
			address: 0x0800_1000,
			value:   0xDEAD_BEEF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := tt.build(0xFE, tt.address, tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			cmd, seq, data, err := ParseCommand(frame)
			if err != nil {
				t.Fatalf("frame does not parse: %v", err)
			}
			if cmd != tt.cmd {
				t.Errorf("CMD = 0x%02X, want 0x%02X", cmd, tt.cmd)
			}
			if seq != 0xFE {
				t.Errorf("SEQ = 0x%02X, want 0xFE", seq)
			}

			address, value, err := ParseAddressValue(data)
			if err != nil {
				t.Fatalf("payload does not parse: %v", err)
			}
			if address != tt.address {
				t.Errorf("address = 0x%08X, want 0x%08X", address, tt.address)
			}
			if value != tt.value {
				t.Errorf("value = 0x%08X, want 0x%08X", value, tt.value)
			}
		})
	}
}

func TestBuildReadWordCmd(t *testing.T) {
	frame, err := BuildReadWordCmd(0, 0x0800_1004)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd, _, data, err := ParseCommand(frame)
	if err != nil {
		t.Fatalf("frame does not parse: %v", err)
	}
	if cmd != CmdReadWord {
		t.Errorf("CMD = 0x%02X, want 0x%02X", cmd, CmdReadWord)
	}
	address, err := ParseAddress(data)
	if err != nil {
		t.Fatalf("payload does not parse: %v", err)
	}
	if address != 0x0800_1004 {
		t.Errorf("address = 0x%08X, want 0x08001004", address)
	}
}

func TestBuildResponseTooLarge(t *testing.T) {
	_, err := BuildResponse(StatusSuccess, 0, make([]byte, MaxDataSize))
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("exceeds maximum")) {
		t.Errorf("error = %v, want substring %q", err, "exceeds maximum")
	}
}
