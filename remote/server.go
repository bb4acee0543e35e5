package remote

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-wlflash/flash"
	"github.com/moffa90/go-wlflash/protocol"
)

// Serve answers monitor commands read from rw by performing them on target.
// It is the target side of the link and is used to put a simulated or
// locally attached controller behind a Client.
//
// Serve returns nil when rw reaches EOF. If rw is an io.Closer it is closed
// when ctx is cancelled, and Serve returns the context error.
func Serve(ctx context.Context, rw io.ReadWriter, target flash.Peripheral) error {
	if target == nil {
		panic("target cannot be nil")
	}

	done := make(chan struct{})
	defer close(done)
	if closer, ok := rw.(io.Closer); ok {
		go func() {
			select {
			case <-ctx.Done():
				closer.Close()
			case <-done:
			}
		}()
	}

	for {
		frame, err := protocol.ReadFrame(rw)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		resp := handle(frame, target)
		if _, err := rw.Write(resp); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// handle executes one command frame and returns the response frame. The
// response echoes the command's sequence byte.
func handle(frame []byte, target flash.Peripheral) []byte {
	cmd, seq, data, err := protocol.ParseCommand(frame)
	if err != nil {
		// Best effort: the sequence byte of a damaged frame may be wrong,
		// in which case the client discards the answer and times out.
		if len(frame) > protocol.HeaderSize {
			seq = frame[protocol.HeaderSize]
		}
		var cerr *protocol.ChecksumError
		if errors.As(err, &cerr) {
			return statusFrame(protocol.ErrChecksum, seq)
		}
		return statusFrame(protocol.ErrData, seq)
	}

	switch cmd {
	case protocol.CmdPing:
		if len(data) != 0 {
			return statusFrame(protocol.ErrLength, seq)
		}
		return statusFrame(protocol.StatusSuccess, seq)

	case protocol.CmdReadRegister, protocol.CmdReadWord:
		address, err := protocol.ParseAddress(data)
		if err != nil {
			return statusFrame(protocol.ErrLength, seq)
		}
		var value uint32
		if cmd == protocol.CmdReadRegister {
			value, err = target.ReadRegister(address)
		} else {
			value, err = target.ReadWord(address)
		}
		if err != nil {
			return statusFrame(protocol.ErrAddress, seq)
		}
		resp, _ := protocol.BuildValueResponse(seq, value)
		return resp

	case protocol.CmdWriteRegister, protocol.CmdWriteWord:
		address, value, err := protocol.ParseAddressValue(data)
		if err != nil {
			return statusFrame(protocol.ErrLength, seq)
		}
		if cmd == protocol.CmdWriteRegister {
			err = target.WriteRegister(address, value)
		} else {
			err = target.WriteWord(address, value)
		}
		if err != nil {
			return statusFrame(protocol.ErrAddress, seq)
		}
		return statusFrame(protocol.StatusSuccess, seq)

	default:
		return statusFrame(protocol.ErrCommand, seq)
	}
}

func statusFrame(status, seq byte) []byte {
	resp, _ := protocol.BuildResponse(status, seq, nil)
	return resp
}
