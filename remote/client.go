package remote

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-wlflash/flash"
	"github.com/moffa90/go-wlflash/protocol"
)

var _ flash.Peripheral = (*Client)(nil)

// maxStaleFrames bounds how many answers to abandoned attempts are skipped
// while waiting for the current one.
const maxStaleFrames = 8

// Client reaches a flash controller through the monitor running on the
// target. It implements flash.Peripheral, so a Controller can drive a
// remote part exactly as it drives a local one.
//
// Client is safe for concurrent use; frames are serialized.
type Client struct {
	mu     sync.Mutex
	device io.ReadWriter
	config Config
	seq    byte
}

// New creates a Client on the given link. The device is typically a serial
// port opened at the monitor's baud rate.
//
// Example:
//
//	port, _ := serial.Open("/dev/ttyUSB0", &serial.Mode{BaudRate: 115200})
//	client := remote.New(port, remote.WithRetries(3))
//	ctrl, err := flash.New(client)
func New(device io.ReadWriter, opts ...Option) *Client {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		device: device,
		config: cfg,
	}
}

// Ping checks that the monitor is answering.
func (c *Client) Ping() error {
	_, err := c.transact(protocol.CmdPing, protocol.BuildPingCmd, true)
	return err
}

// ReadRegister reads a flash controller register at the given offset.
func (c *Client) ReadRegister(offset uint32) (uint32, error) {
	return c.readValue(protocol.CmdReadRegister, func(seq byte) ([]byte, error) {
		return protocol.BuildReadRegisterCmd(seq, offset)
	})
}

// WriteRegister writes a flash controller register at the given offset.
func (c *Client) WriteRegister(offset uint32, value uint32) error {
	_, err := c.transact(protocol.CmdWriteRegister, func(seq byte) ([]byte, error) {
		return protocol.BuildWriteRegisterCmd(seq, offset, value)
	}, false)
	return err
}

// ReadWord reads a 32-bit word of target memory.
func (c *Client) ReadWord(address uint32) (uint32, error) {
	return c.readValue(protocol.CmdReadWord, func(seq byte) ([]byte, error) {
		return protocol.BuildReadWordCmd(seq, address)
	})
}

// WriteWord writes a 32-bit word of target memory.
func (c *Client) WriteWord(address uint32, value uint32) error {
	_, err := c.transact(protocol.CmdWriteWord, func(seq byte) ([]byte, error) {
		return protocol.BuildWriteWordCmd(seq, address, value)
	}, false)
	return err
}

// buildFunc builds a command frame carrying the given sequence byte.
type buildFunc func(seq byte) ([]byte, error)

func (c *Client) readValue(code byte, build buildFunc) (uint32, error) {
	data, err := c.transact(code, build, true)
	if err != nil {
		return 0, err
	}
	value, err := protocol.ParseValueResponse(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", protocol.CommandName(code), err)
	}
	return value, nil
}

// transact sends one command and waits for its response. Idempotent
// commands are retried when the response frame is unusable. Every attempt
// uses a fresh sequence byte, so a late answer to an abandoned attempt is
// never taken for the answer to a later one.
func (c *Client) transact(code byte, build buildFunc, idempotent bool) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	attempts := 1
	if idempotent {
		attempts += c.config.Retries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := c.exchange(code, build)
		if err == nil {
			return data, nil
		}
		lastErr = err

		// The monitor answered; asking again will not change its mind.
		var perr *protocol.ProtocolError
		if errors.As(err, &perr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			break
		}
		c.logDebug("retrying command", "command", protocol.CommandName(code), "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

func (c *Client) exchange(code byte, build buildFunc) ([]byte, error) {
	c.seq++
	seq := c.seq
	cmd, err := build(seq)
	if err != nil {
		return nil, err
	}

	if _, err := c.device.Write(cmd); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	// Apply inter-command delay if configured
	if c.config.CommandDelay > 0 {
		time.Sleep(c.config.CommandDelay)
	}

	for stale := 0; ; stale++ {
		frame, err := protocol.ReadFrame(c.device)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		status, got, data, err := protocol.ParseResponse(frame)
		if err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}

		if got != seq {
			if stale >= maxStaleFrames {
				return nil, fmt.Errorf("no response to sequence %d after %d stale frames", seq, stale+1)
			}
			c.logDebug("discarding stale response", "command", protocol.CommandName(code), "want", seq, "got", got)
			continue
		}

		c.logDebug("frame", "command", protocol.CommandName(code), "status", fmt.Sprintf("0x%02X", status), "len", len(data))

		if status != protocol.StatusSuccess {
			return nil, &protocol.ProtocolError{
				Operation:  protocol.CommandName(code),
				StatusCode: status,
			}
		}
		return data, nil
	}
}

func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}
