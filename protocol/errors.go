package protocol

import "fmt"

// ProtocolError represents an error status returned by the monitor.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the error code from the monitor
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	statusName := getStatusName(e.StatusCode)
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, statusName, e.StatusCode)
}

// IsProtocolError returns true if the error is a ProtocolError.
func IsProtocolError(err error) bool {
	_, ok := err.(*ProtocolError)
	return ok
}

// getStatusName returns a human-readable name for a status code.
func getStatusName(code byte) string {
	switch code {
	case StatusSuccess:
		return "success"
	case ErrLength:
		return "invalid length"
	case ErrData:
		return "invalid data"
	case ErrCommand:
		return "unrecognized command"
	case ErrChecksum:
		return "checksum mismatch"
	case ErrAddress:
		return "bus fault"
	case ErrUnknown:
		return "unknown error"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}

// CommandName returns the name of a command code.
func CommandName(cmd byte) string {
	switch cmd {
	case CmdPing:
		return "ping"
	case CmdReadRegister:
		return "read register"
	case CmdWriteRegister:
		return "write register"
	case CmdReadWord:
		return "read word"
	case CmdWriteWord:
		return "write word"
	default:
		return fmt.Sprintf("command 0x%02X", cmd)
	}
}
