package flash

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/moffa90/go-wlflash/register"
)

// Peripheral is the peripheral-access layer the controller drives.
//
// Register offsets are relative to the flash register block; memory
// addresses are absolute. WriteWord must perform a single 32-bit store.
// Implementations must be comparable (typically pointers) because ownership
// is tracked per peripheral value.
type Peripheral interface {
	ReadRegister(offset uint32) (uint32, error)
	WriteRegister(offset uint32, value uint32) error
	ReadWord(address uint32) (uint32, error)
	WriteWord(address uint32, value uint32) error
}

// owners tracks which peripherals are currently held by a live Controller.
var owners = struct {
	sync.Mutex
	held map[Peripheral]struct{}
}{held: make(map[Peripheral]struct{})}

// Controller is the exclusive handle over one flash controller.
//
// Controller is not safe for concurrent use. Exclusive ownership is the only
// guard: at most one live Controller exists per peripheral, and only its
// holder may start a programming sequence.
type Controller struct {
	periph   Peripheral
	config   Config
	released bool
}

// New takes ownership of the peripheral and returns a Controller for it.
// It returns ErrAlreadyOwned while another Controller holds the same
// peripheral.
//
// Example:
//
//	ctrl, err := flash.New(mmio.New(register.BaseAddress, register.FlashBase, register.DefaultFlashSize),
//	    flash.WithView(register.CPU2),
//	)
func New(periph Peripheral, opts ...Option) (*Controller, error) {
	if periph == nil {
		panic("peripheral cannot be nil")
	}
	if !reflect.TypeOf(periph).Comparable() {
		return nil, fmt.Errorf("peripheral type %T is not comparable", periph)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	owners.Lock()
	defer owners.Unlock()
	if _, held := owners.held[periph]; held {
		return nil, ErrAlreadyOwned
	}
	owners.held[periph] = struct{}{}

	return &Controller{
		periph: periph,
		config: cfg,
	}, nil
}

// Release gives up ownership and returns the underlying peripheral.
// The Controller is unusable afterwards. Calling Release twice returns nil
// the second time.
func (c *Controller) Release() Peripheral {
	if c.released {
		return nil
	}
	c.released = true

	owners.Lock()
	delete(owners.held, c.periph)
	owners.Unlock()

	p := c.periph
	c.periph = nil
	return p
}

// View returns the register view the controller is bound to.
func (c *Controller) View() register.View {
	return c.config.View
}

// Status reads the status register once.
func (c *Controller) Status() (register.Status, error) {
	if c.released {
		return 0, ErrReleased
	}
	return c.readStatus()
}

// Busy reports whether a flash operation is in progress (BSY).
func (c *Controller) Busy() (bool, error) {
	st, err := c.Status()
	if err != nil {
		return false, err
	}
	return st.Busy(), nil
}

// Suspended reports whether program and erase are suspended (PESD).
func (c *Controller) Suspended() (bool, error) {
	st, err := c.Status()
	if err != nil {
		return false, err
	}
	return st.Suspended(), nil
}

// Control reads the control register of the bound view once.
func (c *Controller) Control() (register.Control, error) {
	if c.released {
		return 0, ErrReleased
	}
	offset := c.config.View.Control
	v, err := c.periph.ReadRegister(offset)
	if err != nil {
		return 0, &TransportError{Op: "read control", Address: offset, Err: err}
	}
	return register.Control(v), nil
}

// ClearAllErrors clears every sticky error flag and EOP with a single
// write-one-to-clear access. Clearing with no flag set changes nothing.
func (c *Controller) ClearAllErrors() error {
	if c.released {
		return ErrReleased
	}
	return c.writeRegister("clear status", c.config.View.Status, uint32(register.ClearMask))
}

// ReadDoubleWord reads the 64-bit value stored at address, low word first.
func (c *Controller) ReadDoubleWord(address uint32) (uint64, error) {
	if c.released {
		return 0, ErrReleased
	}
	lo, err := c.periph.ReadWord(address)
	if err != nil {
		return 0, &TransportError{Op: "read word", Address: address, Err: err}
	}
	hi, err := c.periph.ReadWord(address + register.WordSize)
	if err != nil {
		return 0, &TransportError{Op: "read word", Address: address + register.WordSize, Err: err}
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (c *Controller) readStatus() (register.Status, error) {
	v, err := c.periph.ReadRegister(c.config.View.Status)
	if err != nil {
		return 0, &TransportError{Op: "read status", Address: c.config.View.Status, Err: err}
	}
	return register.Status(v), nil
}

func (c *Controller) writeRegister(op string, offset, value uint32) error {
	if err := c.periph.WriteRegister(offset, value); err != nil {
		return &TransportError{Op: op, Address: offset, Err: err}
	}
	return nil
}

// setProgramming sets or clears PG with a read-modify-write of the control
// register.
func (c *Controller) setProgramming(enable bool) error {
	offset := c.config.View.Control
	v, err := c.periph.ReadRegister(offset)
	if err != nil {
		return &TransportError{Op: "read control", Address: offset, Err: err}
	}
	cr := register.Control(v)
	if enable {
		cr |= register.PG
	} else {
		cr &^= register.PG
	}
	return c.writeRegister("write control", offset, uint32(cr))
}

// logDebug logs a debug message if a logger is configured.
func (c *Controller) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Controller) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Controller) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
