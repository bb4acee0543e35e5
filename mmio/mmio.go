package mmio

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/moffa90/go-wlflash/flash"
)

// RegisterSpan is the size of the flash register block.
const RegisterSpan = 0x400

var _ flash.Peripheral = (*Bus)(nil)

// ErrUnaligned is returned for accesses that are not 32-bit aligned.
var ErrUnaligned = errors.New("unaligned access")

// ErrOutOfRange is returned for accesses outside the mapped windows.
var ErrOutOfRange = errors.New("access outside mapped window")

// Bus performs volatile 32-bit loads and stores on memory-mapped flash
// registers and flash memory. It is the peripheral used when the code runs
// on the part itself.
type Bus struct {
	regs uintptr
	mem  uintptr
	base uint32
	size uint32
}

// New maps the register block at registers and the flash memory window
// [memoryBase, memoryBase+memorySize) at its own physical address.
//
// Example:
//
//	bus := mmio.New(register.BaseAddress, register.FlashBase, register.DefaultFlashSize)
//	ctrl, err := flash.New(bus)
func New(registers uintptr, memoryBase, memorySize uint32) *Bus {
	return NewWindow(registers, uintptr(memoryBase), memoryBase, memorySize)
}

// NewWindow is like New but maps the flash window at an arbitrary host
// address, as when flash is reached through an mmap'd device file.
func NewWindow(registers, memory uintptr, memoryBase, memorySize uint32) *Bus {
	if registers == 0 || memory == 0 {
		panic("mapping address cannot be zero")
	}
	return &Bus{
		regs: registers,
		mem:  memory,
		base: memoryBase,
		size: memorySize,
	}
}

func (b *Bus) ReadRegister(offset uint32) (uint32, error) {
	p, err := b.register(offset)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (b *Bus) WriteRegister(offset uint32, value uint32) error {
	p, err := b.register(offset)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, value)
	return nil
}

func (b *Bus) ReadWord(address uint32) (uint32, error) {
	p, err := b.word(address)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (b *Bus) WriteWord(address uint32, value uint32) error {
	p, err := b.word(address)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, value)
	return nil
}

func (b *Bus) register(offset uint32) (*uint32, error) {
	if offset%4 != 0 {
		return nil, fmt.Errorf("register 0x%03X: %w", offset, ErrUnaligned)
	}
	if offset >= RegisterSpan {
		return nil, fmt.Errorf("register 0x%03X: %w", offset, ErrOutOfRange)
	}
	return (*uint32)(unsafe.Pointer(b.regs + uintptr(offset))), nil
}

func (b *Bus) word(address uint32) (*uint32, error) {
	if address%4 != 0 {
		return nil, fmt.Errorf("address 0x%08X: %w", address, ErrUnaligned)
	}
	if address < b.base || uint64(address-b.base)+4 > uint64(b.size) {
		return nil, fmt.Errorf("address 0x%08X: %w", address, ErrOutOfRange)
	}
	return (*uint32)(unsafe.Pointer(b.mem + uintptr(address-b.base))), nil
}
