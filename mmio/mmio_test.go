package mmio

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-wlflash/register"
)

// Stand-ins for the register block and a small flash window.
var (
	regs [RegisterSpan / 4]uint32
	mem  [16]uint32
)

func newTestBus() *Bus {
	regs = [RegisterSpan / 4]uint32{}
	mem = [16]uint32{}
	return NewWindow(
		uintptr(unsafe.Pointer(&regs[0])),
		uintptr(unsafe.Pointer(&mem[0])),
		register.FlashBase,
		uint32(len(mem)*4),
	)
}

func TestRegisterAccess(t *testing.T) {
	bus := newTestBus()

	require.NoError(t, bus.WriteRegister(register.OffsetCR, uint32(register.PG)))
	assert.Equal(t, uint32(register.PG), regs[register.OffsetCR/4])

	regs[register.OffsetC2SR/4] = uint32(register.BSY)
	v, err := bus.ReadRegister(register.OffsetC2SR)
	require.NoError(t, err)
	assert.Equal(t, uint32(register.BSY), v)
}

func TestMemoryAccess(t *testing.T) {
	bus := newTestBus()

	require.NoError(t, bus.WriteWord(register.FlashBase+8, 0x5566_7788))
	require.NoError(t, bus.WriteWord(register.FlashBase+12, 0x1122_3344))
	assert.Equal(t, uint32(0x5566_7788), mem[2])
	assert.Equal(t, uint32(0x1122_3344), mem[3])

	v, err := bus.ReadWord(register.FlashBase + 12)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1122_3344), v)
}

func TestAccessErrors(t *testing.T) {
	bus := newTestBus()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"unaligned register", func() error { _, err := bus.ReadRegister(0x11); return err }, ErrUnaligned},
		{"register past block", func() error { return bus.WriteRegister(RegisterSpan, 0) }, ErrOutOfRange},
		{"unaligned word", func() error { return bus.WriteWord(register.FlashBase+2, 0) }, ErrUnaligned},
		{"below window", func() error { _, err := bus.ReadWord(register.FlashBase - 4); return err }, ErrOutOfRange},
		{"past window", func() error { return bus.WriteWord(register.FlashBase+uint32(len(mem)*4), 0) }, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.want)
		})
	}
}

func TestNewWindowPanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { NewWindow(0, 1, 0, 4) })
}
