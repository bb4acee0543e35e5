package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-wlflash/register"
)

// program runs the raw register sequence without the flash package.
func program(t *testing.T, p *Port, address uint32, value uint64) register.Status {
	t.Helper()
	view := p.View()
	require.NoError(t, p.WriteRegister(view.Status, uint32(register.ClearMask)))
	require.NoError(t, p.WriteRegister(view.Control, uint32(register.PG)))
	require.NoError(t, p.WriteWord(address, uint32(value)))
	require.NoError(t, p.WriteWord(address+4, uint32(value>>32)))

	var st register.Status
	for i := 0; i < 100; i++ {
		v, err := p.ReadRegister(view.Status)
		require.NoError(t, err)
		st = register.Status(v)
		if !st.InProgress() {
			break
		}
	}
	require.NoError(t, p.WriteRegister(view.Control, 0))
	return st
}

func TestNewIsErased(t *testing.T) {
	dev := New(WithFlash(register.FlashBase, 4096))
	p := dev.Port(register.CPU1)

	for _, addr := range []uint32{register.FlashBase, register.FlashBase + 4092} {
		v, err := p.ReadWord(addr)
		require.NoError(t, err)
		assert.Equal(t, uint32(register.ErasedWord), v)
	}
	_, err := p.ReadWord(register.FlashBase + 4096)
	assert.ErrorIs(t, err, ErrBusFault)
	assert.Same(t, p, dev.Port(register.CPU1))
}

func TestBusyForConfiguredPolls(t *testing.T) {
	dev := New(WithBusyPolls(3))
	p := dev.Port(register.CPU1)

	require.NoError(t, p.WriteRegister(register.OffsetCR, uint32(register.PG)))
	require.NoError(t, p.WriteWord(register.FlashBase, 1))
	require.NoError(t, p.WriteWord(register.FlashBase+4, 2))

	st, _ := dev.Peek(register.CPU1)
	assert.True(t, st.Busy(), "Peek shows busy")

	var seen []bool
	for i := 0; i < 4; i++ {
		v, _ := p.ReadRegister(register.OffsetSR)
		seen = append(seen, register.Status(v).Busy())
	}
	assert.Equal(t, []bool{true, true, true, false}, seen)

	st, _ = dev.Peek(register.CPU1)
	assert.True(t, st.EndOfOperation())
}

func TestProgramSequence(t *testing.T) {
	dev := New()
	p := dev.Port(register.CPU1)

	st := program(t, p, register.FlashBase+0x10, 0x1122_3344_5566_7788)
	assert.Equal(t, register.EOP, st)

	lo, _ := p.ReadWord(register.FlashBase + 0x10)
	hi, _ := p.ReadWord(register.FlashBase + 0x14)
	assert.Equal(t, uint32(0x5566_7788), lo)
	assert.Equal(t, uint32(0x1122_3344), hi)
}

func TestSequenceErrors(t *testing.T) {
	tests := []struct {
		name  string
		run   func(*Device, *Port)
		flags register.Status
	}{
		{
			name: "write without PG",
			run: func(d *Device, p *Port) {
				_ = p.WriteWord(register.FlashBase, 0)
			},
			flags: register.PGSERR,
		},
		{
			name: "misaligned first word",
			run: func(d *Device, p *Port) {
				_ = p.WriteRegister(register.OffsetCR, uint32(register.PG))
				_ = p.WriteWord(register.FlashBase+4, 0)
			},
			flags: register.PGAERR,
		},
		{
			name: "second word elsewhere",
			run: func(d *Device, p *Port) {
				_ = p.WriteRegister(register.OffsetCR, uint32(register.PG))
				_ = p.WriteWord(register.FlashBase, 0)
				_ = p.WriteWord(register.FlashBase+12, 0)
			},
			flags: register.PGAERR,
		},
		{
			name: "write while suspended",
			run: func(d *Device, p *Port) {
				_ = p.WriteRegister(register.OffsetCR, uint32(register.PG))
				d.SetSuspended(true)
				_ = p.WriteWord(register.FlashBase, 0)
			},
			flags: register.PGSERR,
		},
		{
			name: "stale error",
			run: func(d *Device, p *Port) {
				_ = p.WriteRegister(register.OffsetCR, uint32(register.PG))
				_ = p.WriteWord(register.FlashBase+4, 0)
				_ = p.WriteWord(register.FlashBase, 0)
			},
			flags: register.PGAERR | register.PGSERR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := New()
			p := dev.Port(register.CPU1)
			tt.run(dev, p)

			st, _ := dev.Peek(register.CPU1)
			assert.Equal(t, tt.flags, st.Errors())

			v, _ := p.ReadWord(register.FlashBase)
			assert.Equal(t, uint32(register.ErasedWord), v, "memory changed")
		})
	}
}

func TestWriteProtectAndProgError(t *testing.T) {
	dev := New(WithProtectedPages(1))
	p := dev.Port(register.CPU1)

	st := program(t, p, register.FlashBase+register.PageSize, 0)
	assert.Equal(t, register.WRPERR, st.Errors())

	require.NoError(t, dev.Load(register.FlashBase, []byte{0, 0, 0, 0, 0, 0, 0, 0}))
	st = program(t, p, register.FlashBase, 0x1)
	assert.Equal(t, register.PROGERR, st.Errors())

	require.NoError(t, dev.ErasePage(0))
	st = program(t, p, register.FlashBase, 0x1)
	assert.False(t, st.HasErrors())
}

func TestWriteOneToClear(t *testing.T) {
	dev := New()
	p := dev.Port(register.CPU1)

	dev.InjectFault(register.PROGERR | register.OPERR)
	st := program(t, p, register.FlashBase, 1)
	require.Equal(t, register.PROGERR|register.OPERR, st.Errors())

	require.NoError(t, p.WriteRegister(register.OffsetSR, uint32(register.OPERR)))
	st, _ = dev.Peek(register.CPU1)
	assert.Equal(t, register.PROGERR, st.Errors())

	// Writing zeros and read-only bits changes nothing.
	require.NoError(t, p.WriteRegister(register.OffsetSR, uint32(register.BSY)))
	st, _ = dev.Peek(register.CPU1)
	assert.Equal(t, register.PROGERR, st.Errors())
}

func TestOptionErrorDoesNotBlockProgramming(t *testing.T) {
	dev := New()
	p := dev.Port(register.CPU1)
	dev.SetFlags(register.CPU1, register.OPTVERR)

	st := program(t, p, register.FlashBase, 0x0102_0304_0506_0708)
	assert.Zero(t, st.ProgramErrors())
	assert.True(t, st.EndOfOperation())
	assert.Equal(t, register.OPTVERR, st.Errors(), "ClearMask leaves OPTVERR set")

	mem := dev.Dump()
	assert.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, mem[:8])
}

func TestViewsAreIndependent(t *testing.T) {
	dev := New()
	p1 := dev.Port(register.CPU1)
	p2 := dev.Port(register.CPU2)

	_ = p2.WriteWord(register.FlashBase, 0) // no PG on CPU2

	st1, _ := dev.Peek(register.CPU1)
	st2, _ := dev.Peek(register.CPU2)
	assert.False(t, st1.HasErrors())
	assert.Equal(t, register.PGSERR, st2.Errors())

	dev.SetBusy(true)
	v, _ := p1.ReadRegister(register.OffsetSR)
	assert.True(t, register.Status(v).Busy(), "BSY is shared")
}

func TestStats(t *testing.T) {
	dev := New(WithBusyPolls(0))
	p := dev.Port(register.CPU1)

	program(t, p, register.FlashBase, 0)
	s := dev.Stats()
	assert.Equal(t, 2, s.MemoryWrites)
	assert.Equal(t, 3, s.RegisterWrites)
	assert.Equal(t, 1, s.RegisterReads)

	dev.ResetStats()
	assert.Equal(t, Stats{}, dev.Stats())
}

func TestLoadAndErase(t *testing.T) {
	dev := New()

	err := dev.Load(register.FlashBase+register.DefaultFlashSize-2, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrBusFault))

	assert.Error(t, dev.ErasePage(-1))
	assert.Error(t, dev.ErasePage(register.DefaultFlashSize/register.PageSize))

	require.NoError(t, dev.Load(register.FlashBase+register.PageSize, []byte{0xAB}))
	mem := dev.Dump()
	assert.Len(t, mem, register.DefaultFlashSize)
	assert.Equal(t, byte(0xAB), mem[register.PageSize])
	mem[register.PageSize] = 0
	assert.Equal(t, byte(0xAB), dev.Dump()[register.PageSize], "Dump returns a copy")

	require.NoError(t, dev.ErasePage(1))
	assert.Equal(t, byte(0xFF), dev.Dump()[register.PageSize])
}

func TestUnknownViewPanics(t *testing.T) {
	assert.Panics(t, func() {
		New().Port(register.View{Name: "cpu9", Status: 0x200, Control: 0x204})
	})
}
