package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-wlflash/register"
)

// ErrBusFault is returned for memory accesses outside the flash window.
var ErrBusFault = errors.New("bus fault")

// Config holds the simulated controller configuration.
type Config struct {
	// FlashBase is the address of the first flash byte
	FlashBase uint32

	// FlashSize is the size of main flash memory in bytes
	FlashSize uint32

	// PageSize is the erase and protection granularity
	PageSize uint32

	// BusyPolls is the number of status reads during which BSY stays set
	// after a double-word is accepted. Zero completes immediately.
	BusyPolls int

	// EndOfOperation raises EOP on successful completion, as the hardware
	// does when EOPIE is enabled
	EndOfOperation bool

	// ProtectedPages lists the write-protected page numbers
	ProtectedPages []int
}

func defaultConfig() Config {
	return Config{
		FlashBase:      register.FlashBase,
		FlashSize:      register.DefaultFlashSize,
		PageSize:       register.PageSize,
		BusyPolls:      2,
		EndOfOperation: true,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*Config)

// WithFlash sets the flash window.
func WithFlash(base, size uint32) Option {
	return func(c *Config) {
		if size > 0 {
			c.FlashBase = base
			c.FlashSize = size
		}
	}
}

// WithBusyPolls sets how many status reads an operation stays busy for.
func WithBusyPolls(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.BusyPolls = n
		}
	}
}

// WithEndOfOperation controls whether EOP is raised on success.
func WithEndOfOperation(enabled bool) Option {
	return func(c *Config) {
		c.EndOfOperation = enabled
	}
}

// WithProtectedPages write-protects the given pages.
func WithProtectedPages(pages ...int) Option {
	return func(c *Config) {
		c.ProtectedPages = append(c.ProtectedPages, pages...)
	}
}

// Stats counts the accesses made through all ports.
type Stats struct {
	RegisterReads  int
	RegisterWrites int
	MemoryReads    int
	MemoryWrites   int
}

type latch struct {
	address uint32
	value   uint32
}

type viewState struct {
	view  register.View
	sr    register.Status
	cr    register.Control
	latch *latch
	port  *Port
}

type operation struct {
	vs      *viewState
	address uint32
	value   uint64
	result  register.Status
}

// Device simulates one flash controller shared by two cores, together with
// the flash memory it programs. It is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	cfg       Config
	mem       []byte
	protected map[int]bool
	views     map[uint32]*viewState

	busy       int
	forcedBusy bool
	suspended  bool
	pending    *operation
	fault      register.Status

	stats Stats
}

// New creates a simulated controller with erased flash.
//
// Example:
//
//	dev := sim.New(sim.WithBusyPolls(3), sim.WithProtectedPages(0))
//	ctrl, err := flash.New(dev.Port(register.CPU1))
func New(opts ...Option) *Device {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Device{
		cfg:       cfg,
		mem:       make([]byte, cfg.FlashSize),
		protected: make(map[int]bool),
		views:     make(map[uint32]*viewState),
	}
	for i := range d.mem {
		d.mem[i] = 0xFF
	}
	for _, p := range cfg.ProtectedPages {
		d.protected[p] = true
	}
	for _, v := range []register.View{register.CPU1, register.CPU2} {
		vs := &viewState{view: v}
		vs.port = &Port{dev: d, vs: vs}
		d.views[v.Status] = vs
	}
	return d
}

// Port returns the peripheral seen by the core using the given view.
// The same view always returns the same Port.
func (d *Device) Port(view register.View) *Port {
	d.mu.Lock()
	defer d.mu.Unlock()

	vs, ok := d.views[view.Status]
	if !ok {
		panic(fmt.Sprintf("unknown register view %v", view))
	}
	return vs.port
}

// Config returns the device configuration.
func (d *Device) Config() Config {
	return d.cfg
}

// SetBusy forces BSY on or off, as when the other core runs an operation.
func (d *Device) SetBusy(busy bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forcedBusy = busy
}

// SetSuspended sets or clears PESD.
func (d *Device) SetSuspended(suspended bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended = suspended
}

// Protect write-protects pages.
func (d *Device) Protect(pages ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range pages {
		d.protected[p] = true
	}
}

// SetFlags raises sticky status bits on a view, as option-byte loading does
// with OPTVERR.
func (d *Device) SetFlags(view register.View, bits register.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views[view.Status].sr |= bits
}

// InjectFault makes the next accepted double-word fail with the given
// status bits instead of completing. Memory is left unchanged.
func (d *Device) InjectFault(bits register.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fault = bits
}

// ErasePage sets every byte of a page to 0xFF.
func (d *Device) ErasePage(page int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := uint64(page) * uint64(d.cfg.PageSize)
	end := start + uint64(d.cfg.PageSize)
	if page < 0 || end > uint64(len(d.mem)) {
		return fmt.Errorf("page %d out of range", page)
	}
	for i := start; i < end; i++ {
		d.mem[i] = 0xFF
	}
	return nil
}

// Load copies data into flash without going through the controller.
func (d *Device) Load(address uint32, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	off, ok := d.offset(address, len(data))
	if !ok {
		return fmt.Errorf("load 0x%08X+%d: %w", address, len(data), ErrBusFault)
	}
	copy(d.mem[off:], data)
	return nil
}

// Dump returns a copy of the flash memory, starting at the flash base.
func (d *Device) Dump() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]byte, len(d.mem))
	copy(out, d.mem)
	return out
}

// Peek returns the status and control registers of a view without
// advancing a running operation.
func (d *Device) Peek(view register.View) (register.Status, register.Control) {
	d.mu.Lock()
	defer d.mu.Unlock()

	vs := d.views[view.Status]
	return d.statusOf(vs), vs.cr
}

// Stats returns the access counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes the access counters.
func (d *Device) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = Stats{}
}

func (d *Device) offset(address uint32, length int) (uint64, bool) {
	if address < d.cfg.FlashBase {
		return 0, false
	}
	off := uint64(address - d.cfg.FlashBase)
	if off+uint64(length) > uint64(len(d.mem)) {
		return 0, false
	}
	return off, true
}

func (d *Device) statusOf(vs *viewState) register.Status {
	st := vs.sr
	if d.forcedBusy || d.pending != nil {
		st |= register.BSY
	}
	if d.suspended {
		st |= register.PESD
	}
	return st
}

func (d *Device) viewAt(offset uint32) (*viewState, bool) {
	for _, vs := range d.views {
		if vs.view.Status == offset || vs.view.Control == offset {
			return vs, true
		}
	}
	return nil, false
}

func (d *Device) readRegister(offset uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.RegisterReads++
	vs, ok := d.viewAt(offset)
	if !ok {
		return 0
	}
	if offset == vs.view.Control {
		return uint32(vs.cr)
	}

	st := d.statusOf(vs)
	if d.pending != nil {
		d.busy--
		if d.busy <= 0 {
			d.complete()
		}
	}
	return uint32(st)
}

func (d *Device) writeRegister(offset, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.RegisterWrites++
	vs, ok := d.viewAt(offset)
	if !ok {
		return
	}
	if offset == vs.view.Control {
		vs.cr = register.Control(value)
		if !vs.cr.Programming() {
			vs.latch = nil
		}
		return
	}
	vs.sr &^= register.Status(value) & (register.ErrorMask | register.EOP)
}

func (d *Device) readWord(address uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.MemoryReads++
	off, ok := d.offset(address, register.WordSize)
	if !ok {
		return 0, fmt.Errorf("read 0x%08X: %w", address, ErrBusFault)
	}
	return binary.LittleEndian.Uint32(d.mem[off:]), nil
}

func (d *Device) writeWord(vs *viewState, address, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.MemoryWrites++
	if _, ok := d.offset(address, register.WordSize); !ok {
		return fmt.Errorf("write 0x%08X: %w", address, ErrBusFault)
	}

	// A write during an operation stalls the bus until it is done.
	if d.pending != nil {
		d.complete()
	}

	switch {
	case !vs.cr.Programming(), vs.sr.ProgramErrors() != 0, d.forcedBusy, d.suspended:
		vs.sr |= register.PGSERR
		vs.latch = nil
		return nil
	}

	if vs.latch == nil {
		if address%register.DoubleWordSize != 0 {
			vs.sr |= register.PGAERR
			return nil
		}
		vs.latch = &latch{address: address, value: value}
		return nil
	}

	first := vs.latch
	vs.latch = nil
	if address != first.address+register.WordSize {
		vs.sr |= register.PGAERR
		return nil
	}
	d.start(vs, first.address, uint64(value)<<32|uint64(first.value))
	return nil
}

// start checks a complete double-word and launches the operation.
func (d *Device) start(vs *viewState, address uint32, value uint64) {
	off, _ := d.offset(address, register.DoubleWordSize)
	page := int(off / uint64(d.cfg.PageSize))
	if d.protected[page] {
		vs.sr |= register.WRPERR
		return
	}
	current := binary.LittleEndian.Uint64(d.mem[off:])
	if current != register.ErasedDoubleWord && value != 0 {
		vs.sr |= register.PROGERR
		return
	}

	op := &operation{vs: vs, address: address, value: value}
	if d.fault != 0 {
		op.result = d.fault
		d.fault = 0
	} else if d.cfg.EndOfOperation {
		op.result = register.EOP
	}
	d.pending = op
	d.busy = d.cfg.BusyPolls
	if d.busy == 0 {
		d.complete()
	}
}

func (d *Device) complete() {
	op := d.pending
	d.pending = nil
	d.busy = 0

	if !op.result.HasErrors() {
		off, _ := d.offset(op.address, register.DoubleWordSize)
		current := binary.LittleEndian.Uint64(d.mem[off:])
		binary.LittleEndian.PutUint64(d.mem[off:], current&op.value)
	}
	op.vs.sr |= op.result
}

// Port is the view of the Device from one core. It implements the
// flash.Peripheral interface; memory writes are attributed to its view.
type Port struct {
	dev *Device
	vs  *viewState
}

// View returns the register view of the port.
func (p *Port) View() register.View {
	return p.vs.view
}

func (p *Port) ReadRegister(offset uint32) (uint32, error) {
	return p.dev.readRegister(offset), nil
}

func (p *Port) WriteRegister(offset uint32, value uint32) error {
	p.dev.writeRegister(offset, value)
	return nil
}

func (p *Port) ReadWord(address uint32) (uint32, error) {
	return p.dev.readWord(address)
}

func (p *Port) WriteWord(address uint32, value uint32) error {
	return p.dev.writeWord(p.vs, address, value)
}
