package register

import (
	"fmt"
	"strings"
)

// Status is a snapshot of the flash status register taken at one instant.
type Status uint32

// Busy reports whether an operation is in progress.
func (s Status) Busy() bool { return s&BSY != 0 }

// ConfigBusy reports whether the programming configuration is busy.
func (s Status) ConfigBusy() bool { return s&CFGBSY != 0 }

// InProgress reports whether either busy flag is set.
func (s Status) InProgress() bool { return s&(BSY|CFGBSY) != 0 }

// Suspended reports whether program and erase operations are suspended.
func (s Status) Suspended() bool { return s&PESD != 0 }

// EndOfOperation reports whether EOP is set.
func (s Status) EndOfOperation() bool { return s&EOP != 0 }

// Errors returns only the sticky error flags.
func (s Status) Errors() Status { return s & ErrorMask }

// HasErrors reports whether any sticky error flag is set.
func (s Status) HasErrors() bool { return s&ErrorMask != 0 }

// ProgramErrors returns the error flags that belong to program operations.
func (s Status) ProgramErrors() Status { return s & ProgramErrorMask }

var statusNames = []struct {
	bit  Status
	name string
}{
	{EOP, "EOP"},
	{OPERR, "OPERR"},
	{PROGERR, "PROGERR"},
	{WRPERR, "WRPERR"},
	{PGAERR, "PGAERR"},
	{SIZERR, "SIZERR"},
	{PGSERR, "PGSERR"},
	{MISSERR, "MISSERR"},
	{FASTERR, "FASTERR"},
	{RDERR, "RDERR"},
	{OPTVERR, "OPTVERR"},
	{BSY, "BSY"},
	{CFGBSY, "CFGBSY"},
	{PESD, "PESD"},
}

// Flags returns the names of the set bits, lowest bit first.
func (s Status) Flags() []string {
	var names []string
	for _, n := range statusNames {
		if s&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return names
}

func (s Status) String() string {
	flags := s.Flags()
	if len(flags) == 0 {
		return fmt.Sprintf("0x%08X", uint32(s))
	}
	return fmt.Sprintf("0x%08X [%s]", uint32(s), strings.Join(flags, " "))
}

// Control is a value of the flash control register.
type Control uint32

// Programming reports whether PG is set.
func (c Control) Programming() bool { return c&PG != 0 }

// Locked reports whether LOCK is set.
func (c Control) Locked() bool { return c&LOCK != 0 }

// View selects which status/control register pair a core addresses.
// Both views share one physical controller: BSY and PESD are common,
// error flags and PG are per view.
type View struct {
	// Name is the configuration name of the view ("cpu1" or "cpu2")
	Name string

	// Status is the offset of the status register
	Status uint32

	// Control is the offset of the control register
	Control uint32
}

var (
	// CPU1 addresses SR and CR (Cortex-M4 core, single-core parts).
	CPU1 = View{Name: "cpu1", Status: OffsetSR, Control: OffsetCR}

	// CPU2 addresses C2SR and C2CR (Cortex-M0+ core on dual-core parts).
	CPU2 = View{Name: "cpu2", Status: OffsetC2SR, Control: OffsetC2CR}
)

// ParseView returns the view with the given configuration name.
func ParseView(name string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CPU1.Name, "cm4":
		return CPU1, nil
	case CPU2.Name, "cm0p", "cm0+":
		return CPU2, nil
	default:
		return View{}, fmt.Errorf("unknown register view %q", name)
	}
}

func (v View) String() string { return v.Name }
