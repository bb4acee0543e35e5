package main

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/moffa90/go-wlflash/flash"
	"github.com/moffa90/go-wlflash/hexfile"
	"github.com/moffa90/go-wlflash/register"
	"github.com/moffa90/go-wlflash/trace"
)

// **********************************
// *       CONTROLLER COMMANDS      *
// **********************************

type statusResult struct {
	View        string   `json:"view"`
	Status      string   `json:"status"`
	Flags       []string `json:"flags"`
	Busy        bool     `json:"busy"`
	Suspended   bool     `json:"suspended"`
	Error       string   `json:"error,omitempty"`
	Control     string   `json:"control"`
	Programming bool     `json:"programming"`
	Locked      bool     `json:"locked"`
}

// Status command
type StatusCmd struct{}

func (c *StatusCmd) Run(g *Globals) error {
	s, err := open(g)
	if err != nil {
		return err
	}
	defer s.close()

	st, err := s.ctrl.Status()
	if err != nil {
		return err
	}
	cr, err := s.ctrl.Control()
	if err != nil {
		return err
	}

	result := statusResult{
		View:        s.ctrl.View().String(),
		Status:      hex32(uint32(st)),
		Flags:       st.Flags(),
		Busy:        st.Busy(),
		Suspended:   st.Suspended(),
		Control:     hex32(uint32(cr)),
		Programming: cr.Programming(),
		Locked:      cr.Locked(),
	}
	if kind, failed := flash.Classify(st); failed {
		result.Error = kind.String()
	}
	PrintJson(result)
	return nil
}

// Clear command
type ClearCmd struct{}

func (c *ClearCmd) Run(g *Globals) error {
	s, err := open(g)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.ctrl.ClearAllErrors(); err != nil {
		return err
	}
	st, err := s.ctrl.Status()
	if err != nil {
		return err
	}
	s.logger.Info("cleared status flags", "status", st)
	PrintJson(map[string]interface{}{"Status": hex32(uint32(st)), "Flags": st.Flags()})
	return nil
}

// Write command
type WriteCmd struct {
	Address string `arg:"" help:"Double-word address (hex with 0x prefix)"`
	Value   string `arg:"" help:"64-bit value, low word programmed first"`
}

func (c *WriteCmd) Run(ctx context.Context, g *Globals) error {
	address, err := parseUint(c.Address, 32)
	if err != nil {
		return err
	}
	value, err := parseUint(c.Value, 64)
	if err != nil {
		return err
	}

	s, err := open(g)
	if err != nil {
		return err
	}
	defer s.close()

	start := time.Now()
	if err := s.ctrl.Program(ctx, uint32(address), value); err != nil {
		return err
	}
	readback, err := s.ctrl.ReadDoubleWord(uint32(address))
	if err != nil {
		return err
	}
	PrintJson(map[string]interface{}{
		"Address":  hex32(uint32(address)),
		"Value":    hex64(value),
		"Readback": hex64(readback),
		"Elapsed":  since(start),
	})
	return nil
}

type doubleWordResult struct {
	Address string `json:"address"`
	Value   string `json:"value"`
	Erased  bool   `json:"erased"`
}

// Read command
type ReadCmd struct {
	Address string `arg:"" help:"First double-word address"`
	Count   int    `short:"n" default:"1" help:"Number of double-words to read"`
}

func (c *ReadCmd) Run(g *Globals) error {
	address, err := parseUint(c.Address, 32)
	if err != nil {
		return err
	}

	s, err := open(g)
	if err != nil {
		return err
	}
	defer s.close()

	var result []doubleWordResult
	for i := 0; i < c.Count; i++ {
		addr := uint32(address) + uint32(i)*register.DoubleWordSize
		v, err := s.ctrl.ReadDoubleWord(addr)
		if err != nil {
			return err
		}
		dw := flash.DoubleWord{Address: addr, Value: v}
		result = append(result, doubleWordResult{Address: hex32(addr), Value: hex64(v), Erased: dw.Erased()})
	}
	PrintJson(result)
	return nil
}

// Program command
type ProgramCmd struct {
	Infile   string `arg:"" type:"existingfile" help:"Intel HEX image to program"`
	NoVerify bool   `help:"Skip read-back of each double-word"`
}

func (c *ProgramCmd) Run(ctx context.Context, g *Globals) error {
	img, err := hexfile.Parse(c.Infile)
	fatalIfErr(c.Infile, "parse hex image", err)
	lo, hi := img.Bounds()

	var opts []flash.Option
	if c.NoVerify {
		opts = append(opts, flash.WithVerify(false))
	}
	lastReported := -1
	opts = append(opts, flash.WithProgressCallback(func(p flash.Progress) {
		pct := int(p.Percentage) / 10 * 10
		if p.Phase == flash.PhaseProgramming && pct != lastReported {
			lastReported = pct
			fmt.Fprintf(progressOut, "\r%3d%% %d/%d double-words", pct, p.Current, p.Total)
		}
		if p.Phase == flash.PhaseComplete {
			fmt.Fprintln(progressOut)
		}
	}))

	s, err := open(g, opts...)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("programming", "file", c.Infile, "start", hex32(lo), "end", fmt.Sprintf("0x%08X", hi), "bytes", img.Size())
	start := time.Now()
	if err := s.ctrl.ProgramImage(ctx, img); err != nil {
		return err
	}

	result := map[string]interface{}{
		"Filename": c.Infile,
		"Segments": len(img.Segments),
		"Bytes":    img.Size(),
		"Elapsed":  since(start),
	}
	if img.HasStartAddress {
		result["StartAddress"] = hex32(img.StartAddress)
	}
	PrintJson(result)
	return nil
}

// **********************************
// *        TRACE COMMANDS          *
// **********************************

type traceEvent struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Session string    `json:"session"`
	Op      string    `json:"op"`
	Address string    `json:"address"`
	Value   string    `json:"value"`
	Err     string    `json:"error,omitempty"`
}

// Trace dump command
type TraceDumpCmd struct {
	Infile  string `arg:"" type:"existingfile" help:"Trace file recorded with --trace-file"`
	Session string `help:"Only show events of this session"`
	Errors  bool   `help:"Only show failed accesses"`
}

func (c *TraceDumpCmd) Run() error {
	r, err := trace.OpenFiltered(c.Infile, trace.Filter{SessionID: c.Session, ErrorsOnly: c.Errors})
	fatalIfErr(c.Infile, "open trace", err)
	defer r.Close()

	all, err := r.All()
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	events := make([]traceEvent, 0, len(all))
	for _, ev := range all {
		events = append(events, traceEvent{
			Seq:     ev.Seq,
			Time:    ev.Timestamp,
			Session: ev.SessionID,
			Op:      ev.Op.String(),
			Address: hex32(ev.Address),
			Value:   hex32(ev.Value),
			Err:     ev.Err,
		})
	}
	PrintJson(events)
	return nil
}

// **********************************
// *        DEVICE COMMANDS         *
// **********************************

// Ports command
type PortsCmd struct{}

func (c *PortsCmd) Run() error {
	ports, err := serial.GetPortsList()
	fatalIfErr("ports", "list serial ports", err)
	PrintJson(ports)
	return nil
}
