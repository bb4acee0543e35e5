package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.bug.st/serial"

	"github.com/moffa90/go-wlflash/config"
	"github.com/moffa90/go-wlflash/flash"
	"github.com/moffa90/go-wlflash/hexfile"
	"github.com/moffa90/go-wlflash/remote"
	"github.com/moffa90/go-wlflash/sim"
	"github.com/moffa90/go-wlflash/trace"
)

var errReadTimeout = errors.New("serial read timed out")

// timeoutPort turns the (0, nil) a serial port returns on read timeout into
// an error, so frame reads cannot spin forever.
type timeoutPort struct {
	serial.Port
}

func (p timeoutPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && err == nil {
		return 0, errReadTimeout
	}
	return n, err
}

// session is an open controller together with everything that has to be
// torn down after the command.
type session struct {
	ctrl     *flash.Controller
	sim      *sim.Device
	recorder *trace.Recorder
	simImage string
	closers  []io.Closer
	logger   *slog.Logger
}

// loadConfig reads the config file, if any, and applies the global flags.
func loadConfig(g *Globals) (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		var err error
		if cfg, err = config.Load(g.Config); err != nil {
			return nil, err
		}
	}

	if g.Backend != "" {
		cfg.Link.Backend = g.Backend
	}
	if g.Port != "" {
		cfg.Link.Port = g.Port
		if g.Backend == "" {
			cfg.Link.Backend = config.BackendSerial
		}
	}
	if g.Core != "" {
		cfg.Target.Core = g.Core
	}
	if g.SimImage != "" {
		cfg.Sim.Image = g.SimImage
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// open connects to the configured backend and takes ownership of the
// controller.
func open(g *Globals, extra ...flash.Option) (*session, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	s := &session{logger: newLogger(cfg)}
	flashLog := flash.NewSlogLogger(s.logger)

	var periph flash.Peripheral
	switch cfg.Link.Backend {
	case config.BackendSim:
		s.sim = sim.New(cfg.SimOptions()...)
		if cfg.Sim.Image != "" {
			if err := loadSimImage(s.sim, cfg.Sim.Image); err != nil {
				return nil, err
			}
			s.simImage = cfg.Sim.Image
		}
		periph = s.sim.Port(cfg.View())
		s.logger.Debug("using simulator", "core", cfg.View(), "busy_polls", cfg.Sim.BusyPolls)

	case config.BackendSerial:
		port, err := serial.Open(cfg.Link.Port, &serial.Mode{BaudRate: cfg.Link.Baud})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Link.Port, err)
		}
		s.closers = append(s.closers, port)
		if err := port.SetReadTimeout(cfg.ReadTimeout()); err != nil {
			s.close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
		client := remote.New(timeoutPort{port},
			remote.WithRetries(cfg.Link.Retries),
			remote.WithLogger(flashLog),
		)
		if err := client.Ping(); err != nil {
			s.close()
			return nil, fmt.Errorf("ping monitor on %s: %w", cfg.Link.Port, err)
		}
		periph = client
		s.logger.Debug("connected", "port", cfg.Link.Port, "baud", cfg.Link.Baud)
	}

	if g.TraceFile != "" {
		f, err := os.Create(g.TraceFile)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("create trace: %w", err)
		}
		s.closers = append(s.closers, f)
		s.recorder = trace.NewRecorder(periph, f)
		periph = s.recorder
		s.logger.Info("recording trace", "file", g.TraceFile, "session", s.recorder.SessionID())
	}

	opts := append(cfg.FlashOptions(), flash.WithLogger(flashLog))
	s.ctrl, err = flash.New(periph, append(opts, extra...)...)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	if s.ctrl != nil {
		s.ctrl.Release()
	}
	if s.recorder != nil {
		if err := s.recorder.Err(); err != nil {
			s.logger.Error("trace incomplete", "error", err)
		}
	}
	if s.simImage != "" {
		if err := saveSimImage(s.sim, s.simImage); err != nil {
			s.logger.Error("saving simulated flash failed", "file", s.simImage, "error", err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// loadSimImage restores simulated flash saved by an earlier run. A missing
// file leaves the flash erased.
func loadSimImage(dev *sim.Device, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	img, err := hexfile.Parse(path)
	if err != nil {
		return fmt.Errorf("sim image %s: %w", path, err)
	}
	for _, seg := range img.Segments {
		if err := dev.Load(seg.Address, seg.Data); err != nil {
			return fmt.Errorf("sim image %s: %w", path, err)
		}
	}
	return nil
}

// saveSimImage writes every page that is not fully erased. With nothing
// programmed the file is removed.
func saveSimImage(dev *sim.Device, path string) error {
	cfg := dev.Config()
	mem := dev.Dump()

	img := &hexfile.Image{}
	for off := 0; off < len(mem); off += int(cfg.PageSize) {
		page := mem[off:min(off+int(cfg.PageSize), len(mem))]
		if erased(page) {
			continue
		}
		img.Segments = append(img.Segments, hexfile.Segment{Address: cfg.FlashBase + uint32(off), Data: page})
	}
	if len(img.Segments) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := img.WriteHex(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func erased(b []byte) bool {
	for _, v := range b {
		if v != 0xFF {
			return false
		}
	}
	return true
}

// since is used for elapsed-time fields in results.
func since(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}
