package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-wlflash/flash"
	"github.com/moffa90/go-wlflash/register"
	"github.com/moffa90/go-wlflash/sim"
)

// Backends accepted in the link section.
const (
	BackendSim    = "sim"
	BackendSerial = "serial"
)

// Config is the tool configuration.
type Config struct {
	Target  Target  `toml:"target" yaml:"target"`
	Link    Link    `toml:"link" yaml:"link"`
	Sim     Sim     `toml:"sim" yaml:"sim"`
	Program Program `toml:"program" yaml:"program"`
	Log     Log     `toml:"log" yaml:"log"`
}

// Target describes the part being programmed.
type Target struct {
	// Core selects the register view: cpu1 (cm4) or cpu2 (cm0p)
	Core string `toml:"core" yaml:"core"`

	FlashBase uint32 `toml:"flash_base" yaml:"flash_base"`
	FlashSize uint32 `toml:"flash_size" yaml:"flash_size"`
}

// Link describes how the controller is reached.
type Link struct {
	// Backend is "sim" or "serial"
	Backend string `toml:"backend" yaml:"backend"`

	Port    string `toml:"port" yaml:"port"`
	Baud    int    `toml:"baud" yaml:"baud"`
	Retries int    `toml:"retries" yaml:"retries"`

	// Timeout bounds each serial read, as a Go duration string
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// Sim configures the in-process simulator backend.
type Sim struct {
	BusyPolls      int   `toml:"busy_polls" yaml:"busy_polls"`
	EndOfOperation *bool `toml:"end_of_operation" yaml:"end_of_operation"`
	ProtectedPages []int `toml:"protected_pages" yaml:"protected_pages"`

	// Image is an Intel HEX file holding the flash contents between runs.
	// Registers are not kept; every run starts with a clean status.
	Image string `toml:"image" yaml:"image"`
}

// Program configures the controller.
type Program struct {
	// Completion is "decode" or "eop"
	Completion string `toml:"completion" yaml:"completion"`

	Verify *bool `toml:"verify" yaml:"verify"`

	// PollInterval is a Go duration string; empty polls back to back
	PollInterval string `toml:"poll_interval" yaml:"poll_interval"`
}

// Log configures the CLI logger.
type Log struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" yaml:"level"`

	// Format is text or json
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.fillDefaults()
	return c
}

// Load reads a configuration file. The format is chosen by extension:
// .toml, or .yaml/.yml. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes configuration data in the given format ("toml", "yaml",
// "yml", with or without a leading dot) and validates it.
func Parse(data []byte, format string) (*Config, error) {
	c := &Config{}
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	c.fillDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) fillDefaults() {
	if c.Target.Core == "" {
		c.Target.Core = register.CPU1.Name
	}
	if c.Target.FlashBase == 0 {
		c.Target.FlashBase = register.FlashBase
	}
	if c.Target.FlashSize == 0 {
		c.Target.FlashSize = register.DefaultFlashSize
	}
	if c.Link.Backend == "" {
		c.Link.Backend = BackendSim
	}
	if c.Link.Baud == 0 {
		c.Link.Baud = 115200
	}
	if c.Link.Timeout == "" {
		c.Link.Timeout = "1s"
	}
	if c.Sim.EndOfOperation == nil {
		c.Sim.EndOfOperation = boolPtr(true)
	}
	if c.Program.Completion == "" {
		c.Program.Completion = flash.CompletionDecode.String()
	}
	if c.Program.Verify == nil {
		c.Program.Verify = boolPtr(true)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks every field that has a restricted set of values.
func (c *Config) Validate() error {
	if _, err := register.ParseView(c.Target.Core); err != nil {
		return fmt.Errorf("target.core: %w", err)
	}
	if c.Target.FlashBase == 0 {
		return fmt.Errorf("target.flash_base: must not be zero")
	}
	if c.Target.FlashSize == 0 {
		return fmt.Errorf("target.flash_size: must not be zero")
	}
	if c.Target.FlashSize%register.DoubleWordSize != 0 || c.Target.FlashBase%register.DoubleWordSize != 0 {
		return fmt.Errorf("target: flash window 0x%08X+0x%X is not double-word aligned", c.Target.FlashBase, c.Target.FlashSize)
	}

	switch c.Link.Backend {
	case BackendSim:
	case BackendSerial:
		if c.Link.Port == "" {
			return fmt.Errorf("link.port is required for the serial backend")
		}
	default:
		return fmt.Errorf("link.backend: unknown backend %q", c.Link.Backend)
	}
	if c.Link.Retries < 0 {
		return fmt.Errorf("link.retries: must not be negative")
	}
	if _, err := time.ParseDuration(c.Link.Timeout); err != nil {
		return fmt.Errorf("link.timeout: %w", err)
	}

	if c.Sim.BusyPolls < 0 {
		return fmt.Errorf("sim.busy_polls: must not be negative")
	}

	if _, err := flash.ParseCompletionMode(c.Program.Completion); err != nil {
		return fmt.Errorf("program.completion: %w", err)
	}
	if _, err := c.pollInterval(); err != nil {
		return fmt.Errorf("program.poll_interval: %w", err)
	}

	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// View returns the register view selected by target.core.
func (c *Config) View() register.View {
	v, _ := register.ParseView(c.Target.Core)
	return v
}

// ReadTimeout returns link.timeout as a duration.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Link.Timeout)
	return d
}

// LogLevel returns log.level as a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// FlashOptions returns the controller options described by the program and
// target sections.
func (c *Config) FlashOptions() []flash.Option {
	mode, _ := flash.ParseCompletionMode(c.Program.Completion)
	interval, _ := c.pollInterval()
	return []flash.Option{
		flash.WithView(c.View()),
		flash.WithCompletion(mode),
		flash.WithPollInterval(interval),
		flash.WithFlashWindow(c.Target.FlashBase, c.Target.FlashSize),
		flash.WithVerify(*c.Program.Verify),
	}
}

// SimOptions returns the simulator options described by the sim and target
// sections.
func (c *Config) SimOptions() []sim.Option {
	return []sim.Option{
		sim.WithFlash(c.Target.FlashBase, c.Target.FlashSize),
		sim.WithBusyPolls(c.Sim.BusyPolls),
		sim.WithEndOfOperation(*c.Sim.EndOfOperation),
		sim.WithProtectedPages(c.Sim.ProtectedPages...),
	}
}

func (c *Config) pollInterval() (time.Duration, error) {
	if c.Program.PollInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Program.PollInterval)
}

func boolPtr(b bool) *bool {
	return &b
}
