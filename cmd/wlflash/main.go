package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
)

const (
	AppVersion = "0.1.0"
)

// progressOut receives progress lines so stdout stays pure JSON.
var progressOut = os.Stderr

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `short:"c" type:"path" help:"Configuration file (.toml, .yaml or .yml)"`
	Backend   string `help:"Controller backend: sim or serial (overrides config)"`
	Port      string `short:"p" help:"Serial port of the target monitor (implies --backend=serial)"`
	Core      string `help:"Register view: cpu1/cm4 or cpu2/cm0p"`
	TraceFile string `type:"path" help:"Record every register access to this CBOR file"`
	SimImage  string `type:"path" help:"Intel HEX file keeping the simulated flash between runs; without it every run starts erased. Registers always start clean"`
	LogLevel  string `help:"Log level: debug, info, warn or error"`
}

var cli struct {
	Globals

	Status  StatusCmd  `cmd:"" help:"Show the status and control registers of the selected view"`
	Clear   ClearCmd   `cmd:"" help:"Clear every sticky error flag and EOP"`
	Write   WriteCmd   `cmd:"" help:"Program one 64-bit double-word"`
	Read    ReadCmd    `cmd:"" help:"Read double-words back from flash"`
	Program ProgramCmd `cmd:"" help:"Program an Intel HEX image"`
	Trace   struct {
		Dump TraceDumpCmd `cmd:"" help:"Print the events of a trace file as json"`
	} `cmd:"" help:"Commands which work on recorded register traces"`
	Ports   PortsCmd         `cmd:"" help:"List serial ports"`
	Version kong.VersionFlag `help:"Show version information"`
}

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx := kong.Parse(&cli,
		kong.Name("wlflash"),
		kong.ShortUsageOnError(),
		kong.Description("Program STM32WL flash through a simulator or a serial monitor link"),
		kong.Vars{
			"version": AppVersion,
		},
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
