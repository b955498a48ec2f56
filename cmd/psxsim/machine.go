package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/sim"
)

// machineFlags are the flags shared by all commands.
type machineFlags struct {
	pal        *bool
	interlace  *bool
	completion *string
	latency    *time.Duration
	verbose    *bool
}

func addMachineFlags(fs *flag.FlagSet, completion string) *machineFlags {
	return &machineFlags{
		pal:        fs.Bool("pal", false, "simulate a PAL console"),
		interlace:  fs.Bool("interlace", false, "start with an interlaced display"),
		completion: fs.String("completion", completion, "immediate | manual | delayed"),
		latency:    fs.Duration("latency", 200*time.Microsecond, "transfer duration in delayed mode"),
		verbose:    fs.Bool("v", false, "log debug messages"),
	}
}

func (f *machineFlags) build() (*sim.Machine, *gpu.Driver, error) {
	var completion sim.Completion
	switch *f.completion {
	case "immediate":
		completion = sim.Immediate
	case "manual":
		completion = sim.Manual
	case "delayed":
		completion = sim.Delayed
	default:
		return nil, nil, fmt.Errorf("invalid completion mode: %q", *f.completion)
	}

	level := logiface.LevelInformational
	if *f.verbose {
		level = logiface.LevelDebug
	}
	logger := debug.NewLogger(flag.CommandLine.Output(), level)

	opts := []sim.Option{
		sim.WithCompletion(completion),
		sim.WithLatency(*f.latency),
		sim.WithLogger(logger),
	}
	if *f.pal {
		opts = append(opts, sim.WithVideoMode(gpu.PAL))
	}
	if *f.interlace {
		opts = append(opts, sim.WithInterlace())
	}

	m := sim.New(opts...)
	d := gpu.New(m.Hardware(), gpu.WithLogger(logger))
	d.Reset(gpu.ResetFull)
	return m, d, nil
}
