// Package sim simulates the devices the gpu package talks to: the GPU's
// register pair, the DMA engine, the root counters and the vertical blank
// generator. Interrupts are delivered through a real irq.Controller, so
// handlers run on whichever goroutine raises them, serialized against
// critical sections.
//
// The simulation isn't cycle accurate.  Transfers move whole packets at once
// and complete according to the configured Completion mode.
package sim

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/hw/irq"
	"github.com/psxgo/psx/hw/timer"
)

// Completion selects when a GPU DMA transfer finishes.
type Completion int

const (
	// Immediate finishes transfers before the store to CHCR returns.
	Immediate Completion = iota

	// Manual finishes transfers only on calls to Machine.Complete.
	Manual

	// Delayed finishes transfers after the configured latency. Requires
	// Machine.Run.
	Delayed
)

type config struct {
	completion Completion
	latency    time.Duration
	videoMode  gpu.VideoMode
	interlace  bool
	ramSize    int
	log        *debug.Logger
}

type Option func(*config)

func WithCompletion(c Completion) Option {
	return func(cfg *config) { cfg.completion = c }
}

// WithLatency sets the duration of a transfer in Delayed mode.
func WithLatency(d time.Duration) Option {
	return func(cfg *config) { cfg.latency = d }
}

// WithVideoMode sets the region of the console, which the GPU reports after
// power on and reset.
func WithVideoMode(m gpu.VideoMode) Option {
	return func(cfg *config) { cfg.videoMode = m }
}

// WithInterlace starts the display in interlaced mode.
func WithInterlace() Option {
	return func(cfg *config) { cfg.interlace = true }
}

func WithRAMSize(n int) Option {
	return func(cfg *config) { cfg.ramSize = n }
}

func WithLogger(l *debug.Logger) Option {
	return func(cfg *config) { cfg.log = l }
}

// Machine is a simulated console.
type Machine struct {
	RAM    *cpu.RAM
	IRQ    *irq.Controller
	GPU    *GPU
	DMA    *DMA
	Timers *Timers

	cfg config
}

func New(opts ...Option) *Machine {
	cfg := config{
		latency: 100 * time.Microsecond,
		ramSize: cpu.RAMSize,
		log:     debug.Log,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Machine{
		RAM: cpu.NewRAM(cfg.ramSize),
		IRQ: irq.NewController(),
		cfg: cfg,
	}
	m.GPU = newGPU(m)
	m.DMA = newDMA(m)
	m.Timers = newTimers()
	return m
}

// Hardware connects the drivers to the machine. It installs the DMA
// interrupt handler, so it must be called only once.
func (m *Machine) Hardware() gpu.Hardware {
	return gpu.Hardware{
		GPU:    m.GPU,
		IRQ:    m.IRQ,
		DMA:    dma.New(m.DMA, m.IRQ),
		Timers: timer.New(m.Timers),
		RAM:    m.RAM,
	}
}

// FramePeriod returns the time between two vertical blanks.
func (m *Machine) FramePeriod() time.Duration {
	return time.Duration(float32(time.Second) / m.cfg.videoMode.RefreshRate())
}

// VBlank simulates the start of a vertical blank: the scanline counter
// advances by one frame, an interlaced display switches fields and the
// VBlank interrupt is raised.
func (m *Machine) VBlank() {
	mode := gpu.NTSC
	if m.GPU.Status()&gpu.StatusPAL != 0 {
		mode = gpu.PAL
	}
	m.Timers.advance(mode.Lines(), mode.RefreshRate())
	m.GPU.vblank()
	m.IRQ.Raise(irq.VBlank)
}

// Complete finishes the oldest pending GPU transfer. Returns false if none
// was pending.
func (m *Machine) Complete() bool {
	return m.DMA.completeNext()
}

// Run generates vertical blanks at the display's refresh rate and, in Delayed
// mode, finishes transfers until ctx is canceled.
func (m *Machine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(m.FramePeriod())
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				m.VBlank()
			}
		}
	})

	if m.cfg.completion == Delayed {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-m.DMA.queued:
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(m.cfg.latency):
					m.DMA.completeNext()
				}
			}
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
