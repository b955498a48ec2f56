package gpu

import (
	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/irq"
	"github.com/psxgo/psx/hw/timer"
)

// ResetMode selects how much state Reset discards.
type ResetMode int

const (
	// ResetFull resets the GPU, the DMA channels, the counters and the
	// timers.
	ResetFull ResetMode = 0

	// ResetCommands only drops queued operations and the GPU's command
	// buffer. Drawing and timing state are kept.
	ResetCommands ResetMode = 1

	// ResetPreserve is like ResetFull but keeps the display configuration
	// by resetting only the GPU's command buffer.  Modes other than the
	// above behave like ResetPreserve.
	ResetPreserve ResetMode = 3
)

// Reset initializes the driver. The first call installs the interrupt
// handlers and latches the video mode from the GPU status. Every call drops
// all queued operations. Calling Reset repeatedly with the same mode leaves
// the driver in the same state.
func (d *Driver) Reset(mode ResetMode) {
	if !d.setup {
		d.install()
	}

	prev := d.hw.IRQ.Enter()
	d.head, d.tail = 0, 0
	d.length.Store(0)
	d.hw.IRQ.Exit(prev)

	if mode == ResetCommands {
		d.resetCommands()
		return
	}

	d.hw.DMA.SetPriority(dma.GPU, 3)
	d.hw.DMA.SetPriority(dma.OTC, 3)
	d.hw.DMA.Stop(dma.GPU, dma.SyncBlock|dma.FromRAM)
	d.hw.DMA.Stop(dma.OTC, dma.SyncBlock)

	if mode == ResetFull {
		d.hw.GPU.WriteGP1(CmdReset)
	} else {
		d.resetCommands()
	}

	d.vblank.Store(0)
	d.lastVBlank = 0
	d.lastHBlank = 0

	d.hw.Timers.SetMode(timer.Dotclock, timer.ModeDefault)
	d.hw.Timers.SetMode(timer.HBlank, timer.ModeDefault)
}

func (d *Driver) resetCommands() {
	d.hw.GPU.WriteGP1(CmdResetBuffer)
	d.hw.GPU.WriteGP1(CmdAckIRQ)
	d.hw.GPU.WriteGP1(CmdDMA | uint32(DMAOff))
}

func (d *Driver) install() {
	prev := d.hw.IRQ.Enter()
	d.hw.IRQ.SetHandler(irq.VBlank, d.vblankHandler)
	d.hw.IRQ.SetHandler(irq.GPU, d.complete)
	d.hw.DMA.SetCallback(dma.GPU, d.complete)
	d.videoMode = VideoMode(d.hw.GPU.ReadGP1() >> 20 & 1)
	d.hw.IRQ.Exit(prev)

	d.hw.IRQ.Enable(irq.VBlank.Mask() | irq.GPU.Mask())
	d.setup = true

	d.log.Info().Stringer("mode", d.videoMode).Log("setup done")
}
