// Package gpu drives the GPU's command interface and the display timing.
//
// Drawing operations are submitted by DMA.  Only one transfer can be in flight,
// so further operations are held in a short queue and started one by one from
// the completion interrupt. The vertical blank interrupt drives a frame
// counter which VSync waits on.
//
// A Driver must be initialized by calling Reset before use.
package gpu

import (
	"errors"
	"sync/atomic"

	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/irq"
	"github.com/psxgo/psx/hw/timer"
)

const (
	QueueLength = 16 // Capacity of the deferred operation queue
	ChunkLength = 16 // Words per DMA block in block mode

	VSyncTimeout    = 0x100000
	DrawSyncTimeout = VSyncTimeout
)

var (
	ErrQueueFull      = errors.New("gpu: draw queue full")
	ErrChunkAlignment = errors.New("gpu: length not a multiple of the chunk length")
	ErrBadLength      = errors.New("gpu: bad length")
)

// Hardware bundles the devices a Driver works with.
type Hardware struct {
	GPU    Port
	IRQ    *irq.Controller
	DMA    *dma.Controller
	Timers *timer.Timers
	RAM    cpu.Memory
}

// Driver holds the state of the command queue and the display timing.
//
// Methods are safe to call from any goroutine and from interrupt callbacks,
// except VSync, which assumes a single main context.
type Driver struct {
	hw  Hardware
	log *debug.Logger

	vsyncTimeout    int
	drawSyncTimeout int

	setup     bool
	videoMode VideoMode

	// Guarded by the critical section. length is also polled without it.
	queue      [QueueLength]Op
	head, tail int
	length     atomic.Int32

	vblank     atomic.Uint32
	lastVBlank uint32
	lastHBlank uint16

	// Guarded by the critical section.
	vsyncHalt        func()
	vsyncCallback    func()
	drawSyncCallback func()
}

type Option func(*Driver)

// WithLogger sets the logger for diagnostics. Defaults to debug.Log.
func WithLogger(l *debug.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithVSyncTimeout sets the number of polls after which the default halt
// function gives up waiting for a vertical blank.
func WithVSyncTimeout(n int) Option {
	return func(d *Driver) { d.vsyncTimeout = n }
}

// WithDrawSyncTimeout sets the number of polls after which DrawSync gives up
// waiting for the queue to drain.  It also bounds waits for DMA and the
// command FIFO.
func WithDrawSyncTimeout(n int) Option {
	return func(d *Driver) { d.drawSyncTimeout = n }
}

// New returns a driver for hw. Nothing is written to the hardware until Reset
// is called.
func New(hw Hardware, opts ...Option) *Driver {
	d := &Driver{
		hw:              hw,
		log:             debug.Log,
		vsyncTimeout:    VSyncTimeout,
		drawSyncTimeout: DrawSyncTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.vsyncHalt = d.defaultVSyncHalt
	return d
}
