// Package irq implements the interrupt controller.
//
// The PlayStation has a single hardware thread. Interrupt handlers preempt
// the main context at arbitrary points unless the interrupt is masked. The
// Controller models this with a CPU ownership lock: a running handler and a
// critical section both own the CPU, so they exclude each other. Interrupts
// raised while the CPU is owned stay pending in I_STAT and are delivered as
// soon as it's released.
package irq

import (
	"math/bits"
	"sync"

	"github.com/petermattis/goid"
)

// Line is an interrupt request line of the interrupt controller.
type Line uint8

const (
	VBlank   Line = iota // Start of vertical blank
	GPU                  // GP0 0x1F interrupt request
	CDROM                // CD-ROM controller
	DMA                  // Any DMA channel finished, see DICR
	Timer0               // Root counter 0
	Timer1               // Root counter 1
	Timer2               // Root counter 2
	SIO0                 // Controller and memory card port
	SIO1                 // Serial port
	SPU                  // Sound processor
	Lightpen             // Lightgun via controller port

	LineLast
)

var lineNames = [LineLast]string{
	"vblank", "gpu", "cdrom", "dma", "timer0", "timer1", "timer2",
	"sio0", "sio1", "spu", "lightpen",
}

func (l Line) String() string {
	if l >= LineLast {
		return "invalid"
	}
	return lineNames[l]
}

// Mask returns the I_STAT/I_MASK bit of l.
func (l Line) Mask() Mask { return 1 << l }

// Mask is the layout of both I_STAT and I_MASK.
type Mask uint16

const All Mask = 1<<LineLast - 1

// Critical are the lines masked by a critical section: the vertical blank and
// all sources of drawing completion.
const Critical = Mask(1<<VBlank | 1<<GPU | 1<<DMA)

// Controller is the interrupt controller together with the CPU it interrupts.
type Controller struct {
	mtx  sync.Mutex
	cond sync.Cond

	stat Mask // pending, I_STAT
	mask Mask // enabled, I_MASK

	owner int64 // goroutine currently owning the CPU, 0 if none
	depth int

	handlers [LineLast]func()
}

// NewController returns a controller with all lines disabled.
func NewController() *Controller {
	c := &Controller{}
	c.cond.L = &c.mtx
	return c
}

// SetHandler installs the handler for line l and returns the previous one.  It
// waits for a running handler to return.
func (c *Controller) SetHandler(l Line, handler func()) (old func()) {
	prev := c.Enter()
	old, c.handlers[l] = c.handlers[l], handler
	c.Exit(prev)
	return old
}

func (c *Controller) Handler(l Line) func() {
	prev := c.Enter()
	defer c.Exit(prev)
	return c.handlers[l]
}

// Enable unmasks the lines in m. Pending interrupts on these lines are
// delivered before Enable returns, unless the caller owns the CPU.
func (c *Controller) Enable(m Mask) {
	c.mtx.Lock()
	c.mask |= m & All
	c.mtx.Unlock()
	c.dispatch()
}

// Disable masks the lines in m. Interrupts raised on these lines stay pending.
func (c *Controller) Disable(m Mask) {
	c.mtx.Lock()
	c.mask &^= m
	c.mtx.Unlock()
}

// Enabled returns the current I_MASK.
func (c *Controller) Enabled() Mask {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.mask
}

// Pending returns the current I_STAT.
func (c *Controller) Pending() Mask {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.stat
}

// Acknowledge clears the pending bits in m.
func (c *Controller) Acknowledge(m Mask) {
	c.mtx.Lock()
	c.stat &^= m
	c.mtx.Unlock()
}

// Raise is called by devices to request an interrupt. If the line is enabled
// and the CPU isn't owned by someone else, the handler runs on the calling
// goroutine before Raise returns.  Otherwise the interrupt stays pending.
func (c *Controller) Raise(l Line) {
	c.mtx.Lock()
	c.stat |= l.Mask()
	c.mtx.Unlock()
	c.dispatch()
}

// dispatch runs the handlers of all pending and enabled lines, lowest line
// first. Handlers are never nested: if the calling goroutine already owns the
// CPU, the interrupts are left pending for whoever releases it.
func (c *Controller) dispatch() {
	id := goid.Get()

	c.mtx.Lock()
	defer c.mtx.Unlock()

	for c.stat&c.mask != 0 {
		if c.owner == id {
			return
		}
		if c.owner != 0 {
			c.cond.Wait()
			continue
		}

		l := Line(bits.TrailingZeros16(uint16(c.stat & c.mask)))
		c.stat &^= l.Mask() // the dispatcher acknowledges, like the BIOS does
		handler := c.handlers[l]
		if handler == nil {
			panic("unhandled interrupt")
		}

		c.owner, c.depth = id, 1
		c.mtx.Unlock()
		c.run(handler)
	}
}

// run calls handler without holding mtx and releases the CPU afterwards, even
// if the handler panics.
func (c *Controller) run(handler func()) {
	defer func() {
		c.mtx.Lock()
		c.owner, c.depth = 0, 0
		c.cond.Broadcast()
	}()
	handler()
}
