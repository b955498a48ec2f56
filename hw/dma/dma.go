// Package dma drives the DMA controller, which moves words between main RAM
// and the peripherals on seven channels. Each channel can request an
// interrupt when its transfer finishes. All channels share the DMA interrupt
// line, which is demultiplexed by DICR.
package dma

import (
	"runtime"

	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/irq"
)

// Channel is one of the DMA channels.
type Channel uint8

const (
	MDECIn Channel = iota
	MDECOut
	GPU
	CDROM
	SPU
	PIO
	OTC // Ordering table clear, RAM only

	ChannelLast
)

var channelNames = [ChannelLast]string{
	"mdecin", "mdecout", "gpu", "cdrom", "spu", "pio", "otc",
}

func (ch Channel) String() string {
	if ch >= ChannelLast {
		return "invalid"
	}
	return channelNames[ch]
}

// Controller is the DMA controller and its interrupt demultiplexer.
type Controller struct {
	port Port
	ic   *irq.Controller

	callbacks [ChannelLast]func()
}

// New returns a controller for port and installs its interrupt handler on ic.
func New(port Port, ic *irq.Controller) *Controller {
	c := &Controller{port: port, ic: ic}
	ic.SetHandler(irq.DMA, c.handler)
	ic.Enable(irq.DMA.Mask())
	return c
}

// SetPriority enables ch with the given priority, 0 being the highest.
func (c *Controller) SetPriority(ch Channel, prio int) {
	shift := 4 * uint(ch)
	prev := c.ic.Enter()
	dpcr := c.port.Load(DPCR)
	dpcr &^= 0xf << shift
	dpcr |= (uint32(prio)&7 | 8) << shift
	c.port.Store(DPCR, dpcr)
	c.ic.Exit(prev)
}

// Enabled returns true if ch is enabled in DPCR.
func (c *Controller) Enabled(ch Channel) bool {
	return c.port.Load(DPCR)&(8<<(4*uint(ch))) != 0
}

// SetCallback installs a function called in interrupt context each time a
// transfer on ch finishes and returns the previous one. A nil callback
// disables the channel's interrupt.
func (c *Controller) SetCallback(ch Channel, fn func()) (old func()) {
	prev := c.ic.Enter()
	defer c.ic.Exit(prev)

	old, c.callbacks[ch] = c.callbacks[ch], fn

	dicr := c.port.Load(DICR) &^ dicrFlags // don't ack anything
	if fn != nil {
		dicr |= 1<<(dicrEnableShift+ch) | dicrMaster
	} else {
		dicr &^= 1 << (dicrEnableShift + ch)
	}
	c.port.Store(DICR, dicr)
	return old
}

// Start programs and starts a transfer on ch.
func (c *Controller) Start(ch Channel, addr cpu.Addr, bcr uint32, chcr Control) {
	c.port.Store(MADR(ch), uint32(addr)&0xff_ffff)
	c.port.Store(BCR(ch), bcr)
	c.port.Store(CHCR(ch), uint32(chcr))
}

// Stop writes chcr, which must have Start cleared, to ch.
func (c *Controller) Stop(ch Channel, chcr Control) {
	c.port.Store(CHCR(ch), uint32(chcr&^Start))
}

// Busy returns true while a transfer on ch is in progress.
func (c *Controller) Busy(ch Channel) bool {
	return Control(c.port.Load(CHCR(ch)))&Start != 0
}

// Wait blocks until the transfer on ch has finished or budget polls have
// elapsed.  Returns false on timeout.
func (c *Controller) Wait(ch Channel, budget int) bool {
	for ; budget > 0; budget-- {
		if !c.Busy(ch) {
			return true
		}
		runtime.Gosched()
	}
	return !c.Busy(ch)
}

func (c *Controller) handler() {
	dicr := c.port.Load(DICR)
	flags := dicr & dicrFlags
	c.port.Store(DICR, dicr&^dicrFlags|flags)

	for ch := range ChannelLast {
		if flags&(1<<(dicrFlagShift+ch)) == 0 {
			continue
		}
		if fn := c.callbacks[ch]; fn != nil {
			fn()
		}
	}
}
