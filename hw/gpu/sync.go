package gpu

import (
	"runtime"

	"github.com/psxgo/psx/hw/dma"
)

// DrawSync returns the number of operations in flight or queued. With mode 0
// it first waits for all of them to complete and for the GPU to process the
// last command.  If the queue doesn't drain in time, DrawSync gives up and
// returns the remaining length.
func (d *Driver) DrawSync(mode int) int {
	if mode != 0 {
		return d.QueueLength()
	}

	for i := d.drawSyncTimeout; i > 0 && d.length.Load() != 0; i-- {
		runtime.Gosched()
	}
	if n := d.QueueLength(); n != 0 {
		d.log.Warning().Int("length", n).Limit().Log("DrawSync() timeout")
		return n
	}

	if Status(d.hw.GPU.ReadGP1())&StatusDMADir != 0 {
		d.poll(func() bool {
			return Status(d.hw.GPU.ReadGP1())&StatusDMAReady != 0 &&
				!d.hw.DMA.Busy(dma.GPU)
		})
	}
	d.poll(func() bool {
		return Status(d.hw.GPU.ReadGP1())&StatusCmdReady != 0
	})

	return d.QueueLength()
}

// poll waits for cond for at most drawSyncTimeout polls.
func (d *Driver) poll(cond func() bool) bool {
	for i := d.drawSyncTimeout; i > 0; i-- {
		if cond() {
			return true
		}
		runtime.Gosched()
	}
	return cond()
}

// IsIdle returns true if the GPU becomes ready for commands within timeout
// polls. A timeout of zero or less polls once.
func (d *Driver) IsIdle(timeout int) bool {
	timeout = max(timeout, 1)
	for ; timeout > 0; timeout-- {
		if Status(d.hw.GPU.ReadGP1())&StatusCmdReady != 0 {
			return true
		}
	}
	return false
}

// SetDrawSyncCallback sets a function called in interrupt context each time
// the queue runs empty and returns the previous one. Like SetVSyncCallback it
// must not be called inside a critical section.
func (d *Driver) SetDrawSyncCallback(fn func()) (old func()) {
	d.hw.IRQ.FastEnter()
	old, d.drawSyncCallback = d.drawSyncCallback, fn
	d.hw.IRQ.FastExit()
	return old
}
