package gpu

import (
	"runtime"

	"github.com/psxgo/psx/hw/irq"
	"github.com/psxgo/psx/hw/timer"
)

// Runs in interrupt context.
func (d *Driver) vblankHandler() {
	d.vblank.Add(1)
	if d.vsyncCallback != nil {
		d.vsyncCallback()
	}
}

// VSync waits for vertical blanks and returns the number of scanlines since
// the previous call that waited.
//
//   - mode 0 waits for the next vertical blank.
//   - mode n > 1 waits until n vertical blanks passed since the previous call
//     that waited. Returns immediately if they already did.
//   - mode 1 returns the scanline count without waiting.
//   - a negative mode returns the vertical blank counter without waiting.
//
// While waiting the halt function is called repeatedly, see SetVSyncHalt. On
// an interlaced display VSync additionally waits for the field to change, so
// the next frame always starts at the top of a field.
func (d *Driver) VSync(mode int) int {
	delta := int(d.hw.Timers.Value(timer.HBlank) - d.lastHBlank)
	if mode == 1 {
		return delta
	}
	if mode < 0 {
		return int(d.vblank.Load())
	}

	var target uint32
	if mode == 0 {
		target = d.vblank.Load() + 1
	} else {
		target = d.lastVBlank + uint32(mode)
	}

	for before(d.vblank.Load(), target) {
		status := Status(d.hw.GPU.ReadGP1())
		d.haltFunc()()

		if status&StatusInterlace != 0 {
			d.waitField(status)
		}
	}

	d.lastVBlank = d.vblank.Load()
	d.lastHBlank = d.hw.Timers.Value(timer.HBlank)
	return delta
}

// before compares counter values, allowing them to wrap.
func before(a, b uint32) bool { return int32(a-b) < 0 }

func (d *Driver) waitField(sample Status) {
	for i := d.vsyncTimeout; i > 0; i-- {
		if (Status(d.hw.GPU.ReadGP1())^sample)&StatusField != 0 {
			return
		}
		runtime.Gosched()
	}
	d.log.Warning().Limit().Log("field wait timeout")
}

// haltFunc returns the current halt function.  It may change while VSync
// waits.
func (d *Driver) haltFunc() func() {
	prev := d.hw.IRQ.Enter()
	defer d.hw.IRQ.Exit(prev)
	return d.vsyncHalt
}

// defaultVSyncHalt polls until the next vertical blank. If none arrives the
// interrupt is probably stuck, so it tries to get it going again.
func (d *Driver) defaultVSyncHalt() {
	counter := d.vblank.Load()
	for i := d.vsyncTimeout; i > 0; i-- {
		if d.vblank.Load() != counter {
			return
		}
		runtime.Gosched()
	}

	d.log.Warning().Uint64("vblank", uint64(counter)).Limit().Log("VSync() timeout")
	d.hw.IRQ.Acknowledge(irq.VBlank.Mask())
	d.hw.IRQ.Enable(irq.VBlank.Mask())
	d.hw.Timers.SetMode(timer.HBlank, timer.ModeDefault)
}

// SetVSyncHalt sets the function VSync calls while waiting and returns the
// previous one. It must return after at most one vertical blank. A nil
// function restores the default, which polls the frame counter.
func (d *Driver) SetVSyncHalt(fn func()) (old func()) {
	if fn == nil {
		fn = d.defaultVSyncHalt
	}
	prev := d.hw.IRQ.Enter()
	old, d.vsyncHalt = d.vsyncHalt, fn
	d.hw.IRQ.Exit(prev)
	return old
}

// SetVSyncCallback sets a function called in interrupt context on every
// vertical blank and returns the previous one. It must not be called inside a
// critical section.
func (d *Driver) SetVSyncCallback(fn func()) (old func()) {
	d.hw.IRQ.FastEnter()
	old, d.vsyncCallback = d.vsyncCallback, fn
	d.hw.IRQ.FastExit()
	return old
}
