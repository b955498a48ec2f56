// Package pacer paces a render loop to the display.
package pacer

import (
	"time"

	"github.com/psxgo/psx/hw/gpu"
)

// Pacer implements a vsynced render loop. Each call to Frame ends the current
// frame: it waits for drawing to complete and then for the frame's slot on the
// display.
type Pacer struct {
	d        *gpu.Driver
	interval int

	last    uint32
	frames  int
	skipped int

	frametime  int // vertical blanks
	rendertime int // scanlines
}

// New returns a pacer showing a new frame every interval vertical blanks.  An
// interval of 0 or 1 runs at the full refresh rate.
func New(d *gpu.Driver, interval int) *Pacer {
	return &Pacer{
		d:        d,
		interval: max(interval, 1),
		last:     uint32(d.VSync(-1)),
	}
}

// Frame waits until the frame is drawn and its slot on the display has come.
// It returns the number of vertical blanks since the previous frame.
func (p *Pacer) Frame() int {
	p.rendertime = p.d.VSync(1)
	p.d.DrawSync(0)

	mode := p.interval
	if mode == 1 {
		mode = 0
	}
	p.d.VSync(mode)

	now := uint32(p.d.VSync(-1))
	n := int(now - p.last)
	p.last = now

	if p.frames > 0 && n > p.interval {
		p.skipped += n - p.interval
	}
	p.frames++
	p.frametime = n
	return n
}

// Frames returns the number of frames ended by Frame.
func (p *Pacer) Frames() int {
	return p.frames
}

// Skipped returns the number of frame slots missed because rendering took too
// long.
func (p *Pacer) Skipped() int {
	return p.skipped
}

func (p *Pacer) FPS() float32 {
	if p.frametime == 0 {
		return 0
	}
	return p.d.VideoMode().RefreshRate() / float32(p.frametime)
}

// Scanlines returns the number of scanlines the last frame took to render,
// measured until the call to Frame.
func (p *Pacer) Scanlines() int {
	return p.rendertime
}

// Duration converts Scanlines to time.
func (p *Pacer) Duration() time.Duration {
	m := p.d.VideoMode()
	line := float32(time.Second) / (m.RefreshRate() * float32(m.Lines()))
	return time.Duration(float32(p.rendertime) * line)
}
