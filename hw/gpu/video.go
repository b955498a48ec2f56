package gpu

// VideoMode is the television standard of the display.
type VideoMode uint8

const (
	NTSC VideoMode = iota
	PAL
)

func (m VideoMode) String() string {
	if m == PAL {
		return "PAL"
	}
	return "NTSC"
}

// RefreshRate returns the number of vertical blanks per second.
func (m VideoMode) RefreshRate() float32 {
	if m == PAL {
		return 50
	}
	return 59.94
}

// VideoMode returns the video mode latched by the first Reset or set by
// SetVideoMode.
func (d *Driver) VideoMode() VideoMode {
	prev := d.hw.IRQ.Enter()
	defer d.hw.IRQ.Exit(prev)
	return d.videoMode
}

// SetVideoMode overrides the video mode libraries should assume and returns
// the previous one. The display itself isn't reconfigured.
func (d *Driver) SetVideoMode(m VideoMode) (old VideoMode) {
	prev := d.hw.IRQ.Enter()
	old, d.videoMode = d.videoMode, m
	d.hw.IRQ.Exit(prev)
	return old
}

// Lines returns the number of scanlines per frame, including the vertical
// blank.
func (m VideoMode) Lines() int {
	if m == PAL {
		return 314
	}
	return 263
}
