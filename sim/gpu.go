package sim

import (
	"slices"
	"sync"

	"github.com/sigurn/crc8"

	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/hw/irq"
)

var streamCRC8 = crc8.MakeTable(crc8.CRC8)

// GPU simulates the GPU's register pair.  GP0 words aren't interpreted beyond
// the interrupt request command, they are recorded instead.
type GPU struct {
	m *Machine

	mtx     sync.Mutex
	display uint32 // GP1 0x08 parameter
	dir     gpu.DMADir
	irq     bool
	field   bool
	busy    bool
	words   []uint32
	csum    uint8
	gp1     []uint32
}

func newGPU(m *Machine) *GPU {
	g := &GPU{m: m}
	g.powerOn()
	g.csum = crc8.Init(streamCRC8)
	return g
}

func (g *GPU) powerOn() {
	g.display = 0
	if g.m.cfg.videoMode == gpu.PAL {
		g.display |= gpu.DisplayPAL
	}
	if g.m.cfg.interlace {
		g.display |= gpu.DisplayInterlace
	}
	g.dir = gpu.DMAOff
	g.irq = false
	g.field = false
}

func (g *GPU) WriteGP0(v uint32) {
	g.mtx.Lock()
	g.gp0(v)
	raise := v&0xff00_0000 == gpu.CmdIRQ && !g.irq
	if raise {
		g.irq = true
	}
	g.mtx.Unlock()

	if raise {
		g.m.IRQ.Raise(irq.GPU)
	}
}

func (g *GPU) gp0(v uint32) {
	g.words = append(g.words, v)
	g.csum = crc8.Update(g.csum, []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}, streamCRC8)
}

// requesting returns true if the GPU requests data from the DMA engine.
func (g *GPU) requesting() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return g.dir == gpu.DMAToGP0
}

// dmaWrite receives words from the DMA engine.
func (g *GPU) dmaWrite(p []uint32) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	for _, v := range p {
		g.gp0(v)
	}
}

func (g *GPU) WriteGP1(v uint32) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.gp1 = append(g.gp1, v)
	switch v & 0xff00_0000 {
	case gpu.CmdReset:
		g.powerOn()
	case gpu.CmdResetBuffer: // commands are never buffered
	case gpu.CmdAckIRQ:
		g.irq = false
	case gpu.CmdDMA:
		g.dir = gpu.DMADir(v & 3)
	case gpu.CmdDisplayMode:
		g.display = v & 0xff
	}
}

func (g *GPU) ReadGP1() uint32 {
	return uint32(g.Status())
}

// Status returns the status word.
func (g *GPU) Status() gpu.Status {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	s := gpu.Status(g.dir) << 29
	if g.display&gpu.DisplayPAL != 0 {
		s |= gpu.StatusPAL
	}
	if g.display&gpu.DisplayInterlace != 0 {
		s |= gpu.StatusInterlace
	}
	if g.irq {
		s |= gpu.StatusIRQ
	}
	if !g.busy {
		s |= gpu.StatusCmdReady
		if g.dir != gpu.DMAOff {
			s |= gpu.StatusDMAReady
		}
	}
	if g.field {
		s |= gpu.StatusField
	}
	return s
}

// SetBusy simulates the GPU processing a long command. While busy it doesn't
// accept commands.
func (g *GPU) SetBusy(busy bool) {
	g.mtx.Lock()
	g.busy = busy
	g.mtx.Unlock()
}

// RaiseIRQ simulates the GPU executing GP0 0x1f.
func (g *GPU) RaiseIRQ() {
	g.WriteGP0(gpu.CmdIRQ)
}

func (g *GPU) vblank() {
	g.mtx.Lock()
	if g.display&gpu.DisplayInterlace != 0 {
		g.field = !g.field
	}
	g.mtx.Unlock()
}

// Words returns a copy of all words written to GP0.
func (g *GPU) Words() []uint32 {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return slices.Clone(g.words)
}

// GP1 returns a copy of all commands written to GP1.
func (g *GPU) GP1() []uint32 {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return slices.Clone(g.gp1)
}

// Checksum returns the CRC-8 of all words written to GP0, in little endian
// byte order. Two submissions of the same commands have the same checksum
// regardless of the path they took.
func (g *GPU) Checksum() uint8 {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return crc8.Complete(g.csum, streamCRC8)
}

// ClearLog forgets all recorded words and commands.
func (g *GPU) ClearLog() {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	g.words = nil
	g.gp1 = nil
	g.csum = crc8.Init(streamCRC8)
}
