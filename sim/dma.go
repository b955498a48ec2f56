package sim

import (
	"slices"
	"sync"

	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/gpu/ot"
	"github.com/psxgo/psx/hw/irq"
)

// Layout of DICR
const (
	dicrForce     = 1 << 15
	dicrMaster    = 1 << 23
	dicrFlags     = 0x7f << 24
	dicrMasterIRQ = 1 << 31
)

const (
	madr = iota
	bcr
	chcr
)

// DMA simulates the DMA engine. The GPU channel supports all three
// synchronization modes, the OTC channel clears ordering tables.  Transfers on
// other channels finish without moving data.
type DMA struct {
	m *Machine

	mtx     sync.Mutex
	regs    [dma.ChannelLast][3]uint32
	dpcr    uint32
	dicr    uint32
	pending []dma.Channel
	queued  chan struct{}
}

func newDMA(m *Machine) *DMA {
	return &DMA{
		m:      m,
		dpcr:   0x0765_4321, // all channels disabled
		queued: make(chan struct{}, dma.ChannelLast),
	}
}

func (d *DMA) Load(r dma.Register) uint32 {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	switch r {
	case dma.DPCR:
		return d.dpcr
	case dma.DICR:
		v := d.dicr
		if v&dicrForce != 0 || v&dicrMaster != 0 && v&dicrFlags&(v<<8) != 0 {
			v |= dicrMasterIRQ
		}
		return v
	}
	ch, reg := r.Channel(), r&0xf>>2
	if ch >= dma.ChannelLast || reg > chcr {
		return 0
	}
	return d.regs[ch][reg]
}

func (d *DMA) Store(r dma.Register, v uint32) {
	d.mtx.Lock()

	switch r {
	case dma.DPCR:
		d.dpcr = v
		d.mtx.Unlock()
		return
	case dma.DICR:
		flags := d.dicr & dicrFlags &^ v
		d.dicr = v&0x00ff_ffff | flags
		d.mtx.Unlock()
		return
	}

	ch, reg := r.Channel(), r&0xf>>2
	if ch >= dma.ChannelLast || reg > chcr {
		d.mtx.Unlock()
		return
	}
	d.regs[ch][reg] = v
	if reg != chcr {
		d.mtx.Unlock()
		return
	}

	if dma.Control(v)&dma.Start == 0 {
		d.pending = slices.DeleteFunc(d.pending, func(c dma.Channel) bool { return c == ch })
		d.mtx.Unlock()
		return
	}
	enabled := d.dpcr&(8<<(4*uint(ch))) != 0
	d.mtx.Unlock()

	if !enabled {
		d.m.cfg.log.Warning().Stringer("channel", ch).Log("dma: channel disabled, transfer stalled")
		return
	}
	d.start(ch)
}

func (d *DMA) start(ch dma.Channel) {
	switch ch {
	case dma.OTC:
		d.clearOT()
		d.finish(ch)
	case dma.GPU:
		switch d.m.cfg.completion {
		case Immediate:
			if d.transfer(ch) {
				d.finish(ch)
			}
		default:
			d.mtx.Lock()
			d.pending = append(d.pending, ch)
			d.mtx.Unlock()
			if d.m.cfg.completion == Delayed {
				select {
				case d.queued <- struct{}{}:
				default:
				}
			}
		}
	default:
		d.finish(ch)
	}
}

// completeNext finishes the oldest pending transfer.
func (d *DMA) completeNext() bool {
	d.mtx.Lock()
	if len(d.pending) == 0 {
		d.mtx.Unlock()
		return false
	}
	ch := d.pending[0]
	d.pending = d.pending[1:]
	d.mtx.Unlock()

	if d.transfer(ch) {
		d.finish(ch)
	}
	return true
}

// Pending returns the number of transfers waiting for completion.
func (d *DMA) Pending() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return len(d.pending)
}

// transfer moves the data of a GPU transfer. Returns false if the transfer
// stalls, in which case the channel stays busy.
func (d *DMA) transfer(ch dma.Channel) bool {
	d.mtx.Lock()
	addr := cpu.PhysicalAddress(d.regs[ch][madr]) &^ 3
	bc := d.regs[ch][bcr]
	ctl := dma.Control(d.regs[ch][chcr])
	d.mtx.Unlock()

	log := d.m.cfg.log
	if ctl&dma.FromRAM == 0 {
		log.Err().Stringer("channel", ch).Log("dma: reads from the GPU aren't simulated")
		return false
	}
	if ctl.Sync() != dma.SyncManual && !d.m.GPU.requesting() {
		log.Warning().Stringer("channel", ch).Log("dma: no request from GPU, transfer stalled")
		return false
	}

	switch ctl.Sync() {
	case dma.SyncManual:
		n := int(bc & 0xffff)
		if n == 0 {
			n = 0x1_0000
		}
		addr = d.copyWords(addr, n)
	case dma.SyncBlock:
		size, blocks := int(bc&0xffff), int(bc>>16)
		if size == 0 {
			size = 0x1_0000
		}
		addr = d.copyWords(addr, size*blocks)
		d.mtx.Lock()
		d.regs[ch][bcr] &= 0xffff
		d.mtx.Unlock()
	case dma.SyncLinked:
		addr = d.walk(addr)
	default:
		log.Err().Stringer("channel", ch).Log("dma: reserved sync mode")
	}

	d.mtx.Lock()
	d.regs[ch][madr] = uint32(addr)
	d.mtx.Unlock()
	return true
}

// copyWords sends n words at addr to the GPU and returns the address following
// them.
func (d *DMA) copyWords(addr cpu.Addr, n int) cpu.Addr {
	if !d.m.RAM.Contains(addr, n) {
		d.m.cfg.log.Err().Uint64("addr", uint64(addr)).Int("words", n).
			Log("dma: transfer outside of RAM, aborted")
		return addr
	}
	buf := make([]uint32, n)
	cpu.Read(d.m.RAM, addr, buf)
	d.m.GPU.dmaWrite(buf)
	return addr.Word(n)
}

// walk sends the packets of the linked list at addr to the GPU. Returns the
// end marker.
func (d *DMA) walk(addr cpu.Addr) cpu.Addr {
	log := d.m.cfg.log
	for budget := d.m.RAM.Size() / 4; budget > 0; budget-- {
		if !d.m.RAM.Contains(addr, 1) {
			log.Err().Uint64("addr", uint64(addr)).Log("dma: linked list outside of RAM, aborted")
			return addr
		}
		tag := d.m.RAM.Load(addr)
		if n := ot.Len(tag); n > 0 {
			d.copyWords(addr.Word(1), n)
		}
		if ot.IsEnd(tag) {
			return cpu.Addr(ot.End)
		}
		addr = ot.Next(tag)
	}
	log.Err().Log("dma: linked list doesn't terminate, aborted")
	return addr
}

// clearOT links BCR entries below MADR in reverse order.
func (d *DMA) clearOT() {
	d.mtx.Lock()
	addr := cpu.PhysicalAddress(d.regs[dma.OTC][madr]) &^ 3
	n := int(d.regs[dma.OTC][bcr] & 0xffff)
	d.mtx.Unlock()
	if n == 0 {
		n = 0x1_0000
	}

	first := addr - cpu.Addr(4*(n-1))
	if addr < cpu.Addr(4*(n-1)) || !d.m.RAM.Contains(first, n) {
		d.m.cfg.log.Err().Uint64("addr", uint64(addr)).Int("words", n).
			Log("dma: ordering table outside of RAM, aborted")
		return
	}
	for ; addr != first; addr -= 4 {
		d.m.RAM.Store(addr, ot.MakeTag(0, addr-4))
	}
	d.m.RAM.Store(first, ot.End)
}

// finish ends the transfer on ch and requests an interrupt if enabled.
func (d *DMA) finish(ch dma.Channel) {
	d.mtx.Lock()
	d.regs[ch][chcr] &^= uint32(dma.Start | dma.Trigger)
	raise := false
	if d.dicr&(1<<(16+uint(ch))) != 0 {
		d.dicr |= 1 << (24 + uint(ch))
		raise = d.dicr&dicrMaster != 0
	}
	d.mtx.Unlock()

	if raise {
		d.m.IRQ.Raise(irq.DMA)
	}
}
