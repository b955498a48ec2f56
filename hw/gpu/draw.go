package gpu

import (
	"fmt"
	"image"

	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/gpu/ot"
)

// BurstLayout returns the block size and count of a block mode transfer of
// words.  Transfers shorter than ChunkLength are a single block.  Longer ones
// must be a multiple of ChunkLength, otherwise the DMA channel would wait
// forever for the rest of the last block.
func BurstLayout(words int) (size, blocks int, err error) {
	switch {
	case words <= 0 || words > 0xffff*ChunkLength:
		return 0, 0, ErrBadLength
	case words < ChunkLength:
		return words, 1, nil
	case words%ChunkLength != 0:
		debug.Assert(false, "gpu: burst of %d words", words)
		return 0, 0, ErrChunkAlignment
	}
	return ChunkLength, words / ChunkLength, nil
}

// VRAM size in pixels
const (
	vramWidth  = 1024
	vramHeight = 512
)

func (d *Driver) burst(addr cpu.Addr, words int) bool {
	size, blocks, err := BurstLayout(words)
	if err != nil {
		d.log.Err().Err(err).Int("words", words).Log("dropping burst")
		return false
	}
	d.hw.DMA.Start(dma.GPU, addr, dma.BlockControl(size, blocks),
		dma.Start|dma.SyncBlock|dma.FromRAM)
	return true
}

// DrawPrim waits for all queued operations and sends the single packet at pri
// to the GPU. The packet's tag isn't sent, its next pointer is ignored.
func (d *Driver) DrawPrim(pri cpu.Addr) error {
	if pri == 0 {
		return fmt.Errorf("gpu: nil packet: %w", ErrBadLength)
	}
	n := ot.Len(d.hw.RAM.Load(pri))
	if _, _, err := BurstLayout(n); err != nil {
		return fmt.Errorf("gpu: packet at %#x: %w", pri, err)
	}

	d.DrawSync(0)
	_, err := d.Enqueue(Op{Kind: OpBurst, Addr: pri.Word(1), Len: uint32(n)})
	return err
}

// DrawBuffer queues a burst of the raw command words at buf. See Enqueue for
// the return values.
func (d *Driver) DrawBuffer(buf cpu.Addr, words int) (int, error) {
	if _, _, err := BurstLayout(words); err != nil {
		return -1, err
	}
	return d.Enqueue(Op{Kind: OpBurst, Addr: buf, Len: uint32(words)})
}

// DrawOTag queues the ordering table starting at the entry ot. See Enqueue
// for the return values.
func (d *Driver) DrawOTag(ot cpu.Addr) (int, error) {
	return d.Enqueue(Op{Kind: OpChain, Addr: ot})
}

// LoadImage queues an upload of the 16bpp pixels at data to the VRAM area r.
// Pixels are packed two per word.  See Enqueue for the return values.
func (d *Driver) LoadImage(r image.Rectangle, data cpu.Addr) (int, error) {
	if r.Empty() || r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > vramWidth || r.Max.Y > vramHeight {
		return -1, fmt.Errorf("gpu: upload to %v: %w", r, ErrBadLength)
	}
	w, h := r.Dx(), r.Dy()
	if _, _, err := BurstLayout(uploadWords(w, h)); err != nil {
		return -1, fmt.Errorf("gpu: upload to %v: %w", r, err)
	}
	return d.Enqueue(Op{
		Kind: OpUpload,
		Addr: data,
		Len:  uint32(w) | uint32(h)<<16,
		Arg:  uint32(r.Min.X) | uint32(r.Min.Y)<<16,
	})
}

func uploadWords(w, h int) int { return (w*h + 1) / 2 }

func (d *Driver) upload(op Op) bool {
	w, h := int(op.Len&0xffff), int(op.Len>>16)
	if _, _, err := BurstLayout(uploadWords(w, h)); err != nil || op.Addr == 0 {
		d.log.Err().Int("width", w).Int("height", h).Log("dropping upload")
		return false
	}

	d.hw.GPU.WriteGP1(CmdDMA | uint32(DMAOff))
	d.hw.GPU.WriteGP0(CmdClearCache)
	d.hw.GPU.WriteGP0(CmdUpload)
	d.hw.GPU.WriteGP0(op.Arg)
	d.hw.GPU.WriteGP0(op.Len)

	d.startDMA()
	return d.burst(op.Addr, uploadWords(w, h))
}

// ClearOTagR links the n entries at ot in reverse order using the ordering
// table clear DMA channel. The last entry becomes the head of the list, the
// first one terminates it. See ot.Clear for the forward variant.
func (d *Driver) ClearOTagR(ot cpu.Addr, n int) error {
	if ot == 0 || n <= 0 || n > 0xffff {
		return ErrBadLength
	}
	d.hw.DMA.Start(dma.OTC, ot.Word(n-1), uint32(n), dma.Start|dma.Trigger|dma.Backward)
	if !d.hw.DMA.Wait(dma.OTC, d.drawSyncTimeout) {
		d.log.Warning().Log("ClearOTagR() timeout")
	}
	return nil
}
