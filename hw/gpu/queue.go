package gpu

import (
	"fmt"

	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/dma"
)

// OpKind selects how an Op is submitted.
type OpKind uint8

const (
	OpChain  OpKind = iota + 1 // Linked list DMA of an ordering table at Addr
	OpBurst                    // Block DMA of Len words at Addr
	OpUpload                   // VRAM upload, see LoadImage
)

var opNames = [...]string{"invalid", "chain", "burst", "upload"}

func (k OpKind) String() string {
	if int(k) >= len(opNames) {
		return opNames[0]
	}
	return opNames[k]
}

// Op is a deferred drawing operation. The memory at Addr isn't copied and
// must stay valid until the operation has completed.
type Op struct {
	Kind OpKind
	Addr cpu.Addr
	Len  uint32
	Arg  uint32
}

// validate checks that op can be started.  An operation that starts no
// transfer would never complete and block the queue for good.
func (op Op) validate() error {
	if op.Addr == 0 {
		return fmt.Errorf("gpu: %v at nil address: %w", op.Kind, ErrBadLength)
	}
	switch op.Kind {
	case OpChain:
		return nil
	case OpBurst:
		_, _, err := BurstLayout(int(op.Len))
		return err
	case OpUpload:
		w, h := int(op.Len&0xffff), int(op.Len>>16)
		x, y := int(op.Arg&0xffff), int(op.Arg>>16)
		if w == 0 || h == 0 || x+w > vramWidth || y+h > vramHeight {
			return ErrBadLength
		}
		_, _, err := BurstLayout(uploadWords(w, h))
		return err
	}
	return fmt.Errorf("gpu: invalid op kind %d", op.Kind)
}

// Enqueue submits op. If nothing is in flight, op is started right away and
// Enqueue returns 0. Otherwise op is appended to the queue and Enqueue
// returns the number of operations ahead of it. If the queue is full, op is
// dropped and ErrQueueFull is returned with -1. Invalid operations are
// rejected with -1 as well.
func (d *Driver) Enqueue(op Op) (int, error) {
	if err := op.validate(); err != nil {
		return -1, err
	}

	// The length must be read with interrupts masked, a completion between
	// check and update would lose the operation.
	prev := d.hw.IRQ.Enter()
	n := int(d.length.Load())

	if n == 0 {
		d.length.Store(1)
		d.hw.IRQ.Exit(prev)

		if !d.execute(op) {
			prev = d.hw.IRQ.Enter()
			d.advance()
			d.hw.IRQ.Exit(prev)
		}
		return 0, nil
	}
	if n >= QueueLength {
		d.hw.IRQ.Exit(prev)

		d.log.Warning().Stringer("op", op.Kind).Limit().
			Log("draw queue overflow, dropping commands")
		return -1, ErrQueueFull
	}

	d.queue[d.tail] = op
	d.tail = (d.tail + 1) % QueueLength
	d.length.Store(int32(n + 1))

	d.hw.IRQ.Exit(prev)
	return n, nil
}

// QueueLength returns the number of operations in flight or queued.
func (d *Driver) QueueLength() int {
	return int(d.length.Load())
}

// complete handles the end of a transfer, signaled by either the GPU's DMA
// channel or GP0 0x1f.
//
// Runs in interrupt context.
func (d *Driver) complete() {
	if Status(d.hw.GPU.ReadGP1())&StatusIRQ != 0 {
		d.hw.GPU.WriteGP1(CmdAckIRQ)
	}

	if d.length.Load() == 0 {
		d.log.Debug().Limit().Log("spurious completion")
		return
	}
	d.advance()
}

// advance retires the operation in flight and starts the next queued one. If
// the queue ran empty, it disables the DMA request and calls the drawsync
// callback. Operations that fail to start are skipped.
//
// The caller must own the CPU.
func (d *Driver) advance() {
	for {
		n := d.length.Load() - 1
		d.length.Store(n)
		if n == 0 {
			break
		}

		op := d.queue[d.head]
		d.head = (d.head + 1) % QueueLength
		if d.execute(op) {
			return
		}
	}

	d.hw.GPU.WriteGP1(CmdDMA | uint32(DMAOff))
	if d.drawSyncCallback != nil {
		d.drawSyncCallback()
	}
}

// execute starts the transfer of op. Returns false if nothing was started.
func (d *Driver) execute(op Op) bool {
	switch op.Kind {
	case OpChain:
		d.startDMA()
		d.hw.DMA.Start(dma.GPU, op.Addr, 0, dma.Start|dma.SyncLinked|dma.FromRAM)
		return true
	case OpBurst:
		d.startDMA()
		return d.burst(op.Addr, int(op.Len))
	case OpUpload:
		return d.upload(op)
	}
	d.log.Err().Int("kind", int(op.Kind)).Log("invalid draw op")
	return false
}

// startDMA routes the DMA request to GP0 and waits for the channel to become
// free.
func (d *Driver) startDMA() {
	d.hw.GPU.WriteGP1(CmdDMA | uint32(DMAToGP0))
	if !d.hw.DMA.Wait(dma.GPU, d.drawSyncTimeout) {
		d.log.Warning().Limit().Log("GPU DMA busy, starting anyway")
	}
}
