package dma

// Register is the offset of a DMA register from 0x1f80_1080.
type Register uint32

const (
	DPCR Register = 0x70 // Priority and enable of all channels
	DICR Register = 0x74 // Interrupt enable and flags
)

// MADR returns the base address register of ch.
func MADR(ch Channel) Register { return Register(ch) * 0x10 }

// BCR returns the block control register of ch.
func BCR(ch Channel) Register { return Register(ch)*0x10 + 4 }

// CHCR returns the channel control register of ch.
func CHCR(ch Channel) Register { return Register(ch)*0x10 + 8 }

// Channel returns the channel a per-channel register belongs to, or
// ChannelLast for DPCR and DICR.
func (r Register) Channel() Channel {
	if r >= DPCR {
		return ChannelLast
	}
	return Channel(r >> 4)
}

// Port is the register block of the DMA controller. Stores to DICR clear the
// interrupt flags written as one.
type Port interface {
	Load(r Register) uint32
	Store(r Register, v uint32)
}

// Control is the layout of a channel's CHCR.
type Control uint32

const (
	FromRAM  Control = 1 << 0 // Transfer direction
	Backward Control = 1 << 1 // Decrement address after each word

	SyncManual Control = 0 << 9 // Transfer all words at once
	SyncBlock  Control = 1 << 9 // Transfer on request, block by block
	SyncLinked Control = 2 << 9 // Follow a linked list of packets
	SyncMask   Control = 3 << 9

	Start   Control = 1 << 24 // Busy while set
	Trigger Control = 1 << 28 // Start a manual transfer without request
)

// Sync returns the synchronization mode of c.
func (c Control) Sync() Control { return c & SyncMask }

// Layout of DICR
const (
	dicrEnableShift = 16
	dicrMaster      = 1 << 23
	dicrFlagShift   = 24
	dicrFlags       = 0x7f << dicrFlagShift
)

// Block control for a block mode transfer of blocks * size words.
func BlockControl(size, blocks int) uint32 {
	return uint32(blocks)<<16 | uint32(size)&0xffff
}
