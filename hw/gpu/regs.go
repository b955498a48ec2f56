package gpu

// Port is the GPU's register pair. GP0 receives drawing commands and VRAM
// data, GP1 receives display control commands and returns the status word.
type Port interface {
	WriteGP0(v uint32)
	WriteGP1(v uint32)
	ReadGP1() uint32
}

// Status is the layout of the word read from GP1.
type Status uint32

const (
	StatusPAL       Status = 1 << 20
	StatusInterlace Status = 1 << 22
	StatusIRQ       Status = 1 << 24 // Set by GP0 0x1f
	StatusCmdReady  Status = 1 << 26
	StatusDMAReady  Status = 1 << 28
	StatusDMADir    Status = 3 << 29
	StatusField     Status = 1 << 31 // Odd/even field while interlaced
)

// DMADir returns the DMA request direction configured with GP1 0x04.
func (s Status) DMADir() DMADir { return DMADir(s >> 29 & 3) }

// DMADir selects what the GPU's DMA request line signals.
type DMADir uint32

const (
	DMAOff DMADir = iota
	DMAFIFO
	DMAToGP0 // CPU to GP0
	DMAToCPU // GPUREAD to CPU
)

// GP1 commands
const (
	CmdReset       uint32 = 0x00 << 24
	CmdResetBuffer uint32 = 0x01 << 24
	CmdAckIRQ      uint32 = 0x02 << 24
	CmdDMA         uint32 = 0x04 << 24 // Or'ed with DMADir
	CmdDisplayMode uint32 = 0x08 << 24
)

// Bits of GP1 0x08
const (
	DisplayPAL       = 1 << 3
	DisplayInterlace = 1 << 5
)

// GP0 commands
const (
	CmdClearCache uint32 = 0x01 << 24
	CmdIRQ        uint32 = 0x1f << 24
	CmdUpload     uint32 = 0xa0 << 24 // Copy rectangle CPU to VRAM
)
