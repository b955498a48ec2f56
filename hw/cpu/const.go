// Package cpu describes the main CPU's view of memory.
package cpu

// The CPU's clock speed
const ClockSpeed = 33.8688e6

// Memory regions in kernel mode
const (
	KUSEG uint32 = 0x0000_0000 // mapped, cached
	KSEG0 uint32 = 0x8000_0000 // unmapped, cached
	KSEG1 uint32 = 0xa000_0000 // unmapped, uncached
)

// Size of main RAM in bytes.
const RAMSize = 2 << 20

// Addr represents a physical memory address
type Addr uint32

// PhysicalAddress returns the physical address of a virtual address in KUSEG,
// KSEG0 or KSEG1.
func PhysicalAddress(addr uint32) Addr {
	return Addr(addr & 0x1fff_ffff)
}

// Word returns the address n words after p.
func (p Addr) Word(n int) Addr {
	return p + Addr(4*n)
}

// Aligned returns true if p is word aligned.
func (p Addr) Aligned() bool {
	return p&0x3 == 0
}
