// Package ot builds ordering tables, the linked lists of primitives consumed
// by the GPU DMA channel in linked-list mode.
//
// Every packet starts with a tag word: the number of command words following
// the tag in the upper 8 bits and the physical address of the next packet in
// the lower 24 bits. The list ends at a packet whose next address has bit 23
// set, usually End.
package ot

import (
	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/cpu"
)

// End terminates a list.
const End = 0x00ff_ffff

const addrMask = 0x00ff_ffff

// MaxLen is the maximum number of command words in a packet.
const MaxLen = 0xff

// Len returns the number of command words following tag.
func Len(tag uint32) int { return int(tag >> 24) }

// Next returns the address of the packet following tag.
func Next(tag uint32) cpu.Addr { return cpu.Addr(tag & addrMask) }

// IsEnd returns true if tag is the last packet of a list.
func IsEnd(tag uint32) bool { return tag&0x0080_0000 != 0 }

// MakeTag returns a tag for a packet of n command words linking to next.
func MakeTag(n int, next cpu.Addr) uint32 {
	debug.Assert(n >= 0 && n <= MaxLen, "ot: packet length %d", n)
	return uint32(n)<<24 | uint32(next)&addrMask
}

// Clear links the n entries at ot from first to last.  It's the software
// counterpart of gpu.Driver.ClearOTagR, which links them in reverse.
func Clear(m cpu.Memory, ot cpu.Addr, n int) {
	if n <= 0 {
		return
	}
	for i := range n - 1 {
		m.Store(ot.Word(i), MakeTag(0, ot.Word(i+1)))
	}
	m.Store(ot.Word(n-1), End)
}

// AddPrim links the packet at pri into the list right after the entry at slot.
func AddPrim(m cpu.Memory, slot, pri cpu.Addr) {
	s, p := m.Load(slot), m.Load(pri)
	m.Store(pri, p&^addrMask|s&addrMask)
	m.Store(slot, s&^addrMask|uint32(pri)&addrMask)
}

// SetLen sets the number of command words of the packet at pri.
func SetLen(m cpu.Memory, pri cpu.Addr, n int) {
	debug.Assert(n >= 0 && n <= MaxLen, "ot: packet length %d", n)
	m.Store(pri, m.Load(pri)&addrMask|uint32(n)<<24)
}

// Prim allocates a packet holding cmd, linked to nothing, and returns its
// address. Panics if cmd has more than MaxLen words.
func Prim(ram *cpu.RAM, cmd ...uint32) cpu.Addr {
	if len(cmd) > MaxLen {
		panic("ot: packet too long")
	}
	pri := ram.Alloc(len(cmd) + 1)
	ram.Store(pri, MakeTag(len(cmd), End))
	cpu.Write(ram, pri.Word(1), cmd)
	return pri
}
