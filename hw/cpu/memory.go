package cpu

import (
	"sync"
	"sync/atomic"

	"github.com/psxgo/psx/debug"
)

// Memory is word addressable main RAM as seen by the CPU and the DMA engine.
// Addresses are physical and must be word aligned.
type Memory interface {
	Load(addr Addr) uint32
	Store(addr Addr, v uint32)
}

// RAM is a simulated main RAM. Every word is accessed atomically, since the
// DMA engine reads it concurrently to the CPU writing primitives.
type RAM struct {
	words []atomic.Uint32

	mtx  sync.Mutex
	next Addr // bump allocator
}

// NewRAM returns a RAM of size bytes. Address zero is never handed out by
// Alloc, so it can be used as a nil pointer.
func NewRAM(size int) *RAM {
	return &RAM{
		words: make([]atomic.Uint32, size/4),
		next:  0x1_0000, // keep the kernel area free like the BIOS does
	}
}

// Size returns the size of the RAM in bytes.
func (m *RAM) Size() int { return len(m.words) * 4 }

// Contains returns true if the n words starting at addr are inside RAM.
func (m *RAM) Contains(addr Addr, n int) bool {
	start := int(addr) >> 2
	return addr.Aligned() && n >= 0 && start+n <= len(m.words)
}

//go:nosplit
func (m *RAM) Load(addr Addr) uint32 {
	debug.Assert(addr.Aligned(), "cpu: unaligned load")
	return m.words[(addr&0x1f_ffff)>>2].Load()
}

//go:nosplit
func (m *RAM) Store(addr Addr, v uint32) {
	debug.Assert(addr.Aligned(), "cpu: unaligned store")
	m.words[(addr&0x1f_ffff)>>2].Store(v)
}

// Alloc reserves n words and returns their address.  Memory is never freed,
// buffers live as long as the machine. Panics if RAM is exhausted.
func (m *RAM) Alloc(n int) Addr {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	addr := m.next
	if !m.Contains(addr, n) {
		panic("cpu: out of memory")
	}
	m.next = addr.Word(n)
	for i := range n {
		m.Store(addr.Word(i), 0)
	}
	return addr
}

// Read copies len(p) words starting at addr into p.
func Read(m Memory, addr Addr, p []uint32) {
	for i := range p {
		p[i] = m.Load(addr.Word(i))
	}
}

// Write copies p to memory starting at addr.
func Write(m Memory, addr Addr, p []uint32) {
	for i, v := range p {
		m.Store(addr.Word(i), v)
	}
}
