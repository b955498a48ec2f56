package irq

import "github.com/petermattis/goid"

// Enter starts a critical section by masking the Critical lines. It returns
// the previous mask, which must be passed to the matching Exit. Critical
// sections nest: a goroutine that already owns the CPU, either through Enter
// or because it's running an interrupt handler, enters immediately.
//
// Enter blocks while another goroutine owns the CPU, i.e. while a handler
// runs. Keep critical sections short, they delay interrupt delivery.
func (c *Controller) Enter() (prev Mask) {
	c.acquire()
	c.mtx.Lock()
	prev = c.mask
	c.mask &^= Critical
	c.mtx.Unlock()
	return prev
}

// Exit ends a critical section and restores the Critical lines of the mask
// returned by Enter.  Interrupts that became pending in the meantime are
// delivered before Exit returns, once the outermost section is left.
func (c *Controller) Exit(prev Mask) {
	c.mtx.Lock()
	c.mask = c.mask&^Critical | prev&Critical
	c.mtx.Unlock()
	if c.release() {
		c.dispatch()
	}
}

// FastEnter is a cheaper Enter for code that never nests critical sections.
// It masks the Critical lines without saving the previous mask.
func (c *Controller) FastEnter() {
	c.acquire()
	c.mtx.Lock()
	c.mask &^= Critical
	c.mtx.Unlock()
}

// FastExit unconditionally unmasks the Critical lines.
func (c *Controller) FastExit() {
	c.mtx.Lock()
	c.mask |= Critical
	c.mtx.Unlock()
	if c.release() {
		c.dispatch()
	}
}

// Owned returns true if the calling goroutine is inside a critical section
// or an interrupt handler.
func (c *Controller) Owned() bool {
	id := goid.Get()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.owner == id
}

func (c *Controller) acquire() {
	id := goid.Get()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for c.owner != 0 && c.owner != id {
		c.cond.Wait()
	}
	c.owner = id
	c.depth++
}

// release returns true if the CPU was released by this call.
func (c *Controller) release() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.depth--
	if c.depth > 0 {
		return false
	}
	c.owner = 0
	c.cond.Broadcast()
	return true
}
