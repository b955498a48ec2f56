package irq_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/psxgo/psx/hw/irq"
)

func TestRaiseDelivers(t *testing.T) {
	c := irq.NewController()
	var n int
	c.SetHandler(irq.VBlank, func() { n++ })

	c.Raise(irq.VBlank)
	if n != 0 {
		t.Fatal("delivered on masked line")
	}
	if c.Pending()&irq.VBlank.Mask() == 0 {
		t.Fatal("raised line not pending")
	}

	c.Enable(irq.VBlank.Mask())
	if n != 1 {
		t.Fatal("pending interrupt not delivered on enable, got", n)
	}
	if c.Pending() != 0 {
		t.Fatalf("pending %#x after delivery", c.Pending())
	}

	c.Raise(irq.VBlank)
	if n != 2 {
		t.Fatal("interrupt not delivered, got", n)
	}
}

func TestCriticalSectionDefers(t *testing.T) {
	c := irq.NewController()
	var n int
	c.SetHandler(irq.DMA, func() { n++ })
	c.Enable(irq.All)

	prev := c.Enter()
	c.Raise(irq.DMA)
	if n != 0 {
		t.Fatal("handler ran inside critical section")
	}
	c.Exit(prev)
	if n != 1 {
		t.Fatal("handler didn't run on exit, got", n)
	}
}

func TestCriticalSectionNesting(t *testing.T) {
	c := irq.NewController()
	c.Enable(irq.All)

	outer := c.Enter()
	inner := c.Enter()
	if inner&irq.Critical != 0 {
		t.Fatalf("nested enter returned unmasked state %#x", inner)
	}
	c.Exit(inner)
	if c.Enabled()&irq.Critical != 0 {
		t.Fatal("inner exit unmasked critical lines")
	}
	if !c.Owned() {
		t.Fatal("inner exit released the cpu")
	}
	c.Exit(outer)
	if c.Enabled() != irq.All {
		t.Fatalf("outer exit restored %#x", c.Enabled())
	}
	if c.Owned() {
		t.Fatal("cpu still owned")
	}
}

func TestFastCriticalSection(t *testing.T) {
	c := irq.NewController()
	var n int
	c.SetHandler(irq.GPU, func() { n++ })
	c.Enable(irq.GPU.Mask())

	c.FastEnter()
	c.Raise(irq.GPU)
	if n != 0 {
		t.Fatal("handler ran inside critical section")
	}
	c.FastExit()
	if n != 1 {
		t.Fatal("handler didn't run on exit, got", n)
	}
}

func TestHandlerMayEnter(t *testing.T) {
	c := irq.NewController()
	var entered bool
	c.SetHandler(irq.VBlank, func() {
		prev := c.Enter()
		entered = c.Owned()
		c.Exit(prev)
	})
	c.Enable(irq.All)

	c.Raise(irq.VBlank)
	if !entered {
		t.Fatal("handler couldn't enter critical section")
	}
	if c.Owned() {
		t.Fatal("cpu still owned after handler")
	}
}

func TestHandlerExcludesCriticalSection(t *testing.T) {
	c := irq.NewController()
	release := make(chan struct{})
	running := make(chan struct{})
	c.SetHandler(irq.DMA, func() {
		close(running)
		<-release
	})
	c.Enable(irq.All)

	go c.Raise(irq.DMA)
	<-running

	var entered atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		prev := c.Enter()
		entered.Store(true)
		c.Exit(prev)
	}()

	time.Sleep(10 * time.Millisecond)
	if entered.Load() {
		t.Fatal("entered critical section while handler was running")
	}
	close(release)
	wg.Wait()
	if !entered.Load() {
		t.Fatal("critical section never entered")
	}
}

func TestRaiseFromHandlerIsDeferred(t *testing.T) {
	c := irq.NewController()
	var order []irq.Line
	c.SetHandler(irq.GPU, func() {
		order = append(order, irq.GPU)
		c.Raise(irq.VBlank)
		if len(order) != 1 {
			t.Error("nested handler call")
		}
	})
	c.SetHandler(irq.VBlank, func() { order = append(order, irq.VBlank) })
	c.Enable(irq.All)

	c.Raise(irq.GPU)
	if len(order) != 2 || order[0] != irq.GPU || order[1] != irq.VBlank {
		t.Fatal("unexpected delivery order", order)
	}
}

func TestUnhandledInterrupt(t *testing.T) {
	c := irq.NewController()
	c.Enable(irq.All)

	defer func() {
		if recover() == nil {
			t.Fatal("unhandled interrupt didn't panic")
		}
	}()
	c.Raise(irq.SPU)
}

func TestSetHandlerReturnsOld(t *testing.T) {
	c := irq.NewController()
	var a, b int
	c.SetHandler(irq.Timer1, func() { a++ })
	old := c.SetHandler(irq.Timer1, func() { b++ })
	old()
	if a != 1 || b != 0 {
		t.Fatal("SetHandler didn't return the previous handler")
	}
	c.Handler(irq.Timer1)()
	if b != 1 {
		t.Fatal("Handler didn't return the current handler")
	}
}
