package sim

import (
	"sync"

	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/timer"
)

// Timers simulates the root counters. They only advance on vertical blanks,
// by the amount of their clock source's ticks per frame.
type Timers struct {
	mtx    sync.Mutex
	value  [timer.CounterLast]uint32
	mode   [timer.CounterLast]uint32
	target [timer.CounterLast]uint32
}

func newTimers() *Timers {
	return &Timers{}
}

func (t *Timers) Load(r timer.Register) uint32 {
	c, reg := timer.Counter(r>>4), r&0xf
	if c >= timer.CounterLast {
		return 0
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()
	switch reg {
	case 0:
		return t.value[c] & 0xffff
	case 4:
		return t.mode[c]
	case 8:
		return t.target[c]
	}
	return 0
}

func (t *Timers) Store(r timer.Register, v uint32) {
	c, reg := timer.Counter(r>>4), r&0xf
	if c >= timer.CounterLast {
		return
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()
	switch reg {
	case 0:
		t.value[c] = v & 0xffff
	case 4:
		t.mode[c] = v&0x3ff | uint32(timer.IRQIdle)
		t.value[c] = 0
	case 8:
		t.target[c] = v & 0xffff
	}
}

// advance adds one frame worth of ticks to all counters.
func (t *Timers) advance(lines int, rate float32) {
	cycles := uint32(cpu.ClockSpeed / rate)

	t.mtx.Lock()
	defer t.mtx.Unlock()
	for c := range timer.CounterLast {
		ticks := cycles
		switch {
		case c == timer.HBlank && timer.ModeFlags(t.mode[c])&timer.ClockSource != 0:
			ticks = uint32(lines)
		case c == timer.SysClock && timer.ModeFlags(t.mode[c])&timer.ClockDiv8 != 0:
			ticks /= 8
		}
		t.value[c] = (t.value[c] + ticks) & 0xffff
	}
}
