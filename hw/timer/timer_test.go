package timer_test

import (
	"testing"

	"github.com/psxgo/psx/hw/timer"
	"github.com/psxgo/psx/sim"
)

func TestModeResetsCounter(t *testing.T) {
	m := sim.New()
	timers := timer.New(m.Timers)

	timers.SetMode(timer.HBlank, timer.ModeDefault)
	m.VBlank()
	if v := timers.Value(timer.HBlank); v != 263 {
		t.Fatal("counted", v, "scanlines")
	}
	if timers.Mode(timer.HBlank) != timer.ModeDefault {
		t.Fatalf("mode %#x", timers.Mode(timer.HBlank))
	}

	timers.SetMode(timer.HBlank, timer.ModeDefault)
	if v := timers.Value(timer.HBlank); v != 0 {
		t.Fatal("counter not reset, got", v)
	}
}

func TestCounterWraps(t *testing.T) {
	m := sim.New()
	timers := timer.New(m.Timers)
	timers.SetMode(timer.HBlank, timer.ModeDefault)

	m.Timers.Store(timer.Value(timer.HBlank), 0xffff)
	m.VBlank()
	if v := timers.Value(timer.HBlank); v != 262 {
		t.Fatal("counter didn't wrap, got", v)
	}
}
