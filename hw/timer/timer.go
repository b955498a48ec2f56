// Package timer provides access to the three root counters. Counter 1 counts
// horizontal blanks when clocked from its second source, which makes it a
// scanline clock for measuring time within a frame.
package timer

// Counter is one of the root counters.
type Counter uint8

const (
	Dotclock Counter = iota // Counter 0
	HBlank                  // Counter 1
	SysClock                // Counter 2

	CounterLast
)

// Register is the offset of a root counter register from 0x1f80_1100.
type Register uint32

func Value(c Counter) Register  { return Register(c) * 0x10 }
func Mode(c Counter) Register   { return Register(c)*0x10 + 4 }
func Target(c Counter) Register { return Register(c)*0x10 + 8 }

// Port is the register block of the root counters. A store to a mode register
// resets the counter value to zero.
type Port interface {
	Load(r Register) uint32
	Store(r Register, v uint32)
}

type ModeFlags uint32

const (
	SyncEnable    ModeFlags = 1 << 0
	ResetAtTarget ModeFlags = 1 << 3
	IRQAtTarget   ModeFlags = 1 << 4
	IRQAtMax      ModeFlags = 1 << 5
	IRQRepeat     ModeFlags = 1 << 6
	IRQToggle     ModeFlags = 1 << 7
	ClockSource   ModeFlags = 1 << 8 // Dotclock for counter 0, hblank for counter 1
	ClockDiv8     ModeFlags = 1 << 9 // Counter 2 only
	IRQIdle       ModeFlags = 1 << 10
	ReachedTarget ModeFlags = 1 << 11
	ReachedMax    ModeFlags = 1 << 12

	// Free running from the alternate clock source, no interrupts.
	ModeDefault = ClockSource | IRQIdle
)

// Timers gives typed access to a Port.
type Timers struct {
	port Port
}

func New(port Port) *Timers {
	return &Timers{port: port}
}

// Value returns the current value of counter c.
func (t *Timers) Value(c Counter) uint16 {
	return uint16(t.port.Load(Value(c)))
}

// SetMode configures counter c and restarts it from zero.
func (t *Timers) SetMode(c Counter, mode ModeFlags) {
	t.port.Store(Mode(c), uint32(mode))
}

func (t *Timers) Mode(c Counter) ModeFlags {
	return ModeFlags(t.port.Load(Mode(c)))
}
