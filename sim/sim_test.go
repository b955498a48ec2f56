package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxgo/psx/debug"
	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/hw/gpu/ot"
	"github.com/psxgo/psx/hw/irq"
	"github.com/psxgo/psx/sim"
	psxtesting "github.com/psxgo/psx/testing"
)

func TestGPUStatus(t *testing.T) {
	m := sim.New(sim.WithVideoMode(gpu.PAL), sim.WithInterlace())
	s := m.GPU.Status()
	assert.NotZero(t, s&gpu.StatusPAL)
	assert.NotZero(t, s&gpu.StatusInterlace)
	assert.NotZero(t, s&gpu.StatusCmdReady)
	assert.Zero(t, s&gpu.StatusDMAReady)
	assert.Equal(t, gpu.DMAOff, s.DMADir())

	m.GPU.WriteGP1(gpu.CmdDisplayMode)
	m.GPU.WriteGP1(gpu.CmdDMA | uint32(gpu.DMAToGP0))
	s = m.GPU.Status()
	assert.Zero(t, s&(gpu.StatusPAL|gpu.StatusInterlace))
	assert.Equal(t, gpu.DMAToGP0, s.DMADir())
	assert.NotZero(t, s&gpu.StatusDMAReady)

	// power on configuration comes back with a reset
	m.GPU.WriteGP1(gpu.CmdReset)
	s = m.GPU.Status()
	assert.NotZero(t, s&gpu.StatusPAL)
	assert.Equal(t, gpu.DMAOff, s.DMADir())
}

func TestFieldToggle(t *testing.T) {
	m := sim.New(sim.WithInterlace())
	field := m.GPU.Status() & gpu.StatusField
	m.VBlank()
	assert.NotEqual(t, field, m.GPU.Status()&gpu.StatusField)
	m.VBlank()
	assert.Equal(t, field, m.GPU.Status()&gpu.StatusField)

	progressive := sim.New()
	progressive.VBlank()
	assert.Zero(t, progressive.GPU.Status()&gpu.StatusField)
}

func TestGPUInterruptRequest(t *testing.T) {
	m := sim.New()
	var n int
	m.IRQ.SetHandler(irq.GPU, func() { n++ })
	m.IRQ.Enable(irq.GPU.Mask())

	m.GPU.WriteGP0(gpu.CmdIRQ | 0x1234)
	assert.Equal(t, 1, n)
	assert.NotZero(t, m.GPU.Status()&gpu.StatusIRQ)

	// no new edge until acknowledged
	m.GPU.RaiseIRQ()
	assert.Equal(t, 1, n)

	m.GPU.WriteGP1(gpu.CmdAckIRQ)
	m.GPU.RaiseIRQ()
	assert.Equal(t, 2, n)
}

func TestChecksum(t *testing.T) {
	a, b := sim.New(), sim.New()
	for _, v := range []uint32{0x0200_0000, 0x0010_0020, 0x00f0_0140} {
		a.GPU.WriteGP0(v)
		b.GPU.WriteGP0(v)
	}
	assert.Equal(t, a.GPU.Checksum(), b.GPU.Checksum())

	b.GPU.WriteGP0(0)
	assert.NotEqual(t, a.GPU.Checksum(), b.GPU.Checksum())

	empty := sim.New().GPU.Checksum()
	a.GPU.ClearLog()
	assert.Equal(t, empty, a.GPU.Checksum())
	assert.Empty(t, a.GPU.Words())
}

func TestLinkedListCycle(t *testing.T) {
	env := psxtesting.New(t, psxtesting.Sim(sim.WithRAMSize(256<<10)))

	// two packets pointing at each other
	a := ot.Prim(env.RAM, 1)
	b := ot.Prim(env.RAM, 2)
	env.RAM.Store(a, ot.MakeTag(1, b))
	env.RAM.Store(b, ot.MakeTag(1, a))

	_, err := env.Driver.DrawOTag(a)
	require.NoError(t, err)
	assert.True(t, env.Log.Contains("linked list doesn't terminate"))
	assert.Equal(t, 0, env.Driver.QueueLength())
}

func TestTransferOutsideRAM(t *testing.T) {
	env := psxtesting.New(t, psxtesting.Sim(sim.WithRAMSize(256<<10)))

	_, err := env.Driver.DrawBuffer(cpu.Addr(0x1f_0000), 4)
	require.NoError(t, err)
	assert.True(t, env.Log.Contains("transfer outside of RAM"))
	assert.Empty(t, env.GPU.Words())
	assert.Equal(t, 0, env.Driver.QueueLength())
}

func TestNoRequestStalls(t *testing.T) {
	m := sim.New(sim.WithLogger(debug.Discard()))
	c := m.Hardware().DMA
	c.SetPriority(dma.GPU, 3)

	buf := m.RAM.Alloc(1)
	c.Start(dma.GPU, buf, dma.BlockControl(1, 1), dma.Start|dma.SyncBlock|dma.FromRAM)
	assert.True(t, c.Busy(dma.GPU), "transfer without request finished")
	assert.Empty(t, m.GPU.Words())
}

func TestRun(t *testing.T) {
	env := psxtesting.New(t, psxtesting.Sim(sim.WithCompletion(sim.Delayed)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error)
	go func() { done <- env.Run(ctx) }()

	_, err := env.Driver.DrawBuffer(ot.Prim(env.RAM, 7).Word(1), 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.Driver.VSync(-1) >= 3 && env.Driver.QueueLength() == 0
	}, 4*time.Second, time.Millisecond)
	assert.Equal(t, []uint32{7}, env.GPU.Words())

	cancel()
	require.NoError(t, <-done)
}

func TestFramePeriod(t *testing.T) {
	assert.InDelta(t, 16.68, sim.New().FramePeriod().Seconds()*1000, 0.01)
	assert.Equal(t, 20*time.Millisecond, sim.New(sim.WithVideoMode(gpu.PAL)).FramePeriod())
}
