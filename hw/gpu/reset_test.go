package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxgo/psx/hw/dma"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/hw/timer"
	"github.com/psxgo/psx/sim"
	psxtesting "github.com/psxgo/psx/testing"
)

func TestResetSetup(t *testing.T) {
	env := psxtesting.New(t, psxtesting.NoReset(), psxtesting.Sim(sim.WithVideoMode(gpu.PAL)))
	d := env.Driver

	d.Reset(gpu.ResetFull)
	assert.Equal(t, gpu.PAL, d.VideoMode())
	assert.Equal(t, 1, env.Log.Count("setup done"))

	d.Reset(gpu.ResetFull)
	assert.Equal(t, 1, env.Log.Count("setup done"), "handlers installed twice")

	assert.Equal(t, gpu.PAL, d.SetVideoMode(gpu.NTSC))
	assert.Equal(t, gpu.NTSC, d.VideoMode())

	for _, c := range []timer.Counter{timer.Dotclock, timer.HBlank} {
		mode := timer.ModeFlags(env.Timers.Load(timer.Mode(c)))
		assert.Equal(t, timer.ModeDefault, mode, "counter %d", c)
	}

	dpcr := env.DMA.Load(dma.DPCR)
	assert.Equal(t, uint32(0xb), dpcr>>(4*dma.GPU)&0xf)
	assert.Equal(t, uint32(0xb), dpcr>>(4*dma.OTC)&0xf)
}

func TestResetIdempotent(t *testing.T) {
	for _, mode := range []gpu.ResetMode{gpu.ResetFull, gpu.ResetCommands, gpu.ResetPreserve} {
		env := psxtesting.New(t, psxtesting.Sim(sim.WithCompletion(sim.Manual)))
		d := env.Driver
		d.SetVSyncHalt(env.VBlank)

		d.VSync(0)
		for i := range 4 {
			_, err := d.Enqueue(burst(env, uint32(i)))
			require.NoError(t, err)
		}

		d.Reset(mode)
		env.GPU.ClearLog()
		status, counter, length := env.GPU.Status(), d.VSync(-1), d.QueueLength()

		d.Reset(mode)
		gp1 := env.GPU.GP1()
		env.GPU.ClearLog()
		d.Reset(mode)

		assert.Equal(t, gp1, env.GPU.GP1(), "mode %d", mode)
		assert.Equal(t, status, env.GPU.Status(), "mode %d", mode)
		assert.Equal(t, counter, d.VSync(-1), "mode %d", mode)
		assert.Equal(t, length, d.QueueLength(), "mode %d", mode)
		assert.Equal(t, 0, length, "mode %d", mode)
		assert.Equal(t, gpu.DMAOff, status.DMADir(), "mode %d", mode)
	}
}

func TestResetModes(t *testing.T) {
	tests := []struct {
		mode    gpu.ResetMode
		counter int
		gp1     []uint32
	}{
		{gpu.ResetFull, 0, []uint32{gpu.CmdReset}},
		{gpu.ResetCommands, 2, []uint32{gpu.CmdResetBuffer, gpu.CmdAckIRQ, gpu.CmdDMA}},
		{gpu.ResetPreserve, 0, []uint32{gpu.CmdResetBuffer, gpu.CmdAckIRQ, gpu.CmdDMA}},
		{gpu.ResetMode(2), 0, []uint32{gpu.CmdResetBuffer, gpu.CmdAckIRQ, gpu.CmdDMA}},
	}
	for _, tc := range tests {
		env := psxtesting.New(t)
		env.VBlank()
		env.VBlank()
		env.GPU.ClearLog()

		env.Driver.Reset(tc.mode)
		assert.Equal(t, tc.gp1, env.GPU.GP1(), "mode %d", tc.mode)
		assert.Equal(t, tc.counter, env.Driver.VSync(-1), "mode %d", tc.mode)
	}
}

func TestResetCancelsTransfer(t *testing.T) {
	env := psxtesting.New(t, psxtesting.Sim(sim.WithCompletion(sim.Manual)))
	d := env.Driver

	_, err := d.Enqueue(burst(env, 1))
	require.NoError(t, err)
	require.Equal(t, 1, env.DMA.Pending())

	d.Reset(gpu.ResetFull)
	assert.Equal(t, 0, env.DMA.Pending())
	assert.False(t, env.Complete())
	assert.Empty(t, env.GPU.Words())

	n, err := d.Enqueue(burst(env, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
