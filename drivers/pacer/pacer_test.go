package pacer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/psxgo/psx/drivers/pacer"
	psxtesting "github.com/psxgo/psx/testing"
)

func TestFullRate(t *testing.T) {
	env := psxtesting.New(t)
	env.Driver.SetVSyncHalt(env.VBlank)
	p := pacer.New(env.Driver, 0)

	for range 5 {
		assert.Equal(t, 1, p.Frame())
	}
	assert.Equal(t, 5, p.Frames())
	assert.Equal(t, 0, p.Skipped())
	assert.InDelta(t, 59.94, p.FPS(), 0.01)
}

func TestSkippedFrames(t *testing.T) {
	env := psxtesting.New(t)
	env.Driver.SetVSyncHalt(env.VBlank)
	p := pacer.New(env.Driver, 1)
	p.Frame()

	// rendering takes two and a half frames
	env.VBlank()
	env.VBlank()
	assert.Equal(t, 3, p.Frame())
	assert.Equal(t, 2, p.Skipped())
	assert.InDelta(t, 19.98, p.FPS(), 0.01)
	assert.Equal(t, 2*263, p.Scanlines())
	assert.InDelta(t, 2/59.94, p.Duration().Seconds(), 1e-4)
}

func TestInterval(t *testing.T) {
	env := psxtesting.New(t)
	env.Driver.SetVSyncHalt(env.VBlank)
	p := pacer.New(env.Driver, 2)
	p.Frame()

	assert.Equal(t, 2, p.Frame())
	env.VBlank()
	assert.Equal(t, 2, p.Frame(), "frame within its slot")
	assert.Equal(t, 0, p.Skipped())

	env.VBlank()
	env.VBlank()
	env.VBlank()
	assert.Equal(t, 3, p.Frame())
	assert.Equal(t, 1, p.Skipped())
}
