package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psxgo/psx/hw/gpu"
	psxtesting "github.com/psxgo/psx/testing"
)

func TestScript(t *testing.T) {
	env := psxtesting.New(t)
	env.Driver.SetVSyncHalt(env.VBlank)

	var out bytes.Buffer
	in := &interp{m: env.Machine, d: env.Driver, w: &out}
	script := `# two settings and a chain
buffer 0xe1000000 0xe2000000
vblank 2
vsync -1
drawsync
chain "0x02000000 1 2" 0x01000000
words
`
	require.NoError(t, runScript(in, strings.NewReader(script)))

	lines := strings.Fields(out.String())
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"0", "2", "0", "0"}, lines[:4])
	assert.Subset(t, lines[4:], []string{"e1000000", "e2000000", "02000000", "00000001", "00000002", "01000000"})
}

func TestScriptErrors(t *testing.T) {
	env := psxtesting.New(t)
	in := &interp{m: env.Machine, d: env.Driver, w: &bytes.Buffer{}}

	err := runScript(in, strings.NewReader("\n\nbogus\n"))
	assert.EqualError(t, err, "line 3: bogus: unknown command")

	err = runScript(in, strings.NewReader("vsync 1 2\n"))
	assert.ErrorIs(t, err, errUsage)

	long := "prim" + strings.Repeat(" 0", 256) + "\n"
	err = runScript(in, strings.NewReader(long))
	assert.ErrorIs(t, err, errPacketLen)
	assert.Empty(t, env.GPU.Words())

	err = runScript(in, strings.NewReader("prim\n"))
	assert.ErrorIs(t, err, gpu.ErrBadLength)
}
