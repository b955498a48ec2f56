package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/psxgo/psx/drivers/pacer"
	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/hw/gpu/ot"
	"github.com/psxgo/psx/sim"
)

const runUsageString = `Render frames of flat shaded triangles through double buffered ordering
tables and print timing statistics.

Usage: %s [flags]

`

var (
	runFlags   = flag.NewFlagSet("run", flag.ExitOnError)
	runMachine = addMachineFlags(runFlags, "delayed")

	frames   = runFlags.Int("frames", 300, "number of frames to render, 0 runs until interrupted")
	interval = runFlags.Int("interval", 1, "vertical blanks per frame")
	prims    = runFlags.Int("prims", 64, "triangles per frame")
	depth    = runFlags.Int("depth", 256, "ordering table entries")
)

func runUsage() {
	fmt.Fprintf(runFlags.Output(), runUsageString, "run")
	runFlags.PrintDefaults()
}

func runMain(args []string) {
	runFlags.Usage = runUsage
	runFlags.Parse(args[1:])

	if *depth < 2 || *prims < 0 {
		runFlags.Usage()
		os.Exit(1)
	}

	m, d, err := runMachine.build()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	g.Go(func() error {
		return m.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return render(ctx, m, d)
	})
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

// scene holds the memory of one buffer.
type scene struct {
	table cpu.Addr
	tris  []cpu.Addr
}

func newScene(ram *cpu.RAM) *scene {
	s := &scene{table: ram.Alloc(*depth)}
	for range *prims {
		s.tris = append(s.tris, ot.Prim(ram, 0, 0, 0, 0))
	}
	return s
}

// build fills the ordering table with the triangles of frame.
func (s *scene) build(m *sim.Machine, d *gpu.Driver, frame int) error {
	if err := d.ClearOTagR(s.table, *depth); err != nil {
		return err
	}
	for i, tri := range s.tris {
		x, y := uint32((frame+i*13)%320), uint32((frame*2+i*7)%240)
		cpu.Write(m.RAM, tri.Word(1), []uint32{
			0x2000_0000 | uint32(i*0x0203_05)&0xff_ffff, // flat triangle
			y<<16 | x,
			y<<16 | (x + 16),
			(y+16)<<16 | x,
		})
		ot.AddPrim(m.RAM, s.table.Word((i*37+frame)%*depth), tri)
	}
	return nil
}

func render(ctx context.Context, m *sim.Machine, d *gpu.Driver) error {
	scenes := [2]*scene{newScene(m.RAM), newScene(m.RAM)}
	p := pacer.New(d, *interval)
	var checksum uint8

	for frame := 0; *frames == 0 || frame < *frames; frame++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		s := scenes[frame%2]
		if err := s.build(m, d, frame); err != nil {
			return err
		}
		if _, err := d.DrawOTag(s.table.Word(*depth - 1)); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		p.Frame()

		checksum = m.GPU.Checksum()
		m.GPU.ClearLog()

		if frame%60 == 59 {
			fmt.Printf("frame %5d  %5.2f fps  %3d skipped  %4d lines  %v\n",
				frame+1, p.FPS(), p.Skipped(), p.Scanlines(), p.Duration())
		}
	}

	fmt.Printf("%d frames, %d skipped, %d vblanks, last frame checksum %#02x\n",
		p.Frames(), p.Skipped(), d.VSync(-1), checksum)
	return nil
}
