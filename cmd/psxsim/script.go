package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"

	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/gpu"
	"github.com/psxgo/psx/hw/gpu/ot"
	"github.com/psxgo/psx/sim"
)

const scriptUsageString = `Execute driver commands, one per line.  Lines starting with # are ignored.
Vertical blanks happen only when requested or while VSync waits.

Usage: %s [flags] [file]

The commands are:

	reset [mode]              Reset (0 full, 1 commands, 3 preserve)
	prim <word>...            DrawPrim of a packet holding the words
	buffer <word>...          DrawBuffer of the words
	chain "<word>..."...      DrawOTag of a list with one packet per argument
	upload x y w h [fill]     LoadImage of a rectangle filled with a pixel pair
	vsync [mode]              VSync, prints the result
	drawsync [mode]           DrawSync, prints the result
	idle [timeout]            IsIdle, prints the result
	vblank [n]                simulate n vertical blanks
	complete                  finish the pending transfer (manual mode)
	irq                       simulate GP0 0x1f
	status                    print GPU status and queue length
	checksum                  print the number of GP0 words and their CRC-8
	words                     print all GP0 words

`

var (
	scriptFlags   = flag.NewFlagSet("script", flag.ExitOnError)
	scriptMachine = addMachineFlags(scriptFlags, "immediate")
)

func scriptUsage() {
	fmt.Fprintf(scriptFlags.Output(), scriptUsageString, "script")
	scriptFlags.PrintDefaults()
}

func scriptMain(args []string) {
	scriptFlags.Usage = scriptUsage
	scriptFlags.Parse(args[1:])

	var r io.Reader = os.Stdin
	if scriptFlags.NArg() > 0 {
		f, err := os.Open(scriptFlags.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		r = f
	}

	m, d, err := scriptMachine.build()
	if err != nil {
		log.Fatal(err)
	}
	d.SetVSyncHalt(m.VBlank)

	if err := runScript(&interp{m: m, d: d, w: os.Stdout}, r); err != nil {
		log.Fatal(err)
	}
}

var (
	errUsage     = errors.New("wrong number of arguments")
	errPacketLen = fmt.Errorf("more than %d words in a packet", ot.MaxLen)
)

type interp struct {
	m *sim.Machine
	d *gpu.Driver
	w io.Writer
}

func runScript(in *interp, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shellwords.Split(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineno, err)
		}
		if err := in.exec(args); err != nil {
			return fmt.Errorf("line %d: %s: %w", lineno, args[0], err)
		}
	}
	return scanner.Err()
}

func parseWords(args []string) ([]uint32, error) {
	words := make([]uint32, len(args))
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return nil, err
		}
		words[i] = uint32(v)
	}
	return words, nil
}

// optInt returns the first argument as integer, or def if there is none.
func optInt(args []string, def int) (int, error) {
	switch len(args) {
	case 0:
		return def, nil
	case 1:
		v, err := strconv.ParseInt(args[0], 0, 0)
		return int(v), err
	}
	return 0, errUsage
}

func (in *interp) buffer(words []uint32) cpu.Addr {
	buf := in.m.RAM.Alloc(len(words))
	cpu.Write(in.m.RAM, buf, words)
	return buf
}

func (in *interp) queued(n int, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(in.w, n)
	return nil
}

func (in *interp) exec(args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "reset":
		mode, err := optInt(args, int(gpu.ResetFull))
		if err != nil {
			return err
		}
		in.d.Reset(gpu.ResetMode(mode))

	case "prim":
		words, err := parseWords(args)
		if err != nil {
			return err
		}
		if len(words) > ot.MaxLen {
			return errPacketLen
		}
		return in.d.DrawPrim(ot.Prim(in.m.RAM, words...))

	case "buffer":
		words, err := parseWords(args)
		if err != nil {
			return err
		}
		return in.queued(in.d.DrawBuffer(in.buffer(words), len(words)))

	case "chain":
		if len(args) == 0 {
			return errUsage
		}
		head := in.m.RAM.Alloc(1)
		prev := head
		for _, arg := range args {
			words, err := parseWords(strings.Fields(arg))
			if err != nil {
				return err
			}
			if len(words) > ot.MaxLen {
				return errPacketLen
			}
			pri := ot.Prim(in.m.RAM, words...)
			in.m.RAM.Store(prev, in.m.RAM.Load(prev)&0xff00_0000|uint32(pri)&0xff_ffff)
			prev = pri
		}
		return in.queued(in.d.DrawOTag(head))

	case "upload":
		if len(args) != 4 && len(args) != 5 {
			return errUsage
		}
		v, err := parseWords(args)
		if err != nil {
			return err
		}
		fill := uint32(0x7fff_7fff)
		if len(v) == 5 {
			fill = v[4]
		}
		r := image.Rect(int(v[0]), int(v[1]), int(v[0]+v[2]), int(v[1]+v[3]))
		data := make([]uint32, (r.Dx()*r.Dy()+1)/2)
		for i := range data {
			data[i] = fill
		}
		return in.queued(in.d.LoadImage(r, in.buffer(data)))

	case "vsync":
		mode, err := optInt(args, 0)
		if err != nil {
			return err
		}
		fmt.Fprintln(in.w, in.d.VSync(mode))

	case "drawsync":
		mode, err := optInt(args, 0)
		if err != nil {
			return err
		}
		fmt.Fprintln(in.w, in.d.DrawSync(mode))

	case "idle":
		timeout, err := optInt(args, 1)
		if err != nil {
			return err
		}
		fmt.Fprintln(in.w, in.d.IsIdle(timeout))

	case "vblank":
		n, err := optInt(args, 1)
		if err != nil {
			return err
		}
		for range n {
			in.m.VBlank()
		}

	case "complete":
		if !in.m.Complete() {
			fmt.Fprintln(in.w, "nothing pending")
		}

	case "irq":
		in.m.GPU.RaiseIRQ()

	case "status":
		fmt.Fprintf(in.w, "status %#08x queue %d\n", uint32(in.m.GPU.Status()), in.d.QueueLength())

	case "checksum":
		fmt.Fprintf(in.w, "%d words crc8 %#02x\n", len(in.m.GPU.Words()), in.m.GPU.Checksum())

	case "words":
		for _, w := range in.m.GPU.Words() {
			fmt.Fprintf(in.w, "%08x\n", w)
		}

	default:
		return errors.New("unknown command")
	}
	return nil
}
