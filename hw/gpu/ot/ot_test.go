package ot_test

import (
	"testing"

	"github.com/psxgo/psx/hw/cpu"
	"github.com/psxgo/psx/hw/gpu/ot"
)

func TestTag(t *testing.T) {
	tag := ot.MakeTag(3, 0x8012_3456)
	if ot.Len(tag) != 3 {
		t.Fatal("wrong length", ot.Len(tag))
	}
	if ot.Next(tag) != 0x12_3456 {
		t.Fatalf("wrong next %#x", ot.Next(tag))
	}
	if ot.IsEnd(tag) {
		t.Fatal("unexpected end")
	}
	if !ot.IsEnd(ot.End) || !ot.IsEnd(ot.MakeTag(2, ot.End)) {
		t.Fatal("end not detected")
	}
}

func TestClear(t *testing.T) {
	ram := cpu.NewRAM(1 << 20)
	table := ram.Alloc(4)
	ot.Clear(ram, table, 4)

	for i := range 3 {
		if next := ot.Next(ram.Load(table.Word(i))); next != table.Word(i+1) {
			t.Fatalf("entry %d links to %#x", i, next)
		}
	}
	if ram.Load(table.Word(3)) != ot.End {
		t.Fatal("list not terminated")
	}
}

func TestAddPrim(t *testing.T) {
	ram := cpu.NewRAM(1 << 20)
	table := ram.Alloc(2)
	ot.Clear(ram, table, 2)

	a := ot.Prim(ram, 1, 2)
	b := ot.Prim(ram, 3)
	ot.AddPrim(ram, table, a)
	ot.AddPrim(ram, table, b)

	// table -> b -> a -> table[1]
	var got []cpu.Addr
	for addr := table; ; {
		got = append(got, addr)
		tag := ram.Load(addr)
		if ot.IsEnd(tag) {
			break
		}
		addr = ot.Next(tag)
	}
	want := []cpu.Addr{table, b, a, table.Word(1)}
	if len(got) != len(want) {
		t.Fatal("wrong list", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("packet %d at %#x, want %#x", i, got[i], want[i])
		}
	}
	if ot.Len(ram.Load(a)) != 2 || ot.Len(ram.Load(b)) != 1 {
		t.Fatal("AddPrim changed packet length")
	}

	ot.SetLen(ram, a, 5)
	if tag := ram.Load(a); ot.Len(tag) != 5 || ot.Next(tag) != table.Word(1) {
		t.Fatalf("SetLen broke tag %#x", tag)
	}
}

func TestPrimTooLong(t *testing.T) {
	ram := cpu.NewRAM(1 << 20)
	pri := ot.Prim(ram, make([]uint32, ot.MaxLen)...)
	if ot.Len(ram.Load(pri)) != ot.MaxLen {
		t.Fatal("wrong length", ot.Len(ram.Load(pri)))
	}

	defer func() {
		if recover() == nil {
			t.Fatal("no panic on oversized packet")
		}
	}()
	ot.Prim(ram, make([]uint32, ot.MaxLen+1)...)
}
