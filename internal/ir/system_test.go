package ir

import (
	"errors"
	"testing"
)

func TestDriveInputRecordsDriver(t *testing.T) {
	sys := NewSystem("t")
	adder := sys.AddExternal(newAdder(t))
	m := sys.AddModule(NewModule("driver"))

	v := sys.IntImm(m, UInt(32), 7)
	e, err := sys.DriveInput(m, adder, "a", v)
	if err != nil {
		t.Fatalf("DriveInput: %v", err)
	}
	if e.Kind != ExprWireAssign {
		t.Fatalf("kind = %v, want wire assign", e.Kind)
	}
	d, err := adder.Inputs().Driver("a")
	if err != nil {
		t.Fatalf("Driver: %v", err)
	}
	if d != v {
		t.Fatalf("driver = %v, want bound value", d)
	}

	if _, err := sys.DriveInput(m, adder, "c", v); !errors.Is(err, ErrDirection) {
		t.Fatalf("driving output err = %v, want ErrDirection", err)
	}
	if _, err := sys.DriveInput(m, adder, "nope", v); !errors.Is(err, ErrUnknownPort) {
		t.Fatalf("driving unknown err = %v, want ErrUnknownPort", err)
	}
}

func TestReadOutputOwnership(t *testing.T) {
	sys := NewSystem("t")
	adder := sys.AddExternal(newAdder(t))
	first := sys.AddModule(NewModule("first"))
	second := sys.AddDownstream(NewDownstream("second"))

	e, err := sys.ReadOutput(first, adder, "c")
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if e.Type != UInt(32) {
		t.Fatalf("read type = %v, want port type", e.Type)
	}
	if adder.Owner != first {
		t.Fatalf("owner = %v, want first reader", adder.Owner)
	}
	if _, err := sys.ReadOutput(second, adder, "c"); err != nil {
		t.Fatalf("second ReadOutput: %v", err)
	}
	if adder.Owner != first {
		t.Fatalf("owner changed on second read")
	}

	if _, err := sys.ReadOutput(first, adder, "a"); !errors.Is(err, ErrDirection) {
		t.Fatalf("reading input err = %v, want ErrDirection", err)
	}
}

func TestBindInputsUnpacksOutputs(t *testing.T) {
	sys := NewSystem("t")
	ext, err := NewExternalModule("alu", "rtl/alu.sv", "alu",
		In("a", UInt(16)),
		In("b", UInt(16)),
		Out("lo", UInt(16)),
		Out("hi", UInt(16)))
	if err != nil {
		t.Fatalf("NewExternalModule: %v", err)
	}
	sys.AddExternal(ext)
	m := sys.AddModule(NewModule("driver"))

	a := sys.IntImm(m, UInt(16), 1)
	b := sys.IntImm(m, UInt(16), 2)
	outs, err := sys.BindInputs(m, ext, map[string]*Expr{"a": a, "b": b})
	if err != nil {
		t.Fatalf("BindInputs: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("len(outs) = %d, want 2", len(outs))
	}
	if outs[0].WireRead.Port.Name != "lo" || outs[1].WireRead.Port.Name != "hi" {
		t.Fatalf("outputs out of declaration order: %s, %s",
			outs[0].WireRead.Port.Name, outs[1].WireRead.Port.Name)
	}
	for _, name := range []string{"a", "b"} {
		if _, err := ext.Inputs().Driver(name); err != nil {
			t.Fatalf("input %q left unbound: %v", name, err)
		}
	}

	if _, err := sys.BindInputs1(m, ext, map[string]*Expr{"a": a, "b": b}); err == nil {
		t.Fatalf("BindInputs1 accepted a two-output module")
	}
}

func TestBinaryComparisonType(t *testing.T) {
	sys := NewSystem("t")
	m := sys.AddModule(NewModule("m"))
	a := sys.IntImm(m, UInt(32), 1)
	b := sys.IntImm(m, UInt(32), 2)

	sum := sys.Binary(m, OpAdd, a, b)
	if sum.Type != UInt(32) {
		t.Fatalf("add type = %v", sum.Type)
	}
	lt := sys.Binary(m, OpLT, a, b)
	if lt.Type != Bool() {
		t.Fatalf("comparison type = %v, want Bool", lt.Type)
	}
}

func TestFIFOPopType(t *testing.T) {
	sys := NewSystem("t")
	data := &FIFOPort{Name: "data", Type: UInt(12)}
	sink := sys.AddModule(NewModule("sink", data))

	if data.Module != sink {
		t.Fatalf("port not attached to module")
	}
	if sink.Port("data") != data {
		t.Fatalf("Port lookup failed")
	}
	got := sys.FIFOPop(sink, data)
	if got.Type != UInt(12) {
		t.Fatalf("pop type = %v, want port type", got.Type)
	}
}

func TestLookupsByName(t *testing.T) {
	sys := NewSystem("t")
	m := sys.AddModule(NewModule("producer"))
	d := sys.AddDownstream(NewDownstream("monitor"))
	ext := sys.AddExternal(newAdder(t))

	if sys.ModuleByName("producer") != m || sys.ModuleByName("monitor") != d {
		t.Fatalf("ModuleByName lookup failed")
	}
	if sys.ModuleByName("nope") != nil {
		t.Fatalf("ModuleByName returned phantom module")
	}
	if sys.ExternalByName("adder") != ext || sys.ExternalByName("nope") != nil {
		t.Fatalf("ExternalByName lookup failed")
	}
	all := sys.AllModules()
	if len(all) != 2 || all[0] != m || all[1] != d {
		t.Fatalf("AllModules order wrong: %v", all)
	}
}
