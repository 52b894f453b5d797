package ir

import (
	"errors"
	"reflect"
	"testing"
)

func newAdder(t *testing.T) *ExternalModule {
	t.Helper()
	m, err := NewExternalModule("adder", "rtl/adder.sv", "adder",
		In("a", UInt(32)),
		In("b", UInt(32)),
		Out("c", UInt(32)))
	if err != nil {
		t.Fatalf("NewExternalModule: %v", err)
	}
	return m
}

func TestNewExternalModuleDuplicatePort(t *testing.T) {
	_, err := NewExternalModule("adder", "rtl/adder.sv", "adder",
		In("a", UInt(32)),
		Out("a", UInt(32)))
	if !errors.Is(err, ErrDuplicatePort) {
		t.Fatalf("err = %v, want ErrDuplicatePort", err)
	}
}

func TestNewExternalModuleEntityDefault(t *testing.T) {
	m, err := NewExternalModule("wrapped_adder", "rtl/adder.sv", "")
	if err != nil {
		t.Fatalf("NewExternalModule: %v", err)
	}
	if m.Entity != "wrapped_adder" {
		t.Fatalf("Entity = %q, want module name", m.Entity)
	}
}

func TestInputViewLookups(t *testing.T) {
	m := newAdder(t)

	if _, err := m.Inputs().Port("nope"); !errors.Is(err, ErrUnknownPort) {
		t.Fatalf("unknown input err = %v, want ErrUnknownPort", err)
	}
	if _, err := m.Inputs().Port("c"); !errors.Is(err, ErrDirection) {
		t.Fatalf("output via Inputs err = %v, want ErrDirection", err)
	}
	if _, err := m.Outputs().Port("a"); !errors.Is(err, ErrDirection) {
		t.Fatalf("input via Outputs err = %v, want ErrDirection", err)
	}
	if got := m.Inputs().Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("input names = %v", got)
	}
	if got := m.Outputs().Names(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("output names = %v", got)
	}
}

func TestInputBindOverwrites(t *testing.T) {
	m := newAdder(t)

	if _, err := m.Inputs().Driver("a"); !errors.Is(err, ErrUnboundInput) {
		t.Fatalf("unbound driver err = %v, want ErrUnboundInput", err)
	}

	first := &Expr{ID: 1, Kind: ExprIntImm, Type: UInt(32)}
	second := &Expr{ID: 2, Kind: ExprIntImm, Type: UInt(32)}
	if err := m.Inputs().Bind("a", first); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := m.Inputs().Bind("a", second); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	d, err := m.Inputs().Driver("a")
	if err != nil {
		t.Fatalf("Driver: %v", err)
	}
	if d != second {
		t.Fatalf("Driver = %v, want last bound value", d)
	}
}

func TestOutputBindRejected(t *testing.T) {
	m := newAdder(t)
	if err := m.Outputs().Bind("c", &Expr{ID: 1}); !errors.Is(err, ErrDirection) {
		t.Fatalf("output bind err = %v, want ErrDirection", err)
	}
	if err := m.Outputs().Bind("nope", nil); !errors.Is(err, ErrUnknownPort) {
		t.Fatalf("unknown output bind err = %v, want ErrUnknownPort", err)
	}
}

func TestDirectionString(t *testing.T) {
	if DirInput.String() != "input" || DirOutput.String() != "output" {
		t.Fatalf("Direction.String: %s / %s", DirInput, DirOutput)
	}
}
