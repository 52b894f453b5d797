package ffigen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assassyn/internal/ir"
)

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	src := "module adder(input [31:0] a, input [31:0] b, output [31:0] c);\nassign c = a + b;\nendmodule\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func newAdder(t *testing.T, src string) *ir.ExternalModule {
	t.Helper()
	ext, err := ir.NewExternalModule("adder", src, "Adder",
		ir.In("a", ir.UInt(32)),
		ir.In("b", ir.UInt(32)),
		ir.Out("c", ir.UInt(32)),
	)
	if err != nil {
		t.Fatal(err)
	}
	return ext
}

func TestSynthesizeLayout(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "adder.sv")
	ext := newAdder(t, src)
	ext.HasClock = true

	ws := filepath.Join(tmp, "ffi")
	specs, err := SynthesizeAll(ws, []*ir.ExternalModule{ext})
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d specs", len(specs))
	}
	spec := specs[0]

	if spec.PackageID != "verilated_adder" {
		t.Errorf("package id: got %q", spec.PackageID)
	}
	if spec.LibraryID != "verilated_adder_ffi" {
		t.Errorf("library id: got %q", spec.LibraryID)
	}
	if spec.WrapperType != "VerilatedAdder" {
		t.Errorf("wrapper type: got %q", spec.WrapperType)
	}
	if !filepath.IsAbs(spec.Artifact) {
		t.Errorf("artifact path not absolute: %q", spec.Artifact)
	}

	for _, rel := range []string{spec.SourceRel, filepath.Join("csrc", "bridge.cpp"), "wrapper.go", BuildPlanName} {
		if _, err := os.Stat(filepath.Join(spec.Dir, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	// Staged source is byte-identical to the declared file.
	want, _ := os.ReadFile(src)
	got, err := os.ReadFile(filepath.Join(spec.Dir, spec.SourceRel))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Error("staged source differs from original")
	}

	plan, err := LoadBuildPlan(spec.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Library != spec.LibraryID || plan.Entity != "Adder" {
		t.Errorf("build plan mismatch: %+v", plan)
	}

	bridge, err := os.ReadFile(filepath.Join(spec.Dir, "csrc", "bridge.cpp"))
	if err != nil {
		t.Fatal(err)
	}
	for _, sym := range []string{
		"verilated_adder_ffi_new",
		"verilated_adder_ffi_free",
		"verilated_adder_ffi_eval",
		"verilated_adder_ffi_set_clk",
		"verilated_adder_ffi_set_a",
		"verilated_adder_ffi_set_b",
		"verilated_adder_ffi_get_c",
	} {
		if !strings.Contains(string(bridge), sym) {
			t.Errorf("bridge missing symbol %s", sym)
		}
	}
	if strings.Contains(string(bridge), "_set_rst") {
		t.Error("bridge declares reset setter without a reset port")
	}

	wrapper, err := os.ReadFile(filepath.Join(spec.Dir, "wrapper.go"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"package verilated_adder",
		"type VerilatedAdder struct",
		"func (m *VerilatedAdder) SetA(v uint32)",
		"func (m *VerilatedAdder) GetC() uint32",
		"func (m *VerilatedAdder) ClockTick()",
	} {
		if !strings.Contains(string(wrapper), want) {
			t.Errorf("wrapper missing %q", want)
		}
	}
	if strings.Contains(string(wrapper), "ApplyReset") {
		t.Error("wrapper declares ApplyReset without a reset port")
	}
}

func TestSynthesizeNameCollisions(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "adder.sv")

	a := newAdder(t, src)
	b, err := ir.NewExternalModule("adder2", src, "Adder", ir.In("a", ir.UInt(8)), ir.Out("c", ir.UInt(8)))
	if err != nil {
		t.Fatal(err)
	}

	specs, err := SynthesizeAll(filepath.Join(tmp, "ffi"), []*ir.ExternalModule{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if specs[0].PackageID != "verilated_adder" || specs[1].PackageID != "verilated_adder_2" {
		t.Errorf("package ids: %q, %q", specs[0].PackageID, specs[1].PackageID)
	}
	if specs[1].LibraryID != "verilated_adder_2_ffi" {
		t.Errorf("library id: %q", specs[1].LibraryID)
	}
	if specs[0].Dir == specs[1].Dir {
		t.Error("colliding package dirs")
	}
}

func TestSynthesizeRejectsWidePort(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "wide.sv")
	ext, err := ir.NewExternalModule("wide", src, "",
		ir.In("bus", ir.UInt(128)),
		ir.Out("q", ir.UInt(1)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SynthesizeAll(filepath.Join(tmp, "ffi"), []*ir.ExternalModule{ext}); !errors.Is(err, ErrWidthUnsupported) {
		t.Fatalf("got %v, want ErrWidthUnsupported", err)
	}
}

func TestSynthesizeMissingSource(t *testing.T) {
	tmp := t.TempDir()
	ext, err := ir.NewExternalModule("ghost", filepath.Join(tmp, "missing.sv"), "", ir.Out("q", ir.Bool()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SynthesizeAll(filepath.Join(tmp, "ffi"), []*ir.ExternalModule{ext}); err == nil {
		t.Fatal("expected error for missing hardware source")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	src := writeSource(t, tmp, "adder.sv")
	ext := newAdder(t, src)
	ext.HasClock = true
	ext.HasReset = true

	specs, err := SynthesizeAll(filepath.Join(tmp, "ffi"), []*ir.ExternalModule{ext})
	if err != nil {
		t.Fatal(err)
	}

	var m Manifest
	for _, s := range specs {
		m.Add(s.ManifestEntry())
	}
	path, err := m.Write(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != ManifestName {
		t.Errorf("manifest written as %q", filepath.Base(path))
	}

	loaded, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	entry, err := loaded.Lookup("adder")
	if err != nil {
		t.Fatal(err)
	}
	if !entry.HasClock || !entry.HasReset {
		t.Error("clock/reset flags lost")
	}
	if entry.WrapperType != "VerilatedAdder" {
		t.Errorf("wrapper type: got %q", entry.WrapperType)
	}
	if len(entry.Ports) != 3 {
		t.Fatalf("got %d ports", len(entry.Ports))
	}
	// Inputs precede outputs, each side in declaration order.
	order := []string{"a", "b", "c"}
	for i, p := range entry.Ports {
		if p.Name != order[i] {
			t.Errorf("port %d: got %q, want %q", i, p.Name, order[i])
		}
	}
	if entry.Ports[0].Direction != "input" || entry.Ports[2].Direction != "output" {
		t.Error("port directions lost")
	}

	port, err := loaded.LookupPort("adder", "c")
	if err != nil {
		t.Fatal(err)
	}
	if port.Width != 32 || port.Signed {
		t.Errorf("port c: %+v", port)
	}
	if _, err := loaded.Lookup("nonesuch"); err == nil {
		t.Error("lookup of unknown module succeeded")
	}
	if _, err := loaded.LookupPort("adder", "zz"); err == nil {
		t.Error("lookup of unknown port succeeded")
	}
}
