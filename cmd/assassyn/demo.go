package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"assassyn/internal/ir"
)

// demoDesign is a built-in design the CLI can elaborate without a
// front end. Each demo carries its own RTL sources; Build constructs
// the module graph pointing at those files.
type demoDesign struct {
	Name    string
	Summary string
	RTL     map[string]string
	Build   func(rtlDir string) (*ir.System, error)
}

var demoDesigns = []demoDesign{
	{
		Name:    "adder",
		Summary: "combinational adder driven from a register accumulator",
		RTL: map[string]string{
			"adder.sv": `module adder(
  input  logic [31:0] a,
  input  logic [31:0] b,
  output logic [31:0] c
);
  assign c = a + b;
endmodule
`,
		},
		Build: buildAdderDemo,
	},
	{
		Name:    "counter",
		Summary: "clocked counter with reset, observed every cycle",
		RTL: map[string]string{
			"counter.sv": `module counter(
  input  logic        clk,
  input  logic        rst,
  input  logic        en,
  output logic [15:0] count
);
  always_ff @(posedge clk) begin
    if (rst) count <= '0;
    else if (en) count <= count + 16'd1;
  end
endmodule
`,
		},
		Build: buildCounterDemo,
	},
	{
		Name:    "pipeline",
		Summary: "producer feeding a FIFO-buffered sink through an adder",
		RTL: map[string]string{
			"adder.sv": `module adder(
  input  logic [31:0] a,
  input  logic [31:0] b,
  output logic [31:0] c
);
  assign c = a + b;
endmodule
`,
		},
		Build: buildPipelineDemo,
	},
}

func demoByName(name string) (demoDesign, bool) {
	for _, d := range demoDesigns {
		if d.Name == name {
			return d, true
		}
	}
	return demoDesign{}, false
}

func (d demoDesign) writeRTL(rtlDir string) error {
	if err := os.MkdirAll(rtlDir, 0o755); err != nil {
		return err
	}
	for name, text := range d.RTL {
		if err := os.WriteFile(filepath.Join(rtlDir, name), []byte(text), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func buildAdderDemo(rtlDir string) (*ir.System, error) {
	sys := ir.NewSystem("adder_demo")
	adder, err := ir.NewExternalModule("adder", filepath.Join(rtlDir, "adder.sv"), "adder",
		ir.In("a", ir.UInt(32)),
		ir.In("b", ir.UInt(32)),
		ir.Out("c", ir.UInt(32)))
	if err != nil {
		return nil, err
	}
	sys.AddExternal(adder)

	acc := sys.AddArray(&ir.Array{Name: "acc", Elem: ir.UInt(32), Size: 1})
	driver := sys.AddModule(ir.NewModule("driver"))

	idx := sys.IntImm(driver, ir.UInt(32), 0)
	cur := sys.ArrayRead(driver, acc, idx)
	step := sys.IntImm(driver, ir.UInt(32), 1)
	sum, err := sys.BindInputs1(driver, adder, map[string]*ir.Expr{"a": cur, "b": step})
	if err != nil {
		return nil, err
	}
	sys.ArrayWrite(driver, acc, idx, sum)
	sys.Log(driver, "acc=%d", sum)
	return sys, nil
}

func buildCounterDemo(rtlDir string) (*ir.System, error) {
	sys := ir.NewSystem("counter_demo")
	counter, err := ir.NewExternalModule("counter", filepath.Join(rtlDir, "counter.sv"), "counter",
		ir.In("en", ir.Bool()),
		ir.Out("count", ir.UInt(16)))
	if err != nil {
		return nil, err
	}
	counter.HasClock = true
	counter.HasReset = true
	sys.AddExternal(counter)

	driver := sys.AddModule(ir.NewModule("driver"))
	en := sys.IntImm(driver, ir.Bool(), 1)
	if _, err := sys.DriveInput(driver, counter, "en", en); err != nil {
		return nil, err
	}
	count, err := sys.ReadOutput(driver, counter, "count")
	if err != nil {
		return nil, err
	}
	sys.Log(driver, "count=%d", count)
	return sys, nil
}

func buildPipelineDemo(rtlDir string) (*ir.System, error) {
	sys := ir.NewSystem("pipeline_demo")
	adder, err := ir.NewExternalModule("adder", filepath.Join(rtlDir, "adder.sv"), "adder",
		ir.In("a", ir.UInt(32)),
		ir.In("b", ir.UInt(32)),
		ir.Out("c", ir.UInt(32)))
	if err != nil {
		return nil, err
	}
	sys.AddExternal(adder)

	nonce := sys.AddArray(&ir.Array{Name: "nonce", Elem: ir.UInt(32), Size: 1})

	data := &ir.FIFOPort{Name: "data", Type: ir.UInt(32)}
	sink := ir.NewModule("sink", data)
	producer := ir.NewModule("producer")
	sys.AddModule(producer)
	sys.AddModule(sink)

	idx := sys.IntImm(producer, ir.UInt(32), 0)
	cur := sys.ArrayRead(producer, nonce, idx)
	sum, err := sys.BindInputs1(producer, adder, map[string]*ir.Expr{"a": cur, "b": cur})
	if err != nil {
		return nil, err
	}
	sys.FIFOPush(producer, data, sum)
	one := sys.IntImm(producer, ir.UInt(32), 1)
	next := sys.Binary(producer, ir.OpAdd, cur, one)
	sys.ArrayWrite(producer, nonce, idx, next)
	sys.AsyncCall(producer, sink)

	got := sys.FIFOPop(sink, data)
	sys.Log(sink, "doubled=%d", got)
	return sys, nil
}

var demosCmd = &cobra.Command{
	Use:   "demos",
	Short: "List built-in demo designs",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, d := range demoDesigns {
			if _, err := fmt.Fprintf(out, "%-10s %s\n", d.Name, d.Summary); err != nil {
				return err
			}
		}
		return nil
	},
}
