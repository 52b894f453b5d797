// Package simgen emits the Go source of a generated simulator: one
// main package holding the run loop, event scheduling, register and
// FIFO state, and the FFI glue that drives, evaluates, and clocks the
// compiled external modules.
package simgen

import (
	"fmt"
	"strings"

	"assassyn/internal/analysis"
	"assassyn/internal/ffigen"
	"assassyn/internal/ir"
	"assassyn/internal/project"
)

// Generator renders one elaborated system into simulator source. All
// inputs are read-only; a Generator may be used once.
type Generator struct {
	Sys       *ir.System
	Exposure  *analysis.ExposureSet
	Producers *analysis.ProducerConsumerMap
	Manifest  *ffigen.Manifest
	// ModulePath is the generated module's import path root; wrapper
	// packages import as ModulePath/<package-id>.
	ModulePath string
	Sim        project.SimulatorConfig
}

// ownedClocked returns the clocked external instances whose generated
// body belongs to m, in declaration order. Their clock advances once
// at the end of each of m's evaluations.
func (g *Generator) ownedClocked(m *ir.Module) []*ir.ExternalModule {
	var out []*ir.ExternalModule
	for _, ext := range g.Sys.Externals {
		if ext.Owner == m && ext.HasClock {
			out = append(out, ext)
		}
	}
	return out
}

func (g *Generator) manifestPort(ext *ir.ExternalModule, p *ir.Port) (*ffigen.ManifestPort, error) {
	return g.Manifest.LookupPort(ext.Name, ffigen.Sanitize(p.Name))
}

// validate cross-checks every external reference in the graph against
// the manifest before any source is rendered. A module or port the
// synthesizer never recorded is a generation error, not a silent skip.
func (g *Generator) validate() error {
	for _, m := range g.Sys.AllModules() {
		var err error
		analysis.WalkModule(m, func(e *ir.Expr) {
			if err != nil {
				return
			}
			switch e.Kind {
			case ir.ExprWireAssign:
				_, err = g.manifestPort(e.WireAssign.Ext, e.WireAssign.Port)
			case ir.ExprWireRead:
				_, err = g.manifestPort(e.WireRead.Ext, e.WireRead.Port)
			}
		})
		if err != nil {
			return fmt.Errorf("module %q: %w", m.Name, err)
		}
	}
	// Inputs can be bound through the port view without a graph node;
	// the producer map sees those too.
	if g.Producers != nil {
		for _, key := range g.Producers.Keys() {
			owner := g.Sys.ModuleByName(key.Module)
			for _, c := range g.Producers.Consumers(owner, key.Expr) {
				if _, err := g.manifestPort(c.Ext, c.Port); err != nil {
					return err
				}
			}
		}
	}
	for _, ext := range g.Sys.Externals {
		if _, err := g.Manifest.Lookup(ext.Name); err != nil {
			return err
		}
	}
	return nil
}

// asyncTargets returns the event modules scheduled through AsyncCall
// anywhere in the system. They carry event queues; every other event
// module self-drives each cycle.
func (g *Generator) asyncTargets() map[*ir.Module]bool {
	targets := make(map[*ir.Module]bool)
	for _, m := range g.Sys.AllModules() {
		analysis.WalkModule(m, func(e *ir.Expr) {
			if e.Kind == ir.ExprAsyncCall {
				targets[e.AsyncCall.Target] = true
			}
		})
	}
	return targets
}

// EmitMain renders the complete simulator main package.
func (g *Generator) EmitMain() (string, error) {
	if err := g.validate(); err != nil {
		return "", err
	}

	targets := g.asyncTargets()
	order := analysis.TopoDownstreams(g.Sys)

	var b strings.Builder
	g.emitHeader(&b)
	g.emitConsts(&b)
	g.emitArrayWriteTypes(&b)
	g.emitSimulatorStruct(&b, targets)
	g.emitConstructor(&b)
	g.emitClose(&b)
	g.emitHelpers(&b, targets)
	for _, m := range g.Sys.AllModules() {
		b.WriteByte('\n')
		newModuleEmitter(g, m, &b).emitFunc()
	}
	g.emitTick(&b)
	g.emitStep(&b, targets, order)
	g.emitRun(&b)
	b.WriteString("\nfunc main() {\n\tsim := NewSimulator()\n\tdefer sim.Close()\n\tsim.Run()\n}\n")
	return b.String(), nil
}

func (g *Generator) emitHeader(b *strings.Builder) {
	fmt.Fprintf(b, "// Simulator for system %q.\n", g.Sys.Name)
	b.WriteString("// Code generated by assassyn elaborate; do not edit.\n")
	b.WriteString("package main\n\n")
	b.WriteString("import (\n\t\"fmt\"\n")
	if len(g.Sys.Externals) > 0 {
		b.WriteByte('\n')
		for _, ext := range g.Sys.Externals {
			entry, _ := g.Manifest.Lookup(ext.Name)
			fmt.Fprintf(b, "\t%q\n", g.ModulePath+"/"+entry.PackageID)
		}
	}
	b.WriteString(")\n\n")
}

func (g *Generator) emitConsts(b *strings.Builder) {
	b.WriteString("const (\n")
	fmt.Fprintf(b, "\tsimThreshold  = %d\n", g.Sim.SimThreshold)
	fmt.Fprintf(b, "\tidleThreshold = %d\n", g.Sim.IdleThreshold)
	if g.hasResetExternal() {
		fmt.Fprintf(b, "\tresetCycles   = %d\n", g.Sim.ResetCycles)
	}
	b.WriteString(")\n\n")
}

func (g *Generator) hasResetExternal() bool {
	for _, ext := range g.Sys.Externals {
		if ext.HasReset {
			return true
		}
	}
	return false
}

func (g *Generator) emitArrayWriteTypes(b *strings.Builder) {
	for _, a := range g.Sys.Arrays {
		fmt.Fprintf(b, "type %s struct {\n\tidx int\n\tval %s\n}\n\n", arrayWriteType(a), goType(a.Elem))
	}
}

func (g *Generator) emitSimulatorStruct(b *strings.Builder, targets map[*ir.Module]bool) {
	b.WriteString("// Simulator holds the whole run state: the stamp counter,\n")
	b.WriteString("// register arrays with their pending writes, FIFO queues, event\n")
	b.WriteString("// queues, per-step trigger flags, exposure caches, and one handle\n")
	b.WriteString("// per external instance.\n")
	b.WriteString("type Simulator struct {\n")
	b.WriteString("\tStamp int\n")

	for _, a := range g.Sys.Arrays {
		fmt.Fprintf(b, "\n\t%s []%s\n", arrayField(a), goType(a.Elem))
		fmt.Fprintf(b, "\t%s []%s\n", arrayPendingField(a), arrayWriteType(a))
	}
	for _, m := range g.Sys.Modules {
		for _, p := range m.Ports {
			fmt.Fprintf(b, "\n\t%s []%s\n", fifoField(p), goType(p.Type))
			fmt.Fprintf(b, "\t%s []%s\n", fifoPendingField(p), goType(p.Type))
		}
	}
	if len(targets) > 0 {
		b.WriteByte('\n')
		for _, m := range g.Sys.AllModules() {
			if targets[m] {
				fmt.Fprintf(b, "\t%s []int\n", eventsField(m))
			}
		}
	}
	b.WriteByte('\n')
	for _, m := range g.Sys.AllModules() {
		fmt.Fprintf(b, "\t%s bool\n", triggeredField(m))
	}
	if exprs := g.Exposure.Exprs(); len(exprs) > 0 {
		b.WriteByte('\n')
		for _, e := range exprs {
			fmt.Fprintf(b, "\t%s %s\n", cacheField(e), goType(e.Type))
		}
	}
	for _, ext := range g.Sys.Externals {
		entry, _ := g.Manifest.Lookup(ext.Name)
		fmt.Fprintf(b, "\n\t%s *%s.%s\n", ffiField(ext), entry.PackageID, entry.WrapperType)
		fmt.Fprintf(b, "\t%s bool\n", staleField(ext))
	}
	b.WriteString("}\n\n")
}

func (g *Generator) emitConstructor(b *strings.Builder) {
	b.WriteString("// NewSimulator allocates run state and loads every external\n")
	b.WriteString("// instance, applying reset where the schema declares one.\n")
	b.WriteString("func NewSimulator() *Simulator {\n")
	b.WriteString("\tsim := &Simulator{}\n")
	for _, a := range g.Sys.Arrays {
		fmt.Fprintf(b, "\tsim.%s = make([]%s, %d)\n", arrayField(a), goType(a.Elem), a.Size)
		for i, v := range a.Init {
			if v == 0 {
				continue
			}
			fmt.Fprintf(b, "\tsim.%s[%d] = %d\n", arrayField(a), i, v)
		}
	}
	for _, ext := range g.Sys.Externals {
		entry, _ := g.Manifest.Lookup(ext.Name)
		fmt.Fprintf(b, "\tsim.%s = %s.New()\n", ffiField(ext), entry.PackageID)
		if ext.HasReset {
			fmt.Fprintf(b, "\tsim.%s.ApplyReset(resetCycles)\n", ffiField(ext))
		}
	}
	b.WriteString("\treturn sim\n}\n\n")
}

func (g *Generator) emitClose(b *strings.Builder) {
	b.WriteString("// Close releases every external instance.\n")
	b.WriteString("func (sim *Simulator) Close() {\n")
	for _, ext := range g.Sys.Externals {
		fmt.Fprintf(b, "\tsim.%s.Close()\n", ffiField(ext))
	}
	b.WriteString("}\n\n")
}

func (g *Generator) emitHelpers(b *strings.Builder, targets map[*ir.Module]bool) {
	b.WriteString("func b2u(v bool) uint8 {\n\tif v {\n\t\treturn 1\n\t}\n\treturn 0\n}\n")
	if len(targets) > 0 {
		b.WriteByte('\n')
		b.WriteString("// due drains events scheduled at or before cycle, reporting\n")
		b.WriteString("// whether any fired.\n")
		b.WriteString("func due(events *[]int, cycle int) bool {\n")
		b.WriteString("\tfired := false\n")
		b.WriteString("\tkept := (*events)[:0]\n")
		b.WriteString("\tfor _, ev := range *events {\n")
		b.WriteString("\t\tif ev <= cycle {\n\t\t\tfired = true\n\t\t\tcontinue\n\t\t}\n")
		b.WriteString("\t\tkept = append(kept, ev)\n")
		b.WriteString("\t}\n")
		b.WriteString("\t*events = kept\n")
		b.WriteString("\treturn fired\n}\n")
	}
}

func (g *Generator) emitTick(b *strings.Builder) {
	b.WriteString("\n// tickRegisters makes this step's array writes and FIFO pushes\n")
	b.WriteString("// visible to the next cycle.\n")
	b.WriteString("func (sim *Simulator) tickRegisters() {\n")
	for _, a := range g.Sys.Arrays {
		fmt.Fprintf(b, "\tfor _, w := range sim.%s {\n", arrayPendingField(a))
		fmt.Fprintf(b, "\t\tsim.%s[w.idx] = w.val\n", arrayField(a))
		b.WriteString("\t}\n")
		fmt.Fprintf(b, "\tsim.%s = sim.%s[:0]\n", arrayPendingField(a), arrayPendingField(a))
	}
	for _, m := range g.Sys.Modules {
		for _, p := range m.Ports {
			fmt.Fprintf(b, "\tsim.%s = append(sim.%s, sim.%s...)\n", fifoField(p), fifoField(p), fifoPendingField(p))
			fmt.Fprintf(b, "\tsim.%s = sim.%s[:0]\n", fifoPendingField(p), fifoPendingField(p))
		}
	}
	b.WriteString("}\n")
}

func (g *Generator) emitStep(b *strings.Builder, targets map[*ir.Module]bool, order []*ir.Module) {
	needCycle := false
	for _, m := range g.Sys.Modules {
		if targets[m] {
			needCycle = true
		}
	}

	b.WriteString("\n// step runs one cycle: event modules in declaration order, then\n")
	b.WriteString("// downstream modules in dependency order, then the register tick.\n")
	b.WriteString("// Reports whether any module did work.\n")
	b.WriteString("func (sim *Simulator) step() bool {\n")
	if needCycle {
		b.WriteString("\tcycle := sim.Stamp / 100\n")
	}
	for _, m := range g.Sys.AllModules() {
		fmt.Fprintf(b, "\tsim.%s = false\n", triggeredField(m))
	}
	b.WriteString("\tidle := true\n\n")

	for _, m := range g.Sys.Modules {
		if targets[m] {
			fmt.Fprintf(b, "\tif due(&sim.%s, cycle) {\n", eventsField(m))
			fmt.Fprintf(b, "\t\tif %s(sim) {\n", moduleFunc(m))
			fmt.Fprintf(b, "\t\t\tsim.%s = true\n", triggeredField(m))
			b.WriteString("\t\t\tidle = false\n\t\t}\n\t}\n")
			continue
		}
		fmt.Fprintf(b, "\tif %s(sim) {\n", moduleFunc(m))
		fmt.Fprintf(b, "\t\tsim.%s = true\n", triggeredField(m))
		b.WriteString("\t\tidle = false\n\t}\n")
	}

	for _, d := range order {
		ups := analysis.Upstreams(d)
		var conds []string
		for _, u := range ups {
			conds = append(conds, "sim."+triggeredField(u))
		}
		if len(conds) > 0 {
			fmt.Fprintf(b, "\tif %s {\n", strings.Join(conds, " || "))
			fmt.Fprintf(b, "\t\tif %s(sim) {\n", moduleFunc(d))
			fmt.Fprintf(b, "\t\t\tsim.%s = true\n", triggeredField(d))
			b.WriteString("\t\t\tidle = false\n\t\t}\n\t}\n")
			continue
		}
		fmt.Fprintf(b, "\tif %s(sim) {\n", moduleFunc(d))
		fmt.Fprintf(b, "\t\tsim.%s = true\n", triggeredField(d))
		b.WriteString("\t\tidle = false\n\t}\n")
	}

	b.WriteString("\n\tsim.tickRegisters()\n")
	b.WriteString("\treturn !idle\n}\n")
}

func (g *Generator) emitRun(b *strings.Builder) {
	b.WriteString("\n// Run advances cycles until the simulation threshold, stopping\n")
	b.WriteString("// early after a sustained idle streak.\n")
	b.WriteString("func (sim *Simulator) Run() {\n")
	b.WriteString("\tidleRun := 0\n")
	b.WriteString("\tfor sim.Stamp = 100; sim.Stamp <= simThreshold*100; sim.Stamp += 100 {\n")
	b.WriteString("\t\tif sim.step() {\n\t\t\tidleRun = 0\n\t\t\tcontinue\n\t\t}\n")
	b.WriteString("\t\tidleRun++\n")
	b.WriteString("\t\tif idleRun >= idleThreshold {\n")
	b.WriteString("\t\t\tfmt.Printf(\"idle for %d cycles, stopping at cycle %d\\n\", idleRun, sim.Stamp/100)\n")
	b.WriteString("\t\t\treturn\n\t\t}\n")
	b.WriteString("\t}\n}\n")
}
