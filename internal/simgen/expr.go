package simgen

import (
	"fmt"
	"strconv"
	"strings"

	"assassyn/internal/ir"
)

// moduleEmitter renders one module body into a simulator function.
// Valued expressions become x<ID> locals; results consumed outside the
// module are mirrored into the Simulator's x<ID>Value cache fields.
type moduleEmitter struct {
	g      *Generator
	m      *ir.Module
	b      *strings.Builder
	indent int

	localUses map[ir.ExprID]int
	usesCycle bool
	pops      []*ir.FIFOPort
}

func newModuleEmitter(g *Generator, m *ir.Module, b *strings.Builder) *moduleEmitter {
	e := &moduleEmitter{
		g:         g,
		m:         m,
		b:         b,
		localUses: make(map[ir.ExprID]int),
	}
	e.scanBlock(m.Body)
	return e
}

// scanBlock precomputes how often each expression is referenced inside
// its own module, which pops gate the function, and whether the cycle
// counter is needed.
func (e *moduleEmitter) scanBlock(blk *ir.Block) {
	if blk == nil {
		return
	}
	if blk.Kind == ir.BlockCycled {
		e.usesCycle = true
	}
	if blk.Cond != nil && blk.Cond.Owner == e.m {
		e.localUses[blk.Cond.ID]++
	}
	for _, el := range blk.Elems {
		if el.Block != nil {
			e.scanBlock(el.Block)
			continue
		}
		ex := el.Expr
		if ex == nil {
			continue
		}
		switch ex.Kind {
		case ir.ExprAsyncCall, ir.ExprLog:
			e.usesCycle = true
		case ir.ExprFIFOPop:
			e.pops = append(e.pops, ex.FIFOPop.Port)
		}
		for _, o := range ex.Operands() {
			if o != nil && o.Owner == e.m && o.Kind != ir.ExprIntImm {
				e.localUses[o.ID]++
			}
		}
	}
}

func (e *moduleEmitter) line(format string, args ...any) {
	e.b.WriteString(strings.Repeat("\t", e.indent))
	fmt.Fprintf(e.b, format, args...)
	e.b.WriteByte('\n')
}

// ref renders a read of a previously computed expression. Immediates
// inline as untyped literals; values produced by another module go
// through their simulator cache field.
func (e *moduleEmitter) ref(x *ir.Expr) string {
	if x.Kind == ir.ExprIntImm {
		return strconv.FormatUint(x.IntImm.Value, 10)
	}
	if x.Owner != e.m {
		return "sim." + cacheField(x)
	}
	return val(x)
}

func (e *moduleEmitter) emitFunc() {
	e.line("func %s(sim *Simulator) bool {", moduleFunc(e.m))
	e.indent++
	seen := make(map[*ir.FIFOPort]bool)
	for _, p := range e.pops {
		if seen[p] {
			continue
		}
		seen[p] = true
		e.line("if len(sim.%s) == 0 {", fifoField(p))
		e.line("\treturn false")
		e.line("}")
	}
	if e.usesCycle {
		e.line("cycle := sim.Stamp / 100")
	}
	e.emitBlock(e.m.Body)
	for _, ext := range e.g.ownedClocked(e.m) {
		e.line("sim.%s.ClockTick()", ffiField(ext))
	}
	e.line("return true")
	e.indent--
	e.line("}")
}

func (e *moduleEmitter) emitBlock(blk *ir.Block) {
	if blk == nil {
		return
	}
	for _, el := range blk.Elems {
		if el.Block != nil {
			switch el.Block.Kind {
			case ir.BlockCond:
				e.line("if %s != 0 {", e.ref(el.Block.Cond))
			case ir.BlockCycled:
				e.line("if cycle == %d {", el.Block.Cycle)
			default:
				e.line("{")
			}
			e.indent++
			e.emitBlock(el.Block)
			e.indent--
			e.line("}")
			continue
		}
		if el.Expr != nil {
			e.emitExpr(el.Expr)
		}
	}
}

// bind emits the assignment form appropriate for how a value is
// consumed: a local, a cache store, or both.
func (e *moduleEmitter) bind(x *ir.Expr, rhs string) {
	localUse := e.localUses[x.ID] > 0
	exposed := e.g.Exposure.Contains(x.ID)
	switch {
	case localUse && exposed:
		e.line("%s := %s", val(x), rhs)
		e.line("sim.%s = %s", cacheField(x), val(x))
	case localUse:
		e.line("%s := %s", val(x), rhs)
	case exposed:
		e.line("sim.%s = %s", cacheField(x), rhs)
	}
}

func (e *moduleEmitter) emitExpr(x *ir.Expr) {
	switch x.Kind {
	case ir.ExprIntImm:
		// Inlined at use sites.

	case ir.ExprBinary:
		t := goType(x.Type)
		lhs := e.ref(x.Binary.LHS)
		rhs := e.ref(x.Binary.RHS)
		switch x.Binary.Op {
		case ir.OpEQ, ir.OpNE, ir.OpLT, ir.OpLE, ir.OpGT, ir.OpGE:
			ot := goType(x.Binary.LHS.Type)
			e.bind(x, fmt.Sprintf("b2u(%s(%s) %s %s(%s))", ot, lhs, x.Binary.Op.GoOp(), ot, rhs))
		default:
			expr := fmt.Sprintf("%s(%s) %s %s(%s)", t, lhs, x.Binary.Op.GoOp(), t, rhs)
			if m := mask(x.Type); m != "" {
				expr = "(" + expr + ")" + m
			}
			e.bind(x, expr)
		}

	case ir.ExprUnary:
		t := goType(x.Type)
		op := "-"
		if x.Unary.Op == ir.OpNot {
			op = "^"
		}
		expr := fmt.Sprintf("%s%s(%s)", op, t, e.ref(x.Unary.Operand))
		if m := mask(x.Type); m != "" {
			expr = "(" + expr + ")" + m
		}
		e.bind(x, expr)

	case ir.ExprArrayRead:
		e.bind(x, fmt.Sprintf("sim.%s[int(%s)]", arrayField(x.ArrayRead.Array), e.ref(x.ArrayRead.Index)))

	case ir.ExprArrayWrite:
		a := x.ArrayWrite.Array
		e.line("sim.%s = append(sim.%s, %s{idx: int(%s), val: %s(%s)})",
			arrayPendingField(a), arrayPendingField(a), arrayWriteType(a),
			e.ref(x.ArrayWrite.Index), goType(a.Elem), e.ref(x.ArrayWrite.Value))

	case ir.ExprFIFOPop:
		p := x.FIFOPop.Port
		localUse := e.localUses[x.ID] > 0
		exposed := e.g.Exposure.Contains(x.ID)
		if localUse || exposed {
			e.bind(x, fmt.Sprintf("sim.%s[0]", fifoField(p)))
		}
		e.line("sim.%s = sim.%s[1:]", fifoField(p), fifoField(p))

	case ir.ExprFIFOPush:
		p := x.FIFOPush.Port
		e.line("sim.%s = append(sim.%s, %s(%s))",
			fifoPendingField(p), fifoPendingField(p), goType(p.Type), e.ref(x.FIFOPush.Value))

	case ir.ExprAsyncCall:
		target := x.AsyncCall.Target
		e.line("sim.%s = append(sim.%s, cycle+1)", eventsField(target), eventsField(target))

	case ir.ExprWireAssign:
		ext := x.WireAssign.Ext
		port, _ := e.g.manifestPort(ext, x.WireAssign.Port)
		e.line("sim.%s.Set%s(%s(%s))", ffiField(ext), portMethod(x.WireAssign.Port), port.Type, e.ref(x.WireAssign.Value))
		e.line("sim.%s = true", staleField(ext))

	case ir.ExprWireRead:
		ext := x.WireRead.Ext
		e.line("if sim.%s {", staleField(ext))
		e.line("\tsim.%s.Eval()", ffiField(ext))
		e.line("\tsim.%s = false", staleField(ext))
		e.line("}")
		e.bind(x, fmt.Sprintf("%s(sim.%s.Get%s())", goType(x.Type), ffiField(ext), portMethod(x.WireRead.Port)))

	case ir.ExprLog:
		format := "@%04d: " + x.Log.Format + "\n"
		args := make([]string, 0, len(x.Log.Args)+1)
		args = append(args, "cycle")
		for _, a := range x.Log.Args {
			args = append(args, e.ref(a))
		}
		e.line("fmt.Printf(%s, %s)", strconv.Quote(format), strings.Join(args, ", "))
	}
}
