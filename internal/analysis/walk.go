// Package analysis computes cross-module dataflow facts over an
// elaborated system: which values must be cached because they are
// consumed outside their producing module, which expressions drive
// which external inputs, and the evaluation order of downstream
// modules.
package analysis

import "assassyn/internal/ir"

// WalkModule visits every expression of m's body exactly once, in a
// single depth-first pass. Operands owned by m are visited before the
// node that references them; operands owned by other modules are not
// descended into (they belong to their own module's walk).
func WalkModule(m *ir.Module, visit func(*ir.Expr)) {
	seen := make(map[ir.ExprID]struct{})
	var visitExpr func(e *ir.Expr)
	visitExpr = func(e *ir.Expr) {
		if e == nil {
			return
		}
		if _, ok := seen[e.ID]; ok {
			return
		}
		seen[e.ID] = struct{}{}
		for _, o := range e.Operands() {
			if o != nil && o.Owner == m {
				visitExpr(o)
			}
		}
		visit(e)
	}
	var visitBlock func(b *ir.Block)
	visitBlock = func(b *ir.Block) {
		if b == nil {
			return
		}
		if b.Cond != nil && b.Cond.Owner == m {
			visitExpr(b.Cond)
		}
		for _, el := range b.Elems {
			switch {
			case el.Expr != nil:
				visitExpr(el.Expr)
			case el.Block != nil:
				visitBlock(el.Block)
			}
		}
	}
	visitBlock(m.Body)
}

// Resolvable reports whether an expression can serve as a producer key:
// it must be valued and owned by a module. Literal immediates need no
// caching and are never producers.
func Resolvable(e *ir.Expr) bool {
	return e != nil && e.Valued() && e.Kind != ir.ExprIntImm && e.Owner != nil
}
