package analysis

import "assassyn/internal/ir"

// Upstreams returns the modules whose values m consumes: owners of
// cross-module operand references in m's body, plus owners of the
// expressions driving inputs of external modules that m evaluates.
// Order is deterministic (first reference wins), without duplicates.
func Upstreams(m *ir.Module) []*ir.Module {
	var out []*ir.Module
	seen := make(map[*ir.Module]struct{})
	add := func(u *ir.Module) {
		if u == nil || u == m {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	WalkModule(m, func(e *ir.Expr) {
		for _, o := range e.Operands() {
			if o != nil && o.Owner != m {
				add(o.Owner)
			}
		}
		if e.Kind == ir.ExprWireRead {
			ext := e.WireRead.Ext
			for _, p := range ext.Ports() {
				if p.Dir != ir.DirInput {
					continue
				}
				if d := p.Driver(); d != nil {
					add(d.Owner)
				}
			}
		}
	})
	return out
}

// TopoDownstreams orders the system's downstream modules so that every
// module appears after the downstream modules it depends on. Modules
// caught in a dependency cycle are appended at the end in declaration
// order rather than dropped.
func TopoDownstreams(sys *ir.System) []*ir.Module {
	downstream := make(map[*ir.Module]bool, len(sys.Downstreams))
	for _, d := range sys.Downstreams {
		downstream[d] = true
	}

	deps := make(map[*ir.Module][]*ir.Module, len(sys.Downstreams))
	indeg := make(map[*ir.Module]int, len(sys.Downstreams))
	dependents := make(map[*ir.Module][]*ir.Module)
	for _, d := range sys.Downstreams {
		for _, u := range Upstreams(d) {
			if !downstream[u] {
				continue
			}
			deps[d] = append(deps[d], u)
			dependents[u] = append(dependents[u], d)
		}
		indeg[d] = len(deps[d])
	}

	var queue []*ir.Module
	for _, d := range sys.Downstreams {
		if indeg[d] == 0 {
			queue = append(queue, d)
		}
	}

	var order []*ir.Module
	placed := make(map[*ir.Module]bool, len(sys.Downstreams))
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		order = append(order, d)
		placed[d] = true
		for _, dep := range dependents[d] {
			indeg[dep]--
			if indeg[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	for _, d := range sys.Downstreams {
		if !placed[d] {
			order = append(order, d)
		}
	}
	return order
}
