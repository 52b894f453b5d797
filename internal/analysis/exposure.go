package analysis

import (
	"sort"

	"assassyn/internal/ir"
)

// ExposureSet holds the expressions whose results must be materialized
// by the generated simulator because a consumer outside the producing
// module reads them, partitioned by owning module for cache placement.
// Built once per elaboration run; read-only afterwards.
type ExposureSet struct {
	exprs    map[ir.ExprID]*ir.Expr
	byModule map[*ir.Module][]*ir.Expr
}

// Contains reports whether the expression with the given identity is exposed.
func (s *ExposureSet) Contains(id ir.ExprID) bool {
	_, ok := s.exprs[id]
	return ok
}

// Len returns the number of exposed expressions.
func (s *ExposureSet) Len() int { return len(s.exprs) }

// Exprs returns all exposed expressions ordered by identity.
func (s *ExposureSet) Exprs() []*ir.Expr {
	out := make([]*ir.Expr, 0, len(s.exprs))
	for _, e := range s.exprs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ForModule returns the exposed expressions produced by m, in the
// order they were discovered.
func (s *ExposureSet) ForModule(m *ir.Module) []*ir.Expr { return s.byModule[m] }

func (s *ExposureSet) add(e *ir.Expr) {
	if _, ok := s.exprs[e.ID]; ok {
		return
	}
	s.exprs[e.ID] = e
	s.byModule[e.Owner] = append(s.byModule[e.Owner], e)
}

// AnalyzeExposure traverses every module body once and collects the
// exposure set: expressions referenced from a module other than their
// producer, plus expressions that feed an external module's input.
// FIFO pushes themselves are not valued and never enter the set.
func AnalyzeExposure(sys *ir.System) *ExposureSet {
	set := &ExposureSet{
		exprs:    make(map[ir.ExprID]*ir.Expr),
		byModule: make(map[*ir.Module][]*ir.Expr),
	}
	for _, m := range sys.AllModules() {
		WalkModule(m, func(e *ir.Expr) {
			for _, o := range e.Operands() {
				if o != nil && o.Owner != m && Resolvable(o) {
					set.add(o)
				}
			}
		})
	}
	for _, ext := range sys.Externals {
		for _, p := range ext.Ports() {
			if p.Dir != ir.DirInput {
				continue
			}
			if d := p.Driver(); Resolvable(d) {
				set.add(d)
			}
		}
	}
	return set
}
