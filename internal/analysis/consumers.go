package analysis

import "assassyn/internal/ir"

// Consumer identifies one external input fed by a producer expression.
type Consumer struct {
	Ext  *ir.ExternalModule
	Port *ir.Port
}

// ProducerKey identifies a producing expression by owning module and
// graph-wide expression identity.
type ProducerKey struct {
	Module string
	Expr   ir.ExprID
}

// ProducerConsumerMap is the reverse index from producing expressions
// to the external inputs they drive. Consumer order follows external
// module declaration order and, within a module, port declaration
// order, so generated code is stable across runs for the same graph.
type ProducerConsumerMap struct {
	consumers map[ProducerKey][]Consumer
	keys      []ProducerKey
}

// BuildProducerMap inverts the bound input drivers of every external
// module in the system. Inputs whose driver does not resolve to a
// producing expression (e.g. literal constants) are omitted; that is
// not an error.
func BuildProducerMap(sys *ir.System) *ProducerConsumerMap {
	m := &ProducerConsumerMap{consumers: make(map[ProducerKey][]Consumer)}
	for _, ext := range sys.Externals {
		for _, p := range ext.Ports() {
			if p.Dir != ir.DirInput {
				continue
			}
			d := p.Driver()
			if !Resolvable(d) {
				continue
			}
			key := ProducerKey{Module: d.Owner.Name, Expr: d.ID}
			if _, seen := m.consumers[key]; !seen {
				m.keys = append(m.keys, key)
			}
			m.consumers[key] = append(m.consumers[key], Consumer{Ext: ext, Port: p})
		}
	}
	return m
}

// Contains reports whether the given producer drives any external input.
func (m *ProducerConsumerMap) Contains(owner *ir.Module, id ir.ExprID) bool {
	if owner == nil {
		return false
	}
	_, ok := m.consumers[ProducerKey{Module: owner.Name, Expr: id}]
	return ok
}

// Consumers returns the external inputs driven by the given producer,
// in deterministic declaration order.
func (m *ProducerConsumerMap) Consumers(owner *ir.Module, id ir.ExprID) []Consumer {
	if owner == nil {
		return nil
	}
	return m.consumers[ProducerKey{Module: owner.Name, Expr: id}]
}

// Keys returns producer keys in first-seen order.
func (m *ProducerConsumerMap) Keys() []ProducerKey { return m.keys }

// Len returns the number of distinct producers.
func (m *ProducerConsumerMap) Len() int { return len(m.consumers) }
