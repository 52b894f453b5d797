package ir

import (
	"fmt"
	"sort"
)

// System is one elaborated design: the output of the front-end graph
// builder and the input of every analysis and generator in this
// repository. Declaration order of modules, downstreams and external
// modules is preserved; generated code mirrors it.
type System struct {
	Name        string
	Modules     []*Module
	Downstreams []*Module
	Externals   []*ExternalModule
	Arrays      []*Array

	nextExpr ExprID
}

// NewSystem creates an empty system.
func NewSystem(name string) *System { return &System{Name: name} }

// AddModule registers an event-driven module.
func (s *System) AddModule(m *Module) *Module {
	s.Modules = append(s.Modules, m)
	return m
}

// AddDownstream registers a downstream module.
func (s *System) AddDownstream(m *Module) *Module {
	s.Downstreams = append(s.Downstreams, m)
	return m
}

// AddExternal registers an external module.
func (s *System) AddExternal(m *ExternalModule) *ExternalModule {
	s.Externals = append(s.Externals, m)
	return m
}

// AddArray registers a register array.
func (s *System) AddArray(a *Array) *Array {
	s.Arrays = append(s.Arrays, a)
	return a
}

// AllModules returns modules then downstreams, in declaration order.
func (s *System) AllModules() []*Module {
	out := make([]*Module, 0, len(s.Modules)+len(s.Downstreams))
	out = append(out, s.Modules...)
	out = append(out, s.Downstreams...)
	return out
}

// ModuleByName returns the module or downstream with the given name.
func (s *System) ModuleByName(name string) *Module {
	for _, m := range s.AllModules() {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ExternalByName returns the external module with the given name.
func (s *System) ExternalByName(name string) *ExternalModule {
	for _, m := range s.Externals {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (s *System) new(m *Module, kind ExprKind, t DType) *Expr {
	s.nextExpr++
	return &Expr{ID: s.nextExpr, Kind: kind, Type: t, Owner: m}
}

func (s *System) append(m *Module, e *Expr) *Expr {
	m.Body.Append(e)
	return e
}

// IntImm appends an integer immediate to m's body.
func (s *System) IntImm(m *Module, t DType, v uint64) *Expr {
	e := s.new(m, ExprIntImm, t)
	e.IntImm = IntImmExpr{Value: v}
	return s.append(m, e)
}

// Binary appends a binary operation to m's body.
func (s *System) Binary(m *Module, op BinOp, lhs, rhs *Expr) *Expr {
	t := lhs.Type
	switch op {
	case OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE:
		t = Bool()
	}
	e := s.new(m, ExprBinary, t)
	e.Binary = BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
	return s.append(m, e)
}

// Unary appends a unary operation to m's body.
func (s *System) Unary(m *Module, op UnOp, operand *Expr) *Expr {
	e := s.new(m, ExprUnary, operand.Type)
	e.Unary = UnaryExpr{Op: op, Operand: operand}
	return s.append(m, e)
}

// ArrayRead appends a register-array read to m's body.
func (s *System) ArrayRead(m *Module, a *Array, idx *Expr) *Expr {
	e := s.new(m, ExprArrayRead, a.Elem)
	e.ArrayRead = ArrayReadExpr{Array: a, Index: idx}
	return s.append(m, e)
}

// ArrayWrite appends a register-array write to m's body.
func (s *System) ArrayWrite(m *Module, a *Array, idx, val *Expr) *Expr {
	e := s.new(m, ExprArrayWrite, DType{})
	e.ArrayWrite = ArrayWriteExpr{Array: a, Index: idx, Value: val}
	return s.append(m, e)
}

// FIFOPop appends a pop of m's own FIFO port to m's body.
func (s *System) FIFOPop(m *Module, p *FIFOPort) *Expr {
	e := s.new(m, ExprFIFOPop, p.Type)
	e.FIFOPop = FIFOPopExpr{Port: p}
	return s.append(m, e)
}

// FIFOPush appends a push into another module's FIFO port to m's body.
func (s *System) FIFOPush(m *Module, p *FIFOPort, val *Expr) *Expr {
	e := s.new(m, ExprFIFOPush, DType{})
	e.FIFOPush = FIFOPushExpr{Port: p, Value: val}
	return s.append(m, e)
}

// AsyncCall appends an async trigger of target to m's body.
func (s *System) AsyncCall(m *Module, target *Module) *Expr {
	e := s.new(m, ExprAsyncCall, DType{})
	e.AsyncCall = AsyncCallExpr{Target: target}
	return s.append(m, e)
}

// Log appends a formatted trace statement to m's body.
func (s *System) Log(m *Module, format string, args ...*Expr) *Expr {
	e := s.new(m, ExprLog, DType{})
	e.Log = LogExpr{Format: format, Args: args}
	return s.append(m, e)
}

// DriveInput appends a wire-write driving ext's input port to m's body
// and records value as the port's driver.
func (s *System) DriveInput(m *Module, ext *ExternalModule, port string, value *Expr) (*Expr, error) {
	p, err := ext.Inputs().Port(port)
	if err != nil {
		return nil, err
	}
	if err := ext.Inputs().Bind(port, value); err != nil {
		return nil, err
	}
	e := s.new(m, ExprWireAssign, DType{})
	e.WireAssign = WireAssignExpr{Ext: ext, Port: p, Value: value}
	return s.append(m, e), nil
}

// ReadOutput appends a live read of ext's output port to m's body.
// The first reader becomes the instance's owner: its generated body
// evaluates the instance and advances its clock.
func (s *System) ReadOutput(m *Module, ext *ExternalModule, port string) (*Expr, error) {
	p, err := ext.Outputs().Port(port)
	if err != nil {
		return nil, err
	}
	if ext.Owner == nil {
		ext.Owner = m
	}
	e := s.new(m, ExprWireRead, p.Type)
	e.WireRead = WireReadExpr{Ext: ext, Port: p}
	return s.append(m, e), nil
}

// BindInputs bulk-assigns named input values on ext from m's body and
// returns live-read handles for every output port in declaration
// order, ready for direct unpacking by the caller.
func (s *System) BindInputs(m *Module, ext *ExternalModule, values map[string]*Expr) ([]*Expr, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := s.DriveInput(m, ext, name, values[name]); err != nil {
			return nil, err
		}
	}
	var outs []*Expr
	for _, name := range ext.Outputs().Names() {
		h, err := s.ReadOutput(m, ext, name)
		if err != nil {
			return nil, err
		}
		outs = append(outs, h)
	}
	return outs, nil
}

// BindInputs1 is BindInputs for modules with exactly one output port.
func (s *System) BindInputs1(m *Module, ext *ExternalModule, values map[string]*Expr) (*Expr, error) {
	outs, err := s.BindInputs(m, ext, values)
	if err != nil {
		return nil, err
	}
	if len(outs) != 1 {
		return nil, fmt.Errorf("external module %q has %d output ports, want exactly 1", ext.Name, len(outs))
	}
	return outs[0], nil
}
