package ir

import (
	"errors"
	"fmt"
)

// Schema errors for external-module port access. They are signaled at
// the point of the offending operation, never deferred.
var (
	// ErrUnknownPort reports a lookup of a port name the module does not declare.
	ErrUnknownPort = errors.New("unknown port")
	// ErrDirection reports access to a port through a view of the wrong direction.
	ErrDirection = errors.New("port direction mismatch")
	// ErrUnboundInput reports a read of an input port that was never assigned.
	ErrUnboundInput = errors.New("input port has no driver")
	// ErrDuplicatePort reports a duplicate port name during construction.
	ErrDuplicatePort = errors.New("duplicate port name")
)

// Direction of an external port. Fixed at creation, never mutated.
type Direction uint8

const (
	// DirInput is a driven port.
	DirInput Direction = iota
	// DirOutput is an observed port.
	DirOutput
)

func (d Direction) String() string {
	if d == DirOutput {
		return "output"
	}
	return "input"
}

// Port is a named, directioned, fixed-width signal on an external
// module's boundary. For inputs, driver holds the expression currently
// assigned to drive the port; outputs never store a value, reads are
// live queries into the external instance.
type Port struct {
	Name string
	Dir  Direction
	Type DType

	driver *Expr
}

// Driver returns the expression bound to drive this input port, or nil.
func (p *Port) Driver() *Expr { return p.driver }

// PortDecl declares one port during external-module construction.
type PortDecl struct {
	Name string
	Dir  Direction
	Type DType
}

// In declares an input port.
func In(name string, t DType) PortDecl { return PortDecl{Name: name, Dir: DirInput, Type: t} }

// Out declares an output port.
func Out(name string, t DType) PortDecl { return PortDecl{Name: name, Dir: DirOutput, Type: t} }

// ExternalModule is a black-box module backed by an external
// hardware-description source. Its boundary schema is immutable after
// construction; only per-input driver bookkeeping changes while the
// graph is built.
type ExternalModule struct {
	Name       string
	SourcePath string
	Entity     string
	HasClock   bool
	HasReset   bool

	// Owner is the module whose generated body evaluates this instance
	// and, when a clock is declared, advances it once per invocation.
	// Set when the first output read is recorded.
	Owner *Module

	ports  []*Port
	byName map[string]*Port
}

// NewExternalModule constructs an external module from its declared
// schema. Port order follows declaration order; names must be unique.
// The entity name defaults to the module's own name.
func NewExternalModule(name, sourcePath, entity string, decls ...PortDecl) (*ExternalModule, error) {
	if entity == "" {
		entity = name
	}
	m := &ExternalModule{
		Name:       name,
		SourcePath: sourcePath,
		Entity:     entity,
		byName:     make(map[string]*Port, len(decls)),
	}
	for _, d := range decls {
		if _, dup := m.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %q on %q", ErrDuplicatePort, d.Name, name)
		}
		p := &Port{Name: d.Name, Dir: d.Dir, Type: d.Type}
		m.ports = append(m.ports, p)
		m.byName[d.Name] = p
	}
	return m, nil
}

// Ports returns all ports in declaration order.
func (m *ExternalModule) Ports() []*Port { return m.ports }

// Inputs returns the input-bound view of the boundary.
func (m *ExternalModule) Inputs() InputView { return InputView{m: m} }

// Outputs returns the output-bound view of the boundary.
func (m *ExternalModule) Outputs() OutputView { return OutputView{m: m} }

func (m *ExternalModule) port(name string, dir Direction) (*Port, error) {
	p, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %q", ErrUnknownPort, name, m.Name)
	}
	if p.Dir != dir {
		return nil, fmt.Errorf("%w: %q on %q is not an %s port", ErrDirection, name, m.Name, dir)
	}
	return p, nil
}

// InputView is the input-direction capability over an external module's
// boundary. Lookups of output ports fail with ErrDirection.
type InputView struct {
	m *ExternalModule
}

// Port resolves an input port by name.
func (v InputView) Port(name string) (*Port, error) { return v.m.port(name, DirInput) }

// Names returns the input port names in declaration order.
func (v InputView) Names() []string { return v.m.names(DirInput) }

// Bind records value as the driving expression of the named input.
// Binding is idempotent-overwrite: the last write before elaboration
// finalizes wins.
func (v InputView) Bind(name string, value *Expr) error {
	p, err := v.Port(name)
	if err != nil {
		return err
	}
	p.driver = value
	return nil
}

// Driver returns the expression currently bound to the named input.
// An input that was never assigned fails with ErrUnboundInput; this
// surfaces when code generation needs the value, not at construction.
func (v InputView) Driver(name string) (*Expr, error) {
	p, err := v.Port(name)
	if err != nil {
		return nil, err
	}
	if p.driver == nil {
		return nil, fmt.Errorf("%w: %q on %q", ErrUnboundInput, name, v.m.Name)
	}
	return p.driver, nil
}

// OutputView is the output-direction capability over an external
// module's boundary. Assignment through it always fails.
type OutputView struct {
	m *ExternalModule
}

// Port resolves an output port by name.
func (v OutputView) Port(name string) (*Port, error) { return v.m.port(name, DirOutput) }

// Names returns the output port names in declaration order.
func (v OutputView) Names() []string { return v.m.names(DirOutput) }

// Bind rejects any assignment to an output port.
func (v OutputView) Bind(name string, _ *Expr) error {
	if _, ok := v.m.byName[name]; !ok {
		return fmt.Errorf("%w: %q on %q", ErrUnknownPort, name, v.m.Name)
	}
	return fmt.Errorf("%w: cannot assign to output %q on %q", ErrDirection, name, v.m.Name)
}

func (m *ExternalModule) names(dir Direction) []string {
	var out []string
	for _, p := range m.ports {
		if p.Dir == dir {
			out = append(out, p.Name)
		}
	}
	return out
}
