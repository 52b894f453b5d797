package ir

// ModuleKind distinguishes evaluation disciplines.
type ModuleKind uint8

const (
	// ModuleEvent is an event-driven module: it evaluates when its
	// event queue has an entry due at the current stamp.
	ModuleEvent ModuleKind = iota
	// ModuleDownstream is a combinational module: it evaluates whenever
	// any of its upstream modules was triggered this step.
	ModuleDownstream
)

// Module is an elaborated graph module with a body. External modules
// are not Modules: they are black boxes without bodies, owned by the
// downstream module that reads them (see ExternalModule).
type Module struct {
	Name  string
	Kind  ModuleKind
	Ports []*FIFOPort
	Body  *Block
}

// FIFOPort is a typed FIFO input of an event-driven module.
type FIFOPort struct {
	Module *Module
	Name   string
	Type   DType
}

// NewModule creates an event-driven module with the given FIFO ports.
func NewModule(name string, ports ...*FIFOPort) *Module {
	m := &Module{Name: name, Kind: ModuleEvent, Body: NewBlock()}
	for _, p := range ports {
		p.Module = m
		m.Ports = append(m.Ports, p)
	}
	return m
}

// NewDownstream creates a combinational downstream module.
func NewDownstream(name string) *Module {
	return &Module{Name: name, Kind: ModuleDownstream, Body: NewBlock()}
}

// Port returns the FIFO port with the given name, or nil.
func (m *Module) Port(name string) *FIFOPort {
	for _, p := range m.Ports {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Array is a register array: state written in one step becomes visible
// to readers on the next register tick.
type Array struct {
	Name string
	Elem DType
	Size int
	Init []uint64
}
