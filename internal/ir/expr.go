package ir

// ExprID identifies an expression across the whole elaborated graph.
// Identity is graph-wide, not value-based: two structurally equal
// expressions with different IDs are distinct nodes.
type ExprID uint32

// ExprKind enumerates expression kinds in the elaborated graph.
type ExprKind uint8

const (
	// ExprInvalid is the zero value and never appears in a built graph.
	ExprInvalid ExprKind = iota
	// ExprIntImm represents an integer immediate.
	ExprIntImm
	// ExprBinary represents a binary arithmetic/logic operation.
	ExprBinary
	// ExprUnary represents a unary operation.
	ExprUnary
	// ExprArrayRead represents a register-array read.
	ExprArrayRead
	// ExprArrayWrite represents a register-array write.
	ExprArrayWrite
	// ExprFIFOPop represents popping a module's FIFO port.
	ExprFIFOPop
	// ExprFIFOPush represents pushing a value into another module's FIFO port.
	ExprFIFOPush
	// ExprAsyncCall represents scheduling another module's evaluation.
	ExprAsyncCall
	// ExprWireAssign represents driving an external module's input port.
	ExprWireAssign
	// ExprWireRead represents a live observation of an external output port.
	ExprWireRead
	// ExprLog represents a formatted trace statement.
	ExprLog
)

// BinOp enumerates binary operators.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// GoOp returns the Go operator token used by the simulator emitter.
func (op BinOp) GoOp() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	}
	return "?"
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	OpNeg UnOp = iota
	OpNot
)

// Expr is a node in a module body. Exactly one payload field, selected
// by Kind, is meaningful.
type Expr struct {
	ID    ExprID
	Kind  ExprKind
	Type  DType
	Owner *Module

	IntImm     IntImmExpr
	Binary     BinaryExpr
	Unary      UnaryExpr
	ArrayRead  ArrayReadExpr
	ArrayWrite ArrayWriteExpr
	FIFOPop    FIFOPopExpr
	FIFOPush   FIFOPushExpr
	AsyncCall  AsyncCallExpr
	WireAssign WireAssignExpr
	WireRead   WireReadExpr
	Log        LogExpr
}

// IntImmExpr is an integer immediate payload.
type IntImmExpr struct {
	Value uint64
}

// BinaryExpr is a binary operation payload.
type BinaryExpr struct {
	Op  BinOp
	LHS *Expr
	RHS *Expr
}

// UnaryExpr is a unary operation payload.
type UnaryExpr struct {
	Op      UnOp
	Operand *Expr
}

// ArrayReadExpr reads one element of a register array.
type ArrayReadExpr struct {
	Array *Array
	Index *Expr
}

// ArrayWriteExpr writes one element of a register array. The write is
// visible to readers only after the register tick, so its consumer
// executes outside the producing module's own evaluation.
type ArrayWriteExpr struct {
	Array *Array
	Index *Expr
	Value *Expr
}

// FIFOPopExpr pops the module's own FIFO port.
type FIFOPopExpr struct {
	Port *FIFOPort
}

// FIFOPushExpr pushes a value into another module's FIFO port.
type FIFOPushExpr struct {
	Port  *FIFOPort
	Value *Expr
}

// AsyncCallExpr schedules the target module for evaluation.
type AsyncCallExpr struct {
	Target *Module
}

// WireAssignExpr drives an external module's input port with a value.
type WireAssignExpr struct {
	Ext   *ExternalModule
	Port  *Port
	Value *Expr
}

// WireReadExpr observes an external module's output port. The read is
// always live: the generated simulator re-evaluates the external
// instance before fetching when any input changed in the same step.
type WireReadExpr struct {
	Ext  *ExternalModule
	Port *Port
}

// LogExpr is a formatted trace statement.
type LogExpr struct {
	Format string
	Args   []*Expr
}

// Valued reports whether the expression produces a result that other
// expressions may reference.
func (e *Expr) Valued() bool {
	switch e.Kind {
	case ExprIntImm, ExprBinary, ExprUnary, ExprArrayRead, ExprFIFOPop, ExprWireRead:
		return true
	}
	return false
}

// Operands returns the expression operands referenced by this node.
// This is the single unwrap point used by every analysis; nothing in
// the graph forwards attributes implicitly.
func (e *Expr) Operands() []*Expr {
	switch e.Kind {
	case ExprBinary:
		return []*Expr{e.Binary.LHS, e.Binary.RHS}
	case ExprUnary:
		return []*Expr{e.Unary.Operand}
	case ExprArrayRead:
		return []*Expr{e.ArrayRead.Index}
	case ExprArrayWrite:
		return []*Expr{e.ArrayWrite.Index, e.ArrayWrite.Value}
	case ExprFIFOPush:
		return []*Expr{e.FIFOPush.Value}
	case ExprWireAssign:
		return []*Expr{e.WireAssign.Value}
	case ExprLog:
		return e.Log.Args
	}
	return nil
}
