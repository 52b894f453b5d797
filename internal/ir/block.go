package ir

// BlockKind enumerates block kinds in a module body.
type BlockKind uint8

const (
	// BlockBody is a plain sequence of elements.
	BlockBody BlockKind = iota
	// BlockCond executes its elements when the condition holds.
	BlockCond
	// BlockCycled executes its elements on one specific cycle.
	BlockCycled
)

// Elem is one element of a block: either an expression or a nested
// block. Exactly one field is non-nil.
type Elem struct {
	Expr  *Expr
	Block *Block
}

// Block is a (possibly guarded) sequence of body elements.
type Block struct {
	Kind  BlockKind
	Cond  *Expr
	Cycle int
	Elems []Elem
}

// NewBlock returns an empty plain block.
func NewBlock() *Block { return &Block{Kind: BlockBody} }

// Append adds an expression to the block.
func (b *Block) Append(e *Expr) { b.Elems = append(b.Elems, Elem{Expr: e}) }

// AppendBlock adds a nested block.
func (b *Block) AppendBlock(nb *Block) { b.Elems = append(b.Elems, Elem{Block: nb}) }
