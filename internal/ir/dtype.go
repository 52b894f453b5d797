package ir

import "fmt"

// DType describes a fixed-width scalar value type carried on wires,
// ports and expressions.
type DType struct {
	Bits   int
	Signed bool
}

// UInt returns an unsigned type of the given width.
func UInt(bits int) DType { return DType{Bits: bits} }

// Int returns a signed type of the given width.
func Int(bits int) DType { return DType{Bits: bits, Signed: true} }

// Bool is a single-bit unsigned type.
func Bool() DType { return DType{Bits: 1} }

func (d DType) String() string {
	if d.Signed {
		return fmt.Sprintf("i%d", d.Bits)
	}
	return fmt.Sprintf("u%d", d.Bits)
}

// Valid reports whether the type has a positive width.
func (d DType) Valid() bool { return d.Bits > 0 }
