package simgen

import (
	"fmt"

	"assassyn/internal/ir"
)

// goType maps a value type onto the scalar Go type carrying it in the
// generated simulator: the narrowest of uint8/16/32/64 (or the signed
// twin) holding the declared width. Widths beyond 64 saturate at 64;
// the FFI boundary rejects them before any such value can reach an
// external port.
func goType(t ir.DType) string {
	storage := 64
	switch {
	case t.Bits <= 8:
		storage = 8
	case t.Bits <= 16:
		storage = 16
	case t.Bits <= 32:
		storage = 32
	}
	if t.Signed {
		return fmt.Sprintf("int%d", storage)
	}
	return fmt.Sprintf("uint%d", storage)
}

func storageBits(t ir.DType) int {
	switch {
	case t.Bits <= 8:
		return 8
	case t.Bits <= 16:
		return 16
	case t.Bits <= 32:
		return 32
	}
	return 64
}

// mask returns the truncation suffix trimming an arithmetic result to
// its declared width, or "" when the storage type already matches.
// Signed values keep their storage width.
func mask(t ir.DType) string {
	if t.Signed || t.Bits <= 0 || t.Bits >= storageBits(t) || t.Bits >= 64 {
		return ""
	}
	return fmt.Sprintf(" & 0x%x", uint64(1)<<uint(t.Bits)-1)
}
