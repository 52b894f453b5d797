// Package ffigen synthesizes, per external module, a self-contained
// wrapper package: the staged hardware source, a C-ABI bridge over the
// verilated model, a typed host wrapper that loads the compiled
// artifact at run time, a build descriptor for the build pipeline, and
// one manifest record describing it all.
package ffigen

import (
	"fmt"

	"fortio.org/safecast"

	"assassyn/internal/ir"
)

// ErrWidthUnsupported reports a port wider than the scalar FFI path
// supports. This is a configuration error raised at type resolution,
// never deferred to the built artifact.
var ErrWidthUnsupported = fmt.Errorf("port width exceeds 64 bits")

// PortSpec is one resolved port of a wrapper package.
type PortSpec struct {
	Name      string
	Direction ir.Direction
	Bits      int
	Signed    bool
	// Storage is the narrowest covering scalar width: 8, 16, 32 or 64.
	Storage int
	// GoType and CType name the storage type on each side of the ABI.
	GoType string
	CType  string
}

// storageWidth rounds a bit width up to the narrowest scalar storage
// width. Widths above 64 are out of scope for the scalar FFI path.
func storageWidth(bits int) (int, error) {
	if _, err := safecast.Conv[uint](bits); err != nil || bits == 0 {
		return 0, fmt.Errorf("invalid port width %d", bits)
	}
	switch {
	case bits <= 8:
		return 8, nil
	case bits <= 16:
		return 16, nil
	case bits <= 32:
		return 32, nil
	case bits <= 64:
		return 64, nil
	}
	return 0, fmt.Errorf("%w (requested %d)", ErrWidthUnsupported, bits)
}

// ResolvePort maps a port's width and signedness to its scalar FFI
// storage types.
func ResolvePort(p *ir.Port) (PortSpec, error) {
	storage, err := storageWidth(p.Type.Bits)
	if err != nil {
		return PortSpec{}, fmt.Errorf("port %q: %w", p.Name, err)
	}
	spec := PortSpec{
		Name:      p.Name,
		Direction: p.Dir,
		Bits:      p.Type.Bits,
		Signed:    p.Type.Signed,
		Storage:   storage,
	}
	if p.Type.Signed {
		spec.GoType = fmt.Sprintf("int%d", storage)
		spec.CType = fmt.Sprintf("int%d_t", storage)
	} else {
		spec.GoType = fmt.Sprintf("uint%d", storage)
		spec.CType = fmt.Sprintf("uint%d_t", storage)
	}
	return spec, nil
}
