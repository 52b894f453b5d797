package simgen

import (
	"fmt"
	"strings"

	"assassyn/internal/ffigen"
	"assassyn/internal/ir"
)

// Identifier derivation for the generated simulator source. All names
// funnel through the same sanitizer as the wrapper packages so the two
// sides of the FFI boundary agree on method names.

func exported(name string) string {
	return ffigen.WrapperTypeName(ffigen.Sanitize(name))
}

func local(name string) string {
	e := exported(name)
	return strings.ToLower(e[:1]) + e[1:]
}

// val is the local variable holding an expression's result.
func val(e *ir.Expr) string { return fmt.Sprintf("x%d", e.ID) }

// cacheField is the Simulator field caching an exposed result.
func cacheField(e *ir.Expr) string { return fmt.Sprintf("x%dValue", e.ID) }

func triggeredField(m *ir.Module) string { return local(m.Name) + "Triggered" }

func eventsField(m *ir.Module) string { return local(m.Name) + "Events" }

func ffiField(ext *ir.ExternalModule) string { return local(ext.Name) + "FFI" }

func staleField(ext *ir.ExternalModule) string { return local(ext.Name) + "FFIStale" }

func fifoField(p *ir.FIFOPort) string {
	return "q" + exported(p.Module.Name) + exported(p.Name)
}

func fifoPendingField(p *ir.FIFOPort) string { return fifoField(p) + "Pending" }

func arrayField(a *ir.Array) string { return local(a.Name) }

func arrayPendingField(a *ir.Array) string { return arrayField(a) + "Pending" }

func arrayWriteType(a *ir.Array) string { return exported(a.Name) + "Write" }

func moduleFunc(m *ir.Module) string { return "module" + exported(m.Name) }

// portMethod is the Set/Get method suffix for an external port, as
// emitted on the wrapper type.
func portMethod(p *ir.Port) string {
	return ffigen.WrapperTypeName(ffigen.Sanitize(p.Name))
}
