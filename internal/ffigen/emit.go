package ffigen

import (
	"fmt"
	"strings"
)

// emitBridge renders the C-ABI surface over the verilated model class.
// Entry points follow the <library-id>_* convention; clock and reset
// setters are emitted only when the module declares them.
func emitBridge(s *PackageSpec) string {
	cls := "V" + s.Entity
	lib := s.LibraryID
	var b strings.Builder

	fmt.Fprintf(&b, "#include \"%s.h\"\n", cls)
	b.WriteString("#include \"verilated.h\"\n")
	b.WriteString("#include <cstdint>\n\n")
	b.WriteString("double sc_time_stamp() { return 0.0; }\n\n")
	b.WriteString("extern \"C\" {\n\n")
	fmt.Fprintf(&b, "using ModuleHandle = %s;\n\n", cls)

	fmt.Fprintf(&b, "ModuleHandle* %s_new() {\n", lib)
	b.WriteString("    static bool inited = false;\n")
	b.WriteString("    if (!inited) { Verilated::debug(0); inited = true; }\n")
	b.WriteString("    return new ModuleHandle();\n")
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "void %s_free(ModuleHandle* handle) { delete handle; }\n\n", lib)
	fmt.Fprintf(&b, "void %s_eval(ModuleHandle* handle) { handle->eval(); }\n", lib)

	if s.HasClock {
		fmt.Fprintf(&b, "\nvoid %s_set_clk(ModuleHandle* handle, uint8_t value) {\n", lib)
		b.WriteString("    handle->clk = static_cast<uint8_t>(value & 0x1U);\n")
		b.WriteString("}\n")
	}
	if s.HasReset {
		fmt.Fprintf(&b, "\nvoid %s_set_rst(ModuleHandle* handle, uint8_t value) {\n", lib)
		b.WriteString("    handle->rst = static_cast<uint8_t>(value & 0x1U);\n")
		b.WriteString("}\n")
	}
	for _, p := range s.Inputs {
		fmt.Fprintf(&b, "\nvoid %s_set_%s(ModuleHandle* handle, %s value) {\n", lib, p.Name, p.CType)
		fmt.Fprintf(&b, "    handle->%s = static_cast<%s>(value);\n", p.Name, p.CType)
		b.WriteString("}\n")
	}
	for _, p := range s.Outputs {
		fmt.Fprintf(&b, "\n%s %s_get_%s(ModuleHandle* handle) {\n", p.CType, lib, p.Name)
		fmt.Fprintf(&b, "    return static_cast<%s>(handle->%s);\n", p.CType, p.Name)
		b.WriteString("}\n")
	}
	b.WriteString("\n}\n")
	return b.String()
}

// emitWrapper renders the typed host wrapper: a cgo binding that loads
// the prebuilt shared library on construction, resolves every entry
// point up front, and aborts with the attempted path if the artifact
// is missing or unloadable. The wrapper owns the opaque instance
// exclusively and releases it exactly once through Close.
func emitWrapper(s *PackageSpec) string {
	lib := s.LibraryID
	typ := s.WrapperType
	var b strings.Builder

	fmt.Fprintf(&b, "// Package %s binds the compiled %q model.\n", s.PackageID, s.Entity)
	b.WriteString("// Code generated for an external hardware module; do not edit.\n")
	fmt.Fprintf(&b, "package %s\n\n", s.PackageID)

	b.WriteString("/*\n")
	b.WriteString("#cgo LDFLAGS: -ldl\n")
	b.WriteString("#include <dlfcn.h>\n")
	b.WriteString("#include <stdint.h>\n")
	b.WriteString("#include <stdlib.h>\n\n")
	b.WriteString("typedef void *mh_t;\n\n")
	b.WriteString("static mh_t bridge_new(void *f) { return ((mh_t (*)(void))f)(); }\n")
	b.WriteString("static void bridge_free(void *f, mh_t h) { ((void (*)(mh_t))f)(h); }\n")
	b.WriteString("static void bridge_eval(void *f, mh_t h) { ((void (*)(mh_t))f)(h); }\n")
	if s.HasClock {
		b.WriteString("static void bridge_set_clk(void *f, mh_t h, uint8_t v) { ((void (*)(mh_t, uint8_t))f)(h, v); }\n")
	}
	if s.HasReset {
		b.WriteString("static void bridge_set_rst(void *f, mh_t h, uint8_t v) { ((void (*)(mh_t, uint8_t))f)(h, v); }\n")
	}
	for _, p := range s.Inputs {
		fmt.Fprintf(&b, "static void bridge_set_%s(void *f, mh_t h, %s v) { ((void (*)(mh_t, %s))f)(h, v); }\n",
			p.Name, p.CType, p.CType)
	}
	for _, p := range s.Outputs {
		fmt.Fprintf(&b, "static %s bridge_get_%s(void *f, mh_t h) { return ((%s (*)(mh_t))f)(h); }\n",
			p.CType, p.Name, p.CType)
	}
	b.WriteString("*/\n")
	b.WriteString("import \"C\"\n\n")
	b.WriteString("import (\n\t\"fmt\"\n\t\"unsafe\"\n)\n\n")

	fmt.Fprintf(&b, "// artifactPath is the absolute location of the compiled model,\n")
	fmt.Fprintf(&b, "// recorded at generation time.\nconst artifactPath = %q\n\n", s.Artifact)

	fmt.Fprintf(&b, "// %s owns one instance of the external %q model.\n", typ, s.Entity)
	fmt.Fprintf(&b, "type %s struct {\n", typ)
	b.WriteString("\tlib    unsafe.Pointer\n")
	b.WriteString("\tptr    C.mh_t\n")
	b.WriteString("\tclosed bool\n\n")
	b.WriteString("\tsymFree unsafe.Pointer\n")
	b.WriteString("\tsymEval unsafe.Pointer\n")
	if s.HasClock {
		b.WriteString("\tsymSetClk unsafe.Pointer\n")
	}
	if s.HasReset {
		b.WriteString("\tsymSetRst unsafe.Pointer\n")
	}
	for _, p := range s.Inputs {
		fmt.Fprintf(&b, "\tsymSet%s unsafe.Pointer\n", exportName(p.Name))
	}
	for _, p := range s.Outputs {
		fmt.Fprintf(&b, "\tsymGet%s unsafe.Pointer\n", exportName(p.Name))
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// New loads the compiled model and constructs one instance.\n")
	fmt.Fprintf(&b, "// A missing or unloadable artifact aborts immediately.\n")
	fmt.Fprintf(&b, "func New() *%s {\n", typ)
	b.WriteString("\tcpath := C.CString(artifactPath)\n")
	b.WriteString("\tdefer C.free(unsafe.Pointer(cpath))\n")
	b.WriteString("\tlib := C.dlopen(cpath, C.RTLD_NOW)\n")
	b.WriteString("\tif lib == nil {\n")
	b.WriteString("\t\tpanic(fmt.Sprintf(\"cannot load external model %s: %s\", artifactPath, C.GoString(C.dlerror())))\n")
	b.WriteString("\t}\n")
	fmt.Fprintf(&b, "\tm := &%s{lib: lib}\n", typ)
	fmt.Fprintf(&b, "\tm.symFree = mustSym(lib, %q)\n", lib+"_free")
	fmt.Fprintf(&b, "\tm.symEval = mustSym(lib, %q)\n", lib+"_eval")
	if s.HasClock {
		fmt.Fprintf(&b, "\tm.symSetClk = mustSym(lib, %q)\n", lib+"_set_clk")
	}
	if s.HasReset {
		fmt.Fprintf(&b, "\tm.symSetRst = mustSym(lib, %q)\n", lib+"_set_rst")
	}
	for _, p := range s.Inputs {
		fmt.Fprintf(&b, "\tm.symSet%s = mustSym(lib, %q)\n", exportName(p.Name), lib+"_set_"+p.Name)
	}
	for _, p := range s.Outputs {
		fmt.Fprintf(&b, "\tm.symGet%s = mustSym(lib, %q)\n", exportName(p.Name), lib+"_get_"+p.Name)
	}
	fmt.Fprintf(&b, "\tm.ptr = C.bridge_new(mustSym(lib, %q))\n", lib+"_new")
	b.WriteString("\tif m.ptr == nil {\n")
	fmt.Fprintf(&b, "\t\tpanic(\"%s_new returned null\")\n", lib)
	b.WriteString("\t}\n")
	if s.HasClock {
		b.WriteString("\tm.SetClock(false)\n")
	}
	if s.HasReset {
		b.WriteString("\tm.SetReset(false)\n")
	}
	b.WriteString("\treturn m\n}\n\n")

	b.WriteString("func mustSym(lib unsafe.Pointer, name string) unsafe.Pointer {\n")
	b.WriteString("\tcname := C.CString(name)\n")
	b.WriteString("\tdefer C.free(unsafe.Pointer(cname))\n")
	b.WriteString("\tsym := C.dlsym(lib, cname)\n")
	b.WriteString("\tif sym == nil {\n")
	b.WriteString("\t\tpanic(fmt.Sprintf(\"symbol %s missing from %s\", name, artifactPath))\n")
	b.WriteString("\t}\n")
	b.WriteString("\treturn sym\n}\n\n")

	fmt.Fprintf(&b, "// Close releases the model instance. Safe to call once only\n")
	fmt.Fprintf(&b, "// through any path; further calls are no-ops.\n")
	fmt.Fprintf(&b, "func (m *%s) Close() {\n", typ)
	b.WriteString("\tif m.closed {\n\t\treturn\n\t}\n")
	b.WriteString("\tm.closed = true\n")
	b.WriteString("\tC.bridge_free(m.symFree, m.ptr)\n")
	b.WriteString("\tC.dlclose(m.lib)\n")
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "// Eval re-evaluates the model with the currently driven inputs.\n")
	fmt.Fprintf(&b, "func (m *%s) Eval() { C.bridge_eval(m.symEval, m.ptr) }\n", typ)

	if s.HasClock {
		fmt.Fprintf(&b, "\nfunc (m *%s) SetClock(high bool) {\n", typ)
		b.WriteString("\tv := C.uint8_t(0)\n")
		b.WriteString("\tif high {\n\t\tv = 1\n\t}\n")
		b.WriteString("\tC.bridge_set_clk(m.symSetClk, m.ptr, v)\n}\n")
		fmt.Fprintf(&b, "\n// ClockTick performs one full low-to-high toggle with an\n")
		fmt.Fprintf(&b, "// evaluation on each edge.\n")
		fmt.Fprintf(&b, "func (m *%s) ClockTick() {\n", typ)
		b.WriteString("\tm.SetClock(false)\n\tm.Eval()\n\tm.SetClock(true)\n\tm.Eval()\n}\n")
	}
	if s.HasReset {
		fmt.Fprintf(&b, "\nfunc (m *%s) SetReset(high bool) {\n", typ)
		b.WriteString("\tv := C.uint8_t(0)\n")
		b.WriteString("\tif high {\n\t\tv = 1\n\t}\n")
		b.WriteString("\tC.bridge_set_rst(m.symSetRst, m.ptr, v)\n}\n")
		fmt.Fprintf(&b, "\n// ApplyReset asserts reset for the given number of cycles,\n")
		fmt.Fprintf(&b, "// then deasserts it.\n")
		fmt.Fprintf(&b, "func (m *%s) ApplyReset(cycles int) {\n", typ)
		b.WriteString("\tm.SetReset(true)\n")
		if s.HasClock {
			b.WriteString("\tif cycles < 1 {\n\t\tcycles = 1\n\t}\n")
			b.WriteString("\tfor i := 0; i < cycles; i++ {\n\t\tm.ClockTick()\n\t}\n")
			b.WriteString("\tm.SetReset(false)\n")
			b.WriteString("\tm.ClockTick()\n")
		} else {
			b.WriteString("\t_ = cycles\n")
			b.WriteString("\tm.Eval()\n")
			b.WriteString("\tm.SetReset(false)\n")
			b.WriteString("\tm.Eval()\n")
		}
		b.WriteString("}\n")
	}

	for _, p := range s.Inputs {
		fmt.Fprintf(&b, "\n// Set%s drives input port %q (%d bits).\n", exportName(p.Name), p.Name, p.Bits)
		fmt.Fprintf(&b, "func (m *%s) Set%s(v %s) { C.bridge_set_%s(m.symSet%s, m.ptr, C.%s(v)) }\n",
			typ, exportName(p.Name), p.GoType, p.Name, exportName(p.Name), p.CType)
	}
	for _, p := range s.Outputs {
		fmt.Fprintf(&b, "\n// Get%s observes output port %q (%d bits).\n", exportName(p.Name), p.Name, p.Bits)
		fmt.Fprintf(&b, "func (m *%s) Get%s() %s { return %s(C.bridge_get_%s(m.symGet%s, m.ptr)) }\n",
			typ, exportName(p.Name), p.GoType, p.GoType, p.Name, exportName(p.Name))
	}
	return b.String()
}

// exportName turns a sanitized port name into an exported Go suffix.
func exportName(port string) string { return WrapperTypeName(port) }
