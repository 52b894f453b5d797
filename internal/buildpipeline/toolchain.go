package buildpipeline

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Environment variables consulted during toolchain discovery.
const (
	// EnvVerilatorRoot must point at a Verilator installation; its
	// include tree supplies the runtime sources compiled into every
	// wrapper library.
	EnvVerilatorRoot = "VERILATOR_ROOT"
	// EnvVerilator optionally overrides the verilator binary.
	EnvVerilator = "ASSASSYN_VERILATOR"
	// EnvCXX optionally overrides the C++ compiler.
	EnvCXX = "ASSASSYN_CXX"
)

// Toolchain holds the resolved external tools for wrapper builds.
type Toolchain struct {
	Verilator     string
	VerilatorRoot string
	CXX           string
}

// ResolveToolchain locates verilator and a C++ compiler, validating
// the Verilator installation before any per-module work starts. The
// explicit arguments, when non-empty, take precedence over the
// environment.
func ResolveToolchain(verilatorOverride, cxxOverride string) (*Toolchain, error) {
	tc := &Toolchain{}

	root := os.Getenv(EnvVerilatorRoot)
	if root == "" {
		return nil, fmt.Errorf("%s is not set; point it at your Verilator installation", EnvVerilatorRoot)
	}
	include := filepath.Join(root, "include", "verilated.h")
	if _, err := os.Stat(include); err != nil {
		return nil, fmt.Errorf("%s=%q does not look like a Verilator installation: missing %s", EnvVerilatorRoot, root, include)
	}
	tc.VerilatorRoot = root

	verilator := verilatorOverride
	if verilator == "" {
		verilator = os.Getenv(EnvVerilator)
	}
	if verilator == "" {
		path, err := exec.LookPath("verilator")
		if err != nil {
			return nil, fmt.Errorf("verilator not found in PATH; install it or set %s", EnvVerilator)
		}
		verilator = path
	} else if _, err := exec.LookPath(verilator); err != nil {
		return nil, fmt.Errorf("verilator binary %q not usable: %w", verilator, err)
	}
	tc.Verilator = verilator

	cxx, err := resolveCXX(cxxOverride)
	if err != nil {
		return nil, err
	}
	tc.CXX = cxx
	return tc, nil
}

func resolveCXX(override string) (string, error) {
	candidates := []string{override, os.Getenv(EnvCXX), os.Getenv("CXX")}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		path, err := exec.LookPath(c)
		if err != nil {
			return "", fmt.Errorf("C++ compiler %q not usable: %w", c, err)
		}
		return path, nil
	}
	for _, c := range []string{"c++", "g++", "clang++"} {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no C++ compiler found; install g++ or clang++, or set %s", EnvCXX)
}

// IncludeDirs returns the Verilator include directories needed to
// compile translated models.
func (tc *Toolchain) IncludeDirs() []string {
	return []string{
		filepath.Join(tc.VerilatorRoot, "include"),
		filepath.Join(tc.VerilatorRoot, "include", "vltstd"),
	}
}

// RuntimeSources returns the Verilator runtime translation units
// linked into every wrapper library.
func (tc *Toolchain) RuntimeSources() []string {
	return []string{
		filepath.Join(tc.VerilatorRoot, "include", "verilated.cpp"),
		filepath.Join(tc.VerilatorRoot, "include", "verilated_threads.cpp"),
	}
}
