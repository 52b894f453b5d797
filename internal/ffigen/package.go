package ffigen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"assassyn/internal/ir"
)

// PackageSpec describes one synthesized wrapper package on disk.
type PackageSpec struct {
	Module      string
	Entity      string
	PackageID   string
	LibraryID   string
	WrapperType string
	Dir         string
	SourceRel   string
	Inputs      []PortSpec
	Outputs     []PortSpec
	HasClock    bool
	HasReset    bool

	// Artifact is the absolute path the compiled shared library will
	// occupy after a successful link. Fixed at synthesis time so the
	// emitted wrapper can embed it.
	Artifact string
}

// BuildPlanName is the build descriptor file inside a wrapper package.
const BuildPlanName = "build.json"

// ArtifactSidecar holds the absolute artifact path after a build.
const ArtifactSidecar = "artifact.path"

// BuildPlan is the build descriptor consumed by the build pipeline.
type BuildPlan struct {
	Package  string `json:"package"`
	Library  string `json:"library"`
	Entity   string `json:"entity"`
	Source   string `json:"source"`
	Bridge   string `json:"bridge"`
	Artifact string `json:"artifact"`
}

// Synthesize produces the wrapper package for ext under workspace:
// the hardware source staged verbatim into rtl/, the C-ABI bridge,
// the typed host wrapper, and the build descriptor. Identifier
// collisions are resolved through reg.
func Synthesize(workspace string, ext *ir.ExternalModule, reg *Registry) (*PackageSpec, error) {
	if ext.SourcePath == "" {
		return nil, fmt.Errorf("external module %q has no source file", ext.Name)
	}

	pkgID := reg.Claim("verilated_" + Sanitize(ext.Entity))
	libID := reg.Claim(pkgID + "_ffi")
	spec := &PackageSpec{
		Module:      ext.Name,
		Entity:      ext.Entity,
		PackageID:   pkgID,
		LibraryID:   libID,
		WrapperType: WrapperTypeName(pkgID),
		Dir:         filepath.Join(workspace, pkgID),
		HasClock:    ext.HasClock,
		HasReset:    ext.HasReset,
	}

	for _, p := range ext.Ports() {
		ps, err := ResolvePort(p)
		if err != nil {
			return nil, fmt.Errorf("external module %q: %w", ext.Name, err)
		}
		ps.Name = Sanitize(ps.Name)
		if p.Dir == ir.DirInput {
			spec.Inputs = append(spec.Inputs, ps)
		} else {
			spec.Outputs = append(spec.Outputs, ps)
		}
	}

	abs, err := filepath.Abs(filepath.Join(spec.Dir, sharedLibName(libID)))
	if err != nil {
		return nil, fmt.Errorf("resolve artifact path: %w", err)
	}
	spec.Artifact = abs

	// The bridge lives outside the package dir proper so cgo never
	// tries to compile it; only the toolchain build consumes it.
	for _, sub := range []string{"rtl", "csrc"} {
		if err := os.MkdirAll(filepath.Join(spec.Dir, sub), 0o750); err != nil {
			return nil, fmt.Errorf("create package dir: %w", err)
		}
	}
	staged, err := stageSource(ext.SourcePath, filepath.Join(spec.Dir, "rtl"))
	if err != nil {
		return nil, fmt.Errorf("external module %q: %w", ext.Name, err)
	}
	spec.SourceRel = filepath.Join("rtl", staged)

	bridgeRel := filepath.Join("csrc", "bridge.cpp")
	if err := os.WriteFile(filepath.Join(spec.Dir, bridgeRel), []byte(emitBridge(spec)), 0o600); err != nil {
		return nil, fmt.Errorf("write bridge: %w", err)
	}
	if err := os.WriteFile(filepath.Join(spec.Dir, "wrapper.go"), []byte(emitWrapper(spec)), 0o600); err != nil {
		return nil, fmt.Errorf("write wrapper: %w", err)
	}

	plan := BuildPlan{
		Package:  spec.PackageID,
		Library:  spec.LibraryID,
		Entity:   spec.Entity,
		Source:   spec.SourceRel,
		Bridge:   bridgeRel,
		Artifact: sharedLibName(spec.LibraryID),
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode build plan: %w", err)
	}
	if err := os.WriteFile(filepath.Join(spec.Dir, BuildPlanName), append(data, '\n'), 0o600); err != nil {
		return nil, fmt.Errorf("write build plan: %w", err)
	}
	return spec, nil
}

// SynthesizeAll clears and recreates workspace, then synthesizes one
// wrapper package per external module through a fresh naming registry.
// Declaration order drives name assignment, so regenerating the same
// system yields identical identifiers.
func SynthesizeAll(workspace string, exts []*ir.ExternalModule) ([]*PackageSpec, error) {
	if err := os.RemoveAll(workspace); err != nil {
		return nil, fmt.Errorf("clear workspace: %w", err)
	}
	if err := os.MkdirAll(workspace, 0o750); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	reg := NewRegistry()
	specs := make([]*PackageSpec, 0, len(exts))
	for _, ext := range exts {
		spec, err := Synthesize(workspace, ext, reg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// LoadBuildPlan reads the build descriptor of a wrapper package dir.
func LoadBuildPlan(dir string) (*BuildPlan, error) {
	data, err := os.ReadFile(filepath.Join(dir, BuildPlanName)) // #nosec G304 -- generation workspace path
	if err != nil {
		return nil, fmt.Errorf("read build plan: %w", err)
	}
	var plan BuildPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse build plan in %s: %w", dir, err)
	}
	return &plan, nil
}

// ManifestEntry returns the manifest record for this package.
func (s *PackageSpec) ManifestEntry() ManifestEntry {
	e := ManifestEntry{
		Module:      s.Module,
		Entity:      s.Entity,
		PackageID:   s.PackageID,
		LibraryID:   s.LibraryID,
		WrapperType: s.WrapperType,
		Artifact:    s.Artifact,
		HasClock:    s.HasClock,
		HasReset:    s.HasReset,
	}
	for _, ports := range [][]PortSpec{s.Inputs, s.Outputs} {
		for _, p := range ports {
			e.Ports = append(e.Ports, ManifestPort{
				Name:      p.Name,
				Direction: p.Direction.String(),
				Width:     p.Bits,
				Signed:    p.Signed,
				Type:      p.GoType,
			})
		}
	}
	return e
}

func stageSource(src, dstDir string) (string, error) {
	in, err := os.Open(src) // #nosec G304 -- user-declared hardware source
	if err != nil {
		return "", fmt.Errorf("hardware source: %w", err)
	}
	defer func() { _ = in.Close() }()
	name := filepath.Base(src)
	out, err := os.Create(filepath.Join(dstDir, name)) // #nosec G304 -- generation workspace path
	if err != nil {
		return "", fmt.Errorf("stage hardware source: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("stage hardware source: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("stage hardware source: %w", err)
	}
	return name, nil
}

func sharedLibName(libID string) string {
	if runtime.GOOS == "darwin" {
		return "lib" + libID + ".dylib"
	}
	return "lib" + libID + ".so"
}
