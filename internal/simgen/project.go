package simgen

import (
	"fmt"
	"os"
	"path/filepath"

	"assassyn/internal/ffigen"
)

// ModuleName derives the generated simulator's module path from the
// system name.
func ModuleName(system string) string {
	return ffigen.Sanitize(system) + "_sim"
}

// WriteProject renders the simulator and writes a self-contained Go
// module into the workspace root: go.mod plus main.go, next to the
// wrapper package directories the synthesizer already produced there.
func WriteProject(workspace string, g *Generator) error {
	src, err := g.EmitMain()
	if err != nil {
		return err
	}
	gomod := fmt.Sprintf("module %s\n\ngo 1.25\n", g.ModulePath)
	if err := os.WriteFile(filepath.Join(workspace, "go.mod"), []byte(gomod), 0o600); err != nil {
		return fmt.Errorf("write generated go.mod: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, "main.go"), []byte(src), 0o600); err != nil {
		return fmt.Errorf("write generated simulator: %w", err)
	}
	return nil
}
