// Package project holds the elaboration project configuration:
// the assassyn.toml manifest and content hashing used by the build
// cache.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the project manifest name searched for from the
// working directory upward.
const ManifestFile = "assassyn.toml"

// SimulatorConfig tunes the generated simulator's run loop.
type SimulatorConfig struct {
	// SimThreshold caps the number of simulated cycles.
	SimThreshold int `toml:"sim_threshold"`
	// IdleThreshold stops the run after this many consecutive cycles
	// with no module triggered.
	IdleThreshold int `toml:"idle_threshold"`
	// ResetCycles is how long reset stays asserted on clocked
	// external modules before the run begins.
	ResetCycles int `toml:"reset_cycles"`
}

// BuildConfig tunes the hardware toolchain invocation.
type BuildConfig struct {
	// Jobs bounds concurrent wrapper builds; zero or one is serial.
	Jobs int `toml:"jobs"`
	// Verilator overrides toolchain discovery with an explicit binary.
	Verilator string `toml:"verilator"`
	// CXX overrides C++ compiler discovery with an explicit binary.
	CXX string `toml:"cxx"`
	// Cache disables the artifact cache when false.
	Cache bool `toml:"cache"`
}

// Config is the parsed project manifest.
type Config struct {
	Project struct {
		Name string `toml:"name"`
		// Workspace is where generated packages and the simulator
		// land, relative to the manifest directory.
		Workspace string `toml:"workspace"`
	} `toml:"project"`
	Simulator SimulatorConfig `toml:"simulator"`
	Build     BuildConfig     `toml:"build"`

	// Root is the directory containing the manifest.
	Root string `toml:"-"`
}

// DefaultConfig returns the configuration used when no manifest is
// present, rooted at dir.
func DefaultConfig(dir string) *Config {
	cfg := &Config{Root: dir}
	cfg.Project.Name = "sim"
	cfg.Project.Workspace = "generated"
	cfg.Simulator.SimThreshold = 100
	cfg.Simulator.IdleThreshold = 50
	cfg.Simulator.ResetCycles = 1
	cfg.Build.Cache = true
	return cfg
}

// LoadConfig parses a manifest file. Absent keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig(filepath.Dir(path))
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("build", "cache") {
		cfg.Build.Cache = true
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = "sim"
	}
	if cfg.Project.Workspace == "" {
		cfg.Project.Workspace = "generated"
	}
	if cfg.Simulator.SimThreshold <= 0 {
		return nil, fmt.Errorf("%s: sim_threshold must be positive", path)
	}
	if cfg.Simulator.IdleThreshold <= 0 {
		return nil, fmt.Errorf("%s: idle_threshold must be positive", path)
	}
	if cfg.Simulator.ResetCycles < 0 {
		return nil, fmt.Errorf("%s: reset_cycles must not be negative", path)
	}
	if cfg.Build.Jobs < 0 {
		return nil, fmt.Errorf("%s: jobs must not be negative", path)
	}
	return cfg, nil
}

// FindManifest walks up from startDir to locate the project manifest.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest manifest above startDir, falling back to
// defaults rooted at startDir when none exists.
func Discover(startDir string) (*Config, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		abs, absErr := filepath.Abs(startDir)
		if absErr != nil {
			abs = startDir
		}
		return DefaultConfig(abs), nil
	}
	return LoadConfig(path)
}

// WorkspaceDir resolves the generation workspace to an absolute path.
func (c *Config) WorkspaceDir() string {
	if filepath.IsAbs(c.Project.Workspace) {
		return c.Project.Workspace
	}
	return filepath.Join(c.Root, c.Project.Workspace)
}
