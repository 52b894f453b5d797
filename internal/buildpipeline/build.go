// Package buildpipeline orchestrates elaboration: analysis over the
// module graph, wrapper package synthesis, the hardware toolchain
// invocations that produce shared libraries, and simulator emission.
package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"assassyn/internal/ffigen"
	"assassyn/internal/project"
)

// BuildOptions configures wrapper library builds.
type BuildOptions struct {
	// Jobs bounds concurrent package builds; values below two build
	// serially.
	Jobs int
	// Cache, when non-nil, is consulted before invoking the toolchain
	// and updated after a successful link.
	Cache *DiskCache
	// PrintCommands echoes every toolchain invocation to stdout.
	PrintCommands bool
	// Progress receives per-package stage events.
	Progress ProgressSink
}

// PackageBuild is the outcome of building one wrapper package.
type PackageBuild struct {
	Module   string
	Artifact string
	Cached   bool
	Timings  Timings
}

// BuildAll produces the shared library of every synthesized package.
// Packages are independent, so with Jobs above one they build
// concurrently; the returned slice keeps the input order either way.
func BuildAll(ctx context.Context, tc *Toolchain, specs []*ffigen.PackageSpec, opts BuildOptions) ([]PackageBuild, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]PackageBuild, len(specs))

	if opts.Jobs > 1 && len(specs) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Jobs)
		for i, spec := range specs {
			i, spec := i, spec
			g.Go(func() error {
				res, err := BuildPackage(gctx, tc, spec, opts)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	}

	for i, spec := range specs {
		res, err := BuildPackage(ctx, tc, spec, opts)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

// BuildPackage verilates, compiles, and links one wrapper package
// into its shared library, recording the artifact path in the
// package's sidecar file.
func BuildPackage(ctx context.Context, tc *Toolchain, spec *ffigen.PackageSpec, opts BuildOptions) (PackageBuild, error) {
	result := PackageBuild{Module: spec.Module, Artifact: spec.Artifact}

	plan, err := ffigen.LoadBuildPlan(spec.Dir)
	if err != nil {
		return result, err
	}

	var key project.Digest
	if opts.Cache != nil {
		key, err = buildKey(tc, spec.Dir, plan)
		if err != nil {
			return result, err
		}
		var cached CachedBuild
		hit, err := opts.Cache.Get(key, &cached)
		if err != nil {
			log().Warn("build cache read failed", zap.String("module", spec.Module), zap.Error(err))
		} else if hit && cached.Library == plan.Library && len(cached.Artifact) > 0 {
			if err := installArtifact(spec, cached.Artifact); err != nil {
				return result, err
			}
			result.Cached = true
			emitEvent(opts.Progress, spec.Module, StageLink, StatusCached, nil, 0)
			log().Debug("wrapper library restored from cache", zap.String("module", spec.Module))
			return result, nil
		}
	}

	objDir := filepath.Join(spec.Dir, "obj_dir")
	if err := verilate(ctx, tc, spec, plan, objDir, &result, opts); err != nil {
		return result, err
	}
	objs, err := compileObjects(ctx, tc, spec, plan, objDir, &result, opts)
	if err != nil {
		return result, err
	}
	if err := link(ctx, tc, spec, objs, &result, opts); err != nil {
		return result, err
	}

	data, err := os.ReadFile(spec.Artifact) // #nosec G304 -- generation workspace path
	if err != nil {
		return result, fmt.Errorf("read linked artifact: %w", err)
	}
	if err := installArtifact(spec, data); err != nil {
		return result, err
	}
	if opts.Cache != nil {
		if err := opts.Cache.Put(key, &CachedBuild{Library: plan.Library, Artifact: data}); err != nil {
			log().Warn("build cache write failed", zap.String("module", spec.Module), zap.Error(err))
		}
	}
	return result, nil
}

func verilate(ctx context.Context, tc *Toolchain, spec *ffigen.PackageSpec, plan *ffigen.BuildPlan, objDir string, result *PackageBuild, opts BuildOptions) error {
	start := time.Now()
	emitEvent(opts.Progress, spec.Module, StageVerilate, StatusWorking, nil, 0)

	args := []string{
		"--cc",
		"--top-module", plan.Entity,
		"--prefix", "V" + plan.Entity,
		"--Mdir", objDir,
		"-O3",
		filepath.Join(spec.Dir, plan.Source),
	}
	if err := runCommand(ctx, opts.PrintCommands, tc.Verilator, args...); err != nil {
		err = fmt.Errorf("verilate %q: %w", spec.Module, err)
		emitEvent(opts.Progress, spec.Module, StageVerilate, StatusError, err, 0)
		return err
	}
	elapsed := time.Since(start)
	result.Timings.Set(StageVerilate, elapsed)
	emitEvent(opts.Progress, spec.Module, StageVerilate, StatusDone, nil, elapsed)
	return nil
}

func compileObjects(ctx context.Context, tc *Toolchain, spec *ffigen.PackageSpec, plan *ffigen.BuildPlan, objDir string, result *PackageBuild, opts BuildOptions) ([]string, error) {
	start := time.Now()
	emitEvent(opts.Progress, spec.Module, StageCompile, StatusWorking, nil, 0)

	generated, err := filepath.Glob(filepath.Join(objDir, "*.cpp"))
	if err != nil {
		return nil, fmt.Errorf("enumerate verilated sources: %w", err)
	}
	if len(generated) == 0 {
		err = fmt.Errorf("verilator produced no C++ sources for %q in %s", spec.Module, objDir)
		emitEvent(opts.Progress, spec.Module, StageCompile, StatusError, err, 0)
		return nil, err
	}
	sort.Strings(generated)

	sources := append(generated, filepath.Join(spec.Dir, plan.Bridge))
	sources = append(sources, tc.RuntimeSources()...)

	common := []string{"-c", "-std=c++17", "-O2", "-fPIC", "-I", objDir}
	for _, inc := range tc.IncludeDirs() {
		common = append(common, "-I", inc)
	}

	objs := make([]string, 0, len(sources))
	for _, src := range sources {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		obj := filepath.Join(objDir, base+".o")
		args := append(append([]string{}, common...), src, "-o", obj)
		if err := runCommand(ctx, opts.PrintCommands, tc.CXX, args...); err != nil {
			err = fmt.Errorf("compile %s for %q: %w", filepath.Base(src), spec.Module, err)
			emitEvent(opts.Progress, spec.Module, StageCompile, StatusError, err, 0)
			return nil, err
		}
		objs = append(objs, obj)
	}
	elapsed := time.Since(start)
	result.Timings.Set(StageCompile, elapsed)
	emitEvent(opts.Progress, spec.Module, StageCompile, StatusDone, nil, elapsed)
	return objs, nil
}

func link(ctx context.Context, tc *Toolchain, spec *ffigen.PackageSpec, objs []string, result *PackageBuild, opts BuildOptions) error {
	start := time.Now()
	emitEvent(opts.Progress, spec.Module, StageLink, StatusWorking, nil, 0)

	args := append([]string{"-shared", "-o", spec.Artifact}, objs...)
	args = append(args, "-pthread")
	if err := runCommand(ctx, opts.PrintCommands, tc.CXX, args...); err != nil {
		err = fmt.Errorf("link %q: %w", spec.Module, err)
		emitEvent(opts.Progress, spec.Module, StageLink, StatusError, err, 0)
		return err
	}
	elapsed := time.Since(start)
	result.Timings.Set(StageLink, elapsed)
	emitEvent(opts.Progress, spec.Module, StageLink, StatusDone, nil, elapsed)
	return nil
}

// installArtifact writes the shared library to its recorded path and
// the sidecar the generated wrapper and simulator resolve at startup.
func installArtifact(spec *ffigen.PackageSpec, data []byte) error {
	if err := os.WriteFile(spec.Artifact, data, 0o600); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	sidecar := filepath.Join(spec.Dir, ffigen.ArtifactSidecar)
	if err := os.WriteFile(sidecar, []byte(spec.Artifact+"\n"), 0o600); err != nil {
		return fmt.Errorf("write artifact sidecar: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, printCommands bool, name string, args ...string) error {
	if printCommands {
		if _, err := fmt.Fprintf(os.Stdout, "%s %s\n", name, strings.Join(args, " ")); err != nil {
			return fmt.Errorf("failed to print command: %w", err)
		}
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return err
		}
		return fmt.Errorf("%s: %s", name, msg)
	}
	return nil
}
