package buildpipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"assassyn/internal/analysis"
	"assassyn/internal/ffigen"
	"assassyn/internal/ir"
	"assassyn/internal/project"
	"assassyn/internal/simgen"
)

// ElaborateRequest configures one elaboration run.
type ElaborateRequest struct {
	System *ir.System
	Config *project.Config

	// VerilatorOverride and CXXOverride take precedence over both the
	// manifest and the environment.
	VerilatorOverride string
	CXXOverride       string

	PrintCommands bool
	Progress      ProgressSink
}

// ElaborateResult captures the run's artifacts and stage timings.
type ElaborateResult struct {
	Workspace    string
	ManifestPath string
	Builds       []PackageBuild
	Timings      Timings
}

// Elaborate runs the whole pipeline for one system: analysis,
// wrapper synthesis, toolchain builds, manifest write, simulator
// emission. Analysis and synthesis are single-threaded; only the
// independent per-package toolchain builds fan out.
func Elaborate(ctx context.Context, req *ElaborateRequest) (ElaborateResult, error) {
	var result ElaborateResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil || req.System == nil {
		return result, fmt.Errorf("missing system")
	}
	cfg := req.Config
	if cfg == nil {
		cfg = project.DefaultConfig(".")
	}
	sys := req.System
	workspace := cfg.WorkspaceDir()
	result.Workspace = workspace

	analyzeStart := time.Now()
	emitEvent(req.Progress, "", StageAnalyze, StatusWorking, nil, 0)
	exposure := analysis.AnalyzeExposure(sys)
	producers := analysis.BuildProducerMap(sys)
	result.Timings.Set(StageAnalyze, time.Since(analyzeStart))
	emitEvent(req.Progress, "", StageAnalyze, StatusDone, nil, result.Timings.Duration(StageAnalyze))
	log().Debug("analysis complete",
		zap.String("system", sys.Name),
		zap.Int("exposed", exposure.Len()),
		zap.Int("producers", producers.Len()))

	synthStart := time.Now()
	emitEvent(req.Progress, "", StageSynthesize, StatusWorking, nil, 0)
	specs, err := ffigen.SynthesizeAll(workspace, sys.Externals)
	if err != nil {
		emitEvent(req.Progress, "", StageSynthesize, StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(StageSynthesize, time.Since(synthStart))
	emitEvent(req.Progress, "", StageSynthesize, StatusDone, nil, result.Timings.Duration(StageSynthesize))

	if len(specs) > 0 {
		tc, err := ResolveToolchain(firstNonEmpty(req.VerilatorOverride, cfg.Build.Verilator), firstNonEmpty(req.CXXOverride, cfg.Build.CXX))
		if err != nil {
			return result, err
		}
		opts := BuildOptions{
			Jobs:          cfg.Build.Jobs,
			PrintCommands: req.PrintCommands,
			Progress:      req.Progress,
		}
		if cfg.Build.Cache {
			cache, cacheErr := OpenDiskCache("assassyn")
			if cacheErr != nil {
				log().Warn("build cache unavailable", zap.Error(cacheErr))
			} else {
				opts.Cache = cache
			}
		}
		builds, err := BuildAll(ctx, tc, specs, opts)
		if err != nil {
			return result, err
		}
		result.Builds = builds
		for _, b := range builds {
			result.Timings.Add(StageVerilate, b.Timings.Duration(StageVerilate))
			result.Timings.Add(StageCompile, b.Timings.Duration(StageCompile))
			result.Timings.Add(StageLink, b.Timings.Duration(StageLink))
		}
	}

	// The manifest is written only after every build succeeded, so a
	// failed run never leaves a partial manifest behind.
	var manifest ffigen.Manifest
	for _, spec := range specs {
		manifest.Add(spec.ManifestEntry())
	}
	manifestPath, err := manifest.Write(workspace)
	if err != nil {
		return result, err
	}
	result.ManifestPath = manifestPath

	emitStart := time.Now()
	emitEvent(req.Progress, "", StageEmit, StatusWorking, nil, 0)
	gen := &simgen.Generator{
		Sys:        sys,
		Exposure:   exposure,
		Producers:  producers,
		Manifest:   &manifest,
		ModulePath: simgen.ModuleName(sys.Name),
		Sim:        cfg.Simulator,
	}
	if err := simgen.WriteProject(workspace, gen); err != nil {
		emitEvent(req.Progress, "", StageEmit, StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(StageEmit, time.Since(emitStart))
	emitEvent(req.Progress, "", StageEmit, StatusDone, nil, result.Timings.Duration(StageEmit))
	return result, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
