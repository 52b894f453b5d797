package main

import (
	"fmt"
	"io"
	"time"

	"assassyn/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageAnalyze) {
		fmt.Fprintf(out, "analyzed %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageAnalyze)))
	}
	if timings.Has(buildpipeline.StageSynthesize) {
		fmt.Fprintf(out, "synthesized %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageSynthesize)))
	}
	if timings.Has(buildpipeline.StageVerilate) || timings.Has(buildpipeline.StageCompile) || timings.Has(buildpipeline.StageLink) {
		built := timings.Sum(buildpipeline.StageVerilate, buildpipeline.StageCompile, buildpipeline.StageLink)
		fmt.Fprintf(out, "built %.1f ms\n", toMillis(built))
	}
	if timings.Has(buildpipeline.StageEmit) {
		fmt.Fprintf(out, "emitted %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageEmit)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
