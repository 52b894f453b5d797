package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"assassyn/internal/buildpipeline"
	"assassyn/internal/observ"
	"assassyn/internal/project"
)

var elaborateCmd = &cobra.Command{
	Use:   "elaborate [flags] [design]",
	Short: "Elaborate a design into a simulator workspace",
	Long: `Elaborate one of the built-in demo designs (see "assassyn demos"):
analyze its module graph, synthesize FFI wrapper packages for the
external modules, build their Verilated shared libraries, and emit the
simulator sources into the project workspace.`,
	Args: cobra.MaximumNArgs(1),
	RunE: elaborateExecution,
}

func init() {
	elaborateCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	elaborateCmd.Flags().Int("jobs", 0, "parallel library builds (0 = manifest default)")
	elaborateCmd.Flags().String("verilator", "", "verilator binary override")
	elaborateCmd.Flags().String("cxx", "", "C++ compiler override")
	elaborateCmd.Flags().Bool("print-commands", false, "print toolchain commands")
}

func elaborateExecution(cmd *cobra.Command, args []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	verilatorOverride, err := cmd.Flags().GetString("verilator")
	if err != nil {
		return err
	}
	cxxOverride, err := cmd.Flags().GetString("cxx")
	if err != nil {
		return err
	}
	printCommands, err := cmd.Flags().GetBool("print-commands")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	designName := "adder"
	if len(args) > 0 {
		designName = args[0]
	}
	design, ok := demoByName(designName)
	if !ok {
		return fmt.Errorf("unknown design %q (run \"assassyn demos\" for the list)", designName)
	}

	timer := observ.NewTimer()

	phase := timer.Begin("configure")
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := project.Discover(cwd)
	if err != nil {
		return err
	}
	if jobs > 0 {
		cfg.Build.Jobs = jobs
	}
	timer.End(phase, cfg.Root)

	phase = timer.Begin("construct")
	rtlDir := filepath.Join(cfg.Root, "rtl")
	if err := design.writeRTL(rtlDir); err != nil {
		return err
	}
	sys, err := design.Build(rtlDir)
	if err != nil {
		return err
	}
	timer.End(phase, fmt.Sprintf("%d modules, %d externals", len(sys.AllModules()), len(sys.Externals)))

	units := make([]string, 0, len(sys.Externals))
	for _, ext := range sys.Externals {
		units = append(units, ext.Name)
	}

	req := buildpipeline.ElaborateRequest{
		System:            sys,
		Config:            cfg,
		VerilatorOverride: verilatorOverride,
		CXXOverride:       cxxOverride,
		PrintCommands:     printCommands,
	}

	phase = timer.Begin("elaborate")
	var res buildpipeline.ElaborateResult
	if shouldUseTUI(uiModeValue) && len(units) > 0 {
		res, err = runElaborateWithUI(cmd.Context(), "assassyn elaborate "+design.Name, units, &req)
	} else {
		req.Progress = buildpipeline.LogSink{}
		res, err = buildpipeline.Elaborate(cmd.Context(), &req)
	}
	timer.End(phase, "")
	if err != nil {
		printStageTimings(os.Stdout, res.Timings)
		return err
	}

	for _, b := range res.Builds {
		label := "built"
		if b.Cached {
			label = "cached"
		}
		if _, err := fmt.Fprintf(os.Stdout, "%s %s -> %s\n", label, b.Module, formatPathForOutput(cfg.Root, b.Artifact)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(os.Stdout, "workspace %s\n", formatPathForOutput(cfg.Root, res.Workspace)); err != nil {
		return err
	}

	if showTimings {
		printStageTimings(os.Stdout, res.Timings)
		if _, err := fmt.Fprint(os.Stdout, timer.Summary()); err != nil {
			return err
		}
	}
	return nil
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if len(rel) >= 2 && rel[:2] == ".." {
		return path
	}
	return filepath.ToSlash(rel)
}
