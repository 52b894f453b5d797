package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"assassyn/internal/buildpipeline"
	"assassyn/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove the generated workspace and the build cache",
	Long:  "Remove the project's generated workspace directory and drop the shared Verilator build cache.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(_ *cobra.Command, args []string) error {
	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	cfg, err := project.Discover(baseDir)
	if err != nil {
		return err
	}

	workspace := cfg.WorkspaceDir()
	info, err := os.Stat(workspace)
	switch {
	case errors.Is(err, os.ErrNotExist):
		_, _ = fmt.Fprintf(os.Stdout, "workspace not found\n")
	case err != nil:
		return fmt.Errorf("failed to stat %q: %w", workspace, err)
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", workspace)
	default:
		if err := os.RemoveAll(workspace); err != nil {
			return fmt.Errorf("failed to remove %q: %w", workspace, err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "removed %s\n", formatPathForOutput(cfg.Root, workspace))
	}

	cache, err := buildpipeline.OpenDiskCache("assassyn")
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop build cache: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "dropped build cache")
	return nil
}
