// Package main implements the assassyn CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"assassyn/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "assassyn",
	Short: "Assassyn simulator generator",
	Long:  `Assassyn elaborates hardware designs into runnable software simulators, wrapping Verilator-built external modules behind generated FFI packages.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(elaborateCmd)
	rootCmd.AddCommand(demosCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
