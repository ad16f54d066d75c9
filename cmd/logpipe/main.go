// Package main implements the logpipe CLI, which feeds lines from stdin or a
// file through a configured logging pipeline.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML or JSON pipeline description.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "logpipe",
	Short: "Route text through a logpipe logging pipeline",
	Long: `logpipe loads a pipeline description (filter rules, sinks and enrichers)
and writes entries through it. It is useful for checking a configuration and
for shipping the output of other programs into rotated log files.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "pipeline config file (.yaml or .json)")
	rootCmd.AddCommand(pipeCmd)
	rootCmd.AddCommand(checkCmd)
}
