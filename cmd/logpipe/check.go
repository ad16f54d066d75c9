package main

import (
	"fmt"

	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/logpipe/config"
	"github.com/spf13/cobra"
)

// checkCmd validates a config and shows the level each category resolves to
var checkCmd = &cobra.Command{
	Use:   "check [category...]",
	Short: "Validate a pipeline config",
	Long: `Validate a pipeline config and print the minimum level each given
category resolves to.

Examples:
  logpipe check -c logpipe.yaml App.Services.User App.Data`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rules, err := cfg.Level.Rules()
	if err != nil {
		return err
	}
	filter := logpipe.NewLevelFilter(rules)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config ok (default level %s)\n", filter.DefaultLevel())
	for _, category := range args {
		fmt.Fprintf(out, "%s: %s\n", category, filter.MinimumLevel(category))
	}
	return nil
}
