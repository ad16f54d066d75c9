package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Station-Manager/logpipe"
	"github.com/Station-Manager/logpipe/config"
	"github.com/Station-Manager/logpipe/logctx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	pipeCategory    string
	pipeLevel       string
	pipeCorrelation string
	pipeStats       bool
)

// pipeCmd logs every input line as one entry
var pipeCmd = &cobra.Command{
	Use:   "pipe [file]",
	Short: "Log each line of a file or stdin",
	Long: `Log each line of a file or stdin as one entry.

All lines of a run share one correlation id and carry their line number as
the "line" property.

Examples:
  # Ship a build log through the pipeline
  make 2>&1 | logpipe pipe -c logpipe.yaml --category Build

  # Replay a file at warn level under a fixed correlation id
  logpipe pipe -c logpipe.yaml --level warn --correlation-id deploy-42 out.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipe,
}

func init() {
	pipeCmd.Flags().StringVar(&pipeCategory, "category", "logpipe", "category of the entries")
	pipeCmd.Flags().StringVar(&pipeLevel, "level", "info", "level of the entries")
	pipeCmd.Flags().StringVar(&pipeCorrelation, "correlation-id", "", "correlation id (generated when empty)")
	pipeCmd.Flags().BoolVar(&pipeStats, "stats", false, "print pipeline counters to stderr on exit")
}

func runPipe(cmd *cobra.Command, args []string) error {
	level, err := logpipe.ParseLevel(pipeLevel)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	svc, err := cfg.Build(reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "logpipe: closing pipeline: %v\n", err)
		}
		if pipeStats {
			printStats(reg)
		}
	}()

	log, err := svc.Logger(pipeCategory)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var corr *logctx.Handle
	if pipeCorrelation != "" {
		ctx, corr = logctx.SetCorrelationID(ctx, pipeCorrelation)
	} else {
		ctx, corr = logctx.EnsureCorrelationID(ctx)
	}
	defer corr.Close()

	return pipeLines(ctx, log, level, in)
}

// pipeLines logs each line of in at level, inside a scope carrying its line
// number.
func pipeLines(ctx context.Context, log *logpipe.Logger, level logpipe.Level, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		lineCtx, scope := logctx.NewScope(ctx)
		_ = logctx.AddProperty(lineCtx, "line", n)
		log.Log(lineCtx, level, scanner.Text(), nil)
		_ = scope.Close()
	}
	if err := scanner.Err(); err != nil {
		log.ErrorWith(ctx).Err(err).Int("lines", n).Msg("reading input")
		return err
	}
	return nil
}

func printStats(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logpipe: gathering metrics: %v\n", err)
		return
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(os.Stderr, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
		}
	}
}
