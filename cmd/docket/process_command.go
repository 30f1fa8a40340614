package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/config"
	"docket/internal/notifications"
	"docket/internal/organizer"
	"docket/internal/preflight"
	"docket/internal/report"
	"docket/internal/services/pdftext"
	"docket/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "process [directory]",
		Short: "Classify, name, and file every document in a directory",
		Long: "Process runs the full pipeline over a directory (the configured inbox " +
			"by default): text extraction, metadata extraction, filename translation " +
			"where needed, and filing into per-supplier directories. Every move and " +
			"copy is recorded in the ledger and can be undone.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inputDir := cfg.Paths.InboxDir
			if len(args) == 1 {
				inputDir, err = config.ExpandPath(args[0])
				if err != nil {
					return err
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if !skipPreflight {
				if err := gatePreflight(runCtx, cfg, cmd); err != nil {
					return err
				}
			}

			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			cache, err := ctx.openCache()
			if err != nil {
				return fmt.Errorf("open translation cache: %w", err)
			}
			defer cache.Close()
			queue, err := ctx.openQueue()
			if err != nil {
				return fmt.Errorf("open retry queue: %w", err)
			}
			led, err := ctx.openLedger()
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}

			chain := ctx.buildChain(cache, logger)
			org := organizer.New(cfg, pdftext.Convert, ctx.buildExtractor(), chain, queue, led, logger)
			mgr := workflow.New(cfg, org, queue, chain, notifications.NewService(cfg), logger)

			stats, err := mgr.Run(runCtx, inputDir)
			if stats != nil {
				printRunStats(out, stats)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip environment checks before processing")
	return cmd
}

func printRunStats(out io.Writer, stats *report.Stats) {
	fmt.Fprintf(out, "Processed %d document(s) in %s: %d renamed, %d translated",
		stats.Processed, stats.Duration().Round(time.Second), stats.Renamed, stats.Translated)
	if stats.Degraded > 0 {
		fmt.Fprintf(out, " (%d via offline fallback)", stats.Degraded)
	}
	fmt.Fprintln(out)
	if stats.Retried > 0 {
		fmt.Fprintf(out, "Retried %d queued translation(s)\n", stats.Retried)
	}
	if stats.Failed > 0 {
		fmt.Fprintf(out, "%d document(s) failed (%d queued for retry):\n", stats.Failed, stats.Queued)
		for _, failure := range stats.Failures {
			fmt.Fprintf(out, "  %s: %s\n", failure.Name, failure.Error)
		}
	}
}

// gatePreflight aborts when a directory or disk check fails; service checks
// only warn, since the pipeline degrades through its fallback chain.
func gatePreflight(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	var blocked []string
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			continue
		}
		if strings.HasSuffix(result.Name, "directory") || strings.HasPrefix(result.Name, "State") {
			blocked = append(blocked, fmt.Sprintf("%s: %s", result.Name, result.Detail))
			continue
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, statusWarn, result.Detail, shouldColorize(out)))
	}
	if len(blocked) > 0 {
		return fmt.Errorf("preflight failed:\n  %s", strings.Join(blocked, "\n  "))
	}
	return nil
}
