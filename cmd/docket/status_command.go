package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/document"
	"docket/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, environment checks, and queue state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Inbox", statusInfo, cfg.Paths.InboxDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Processed", statusInfo, cfg.Paths.ProcessedDir, colorize))
			fmt.Fprintln(out, renderStatusLine("State", statusInfo, cfg.Paths.StateDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Providers", statusInfo,
				strings.Join(cfg.Translation.Providers, " -> ")+" -> static", colorize))
			fmt.Fprintln(out, renderStatusLine("Cache enabled", statusInfo, yesNo(cfg.Cache.Enabled), colorize))
			fmt.Fprintln(out, renderStatusLine("Retry budget", statusInfo,
				fmt.Sprintf("%d attempts, %dh apart", cfg.Retry.MaxAttempts, cfg.Retry.DelayHours), colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("State", colorize) {
				fmt.Fprintln(out, line)
			}
			now := time.Now().UTC()
			if queue, err := ctx.openQueue(); err == nil {
				summary := queue.Summarize(now)
				fmt.Fprintln(out, renderStatusLine("Retry queue", statusInfo,
					fmt.Sprintf("%d total (%d failed, %d retry-ready, %d skipped)",
						summary.Total(), summary.Failed, summary.RetryReady, summary.Skipped), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Retry queue", statusError, err.Error(), colorize))
			}
			if led, err := ctx.openLedger(); err == nil {
				if entries, err := led.Read(); err == nil {
					fmt.Fprintln(out, renderStatusLine("Ledger", statusInfo,
						fmt.Sprintf("%d entries at %s", len(entries), led.Path()), colorize))
				}
			}
			if cache, err := ctx.openCache(); err == nil && cache != nil {
				defer cache.Close()
				if stats, err := cache.Stats(cmd.Context()); err == nil {
					fmt.Fprintln(out, renderStatusLine("Translation cache", statusInfo,
						fmt.Sprintf("%d entries (%d expired)", stats.Entries, stats.Expired), colorize))
				}
			}

			if records, err := document.Discover(cfg.Paths.InboxDir, cfg.Naming.Extension); err == nil {
				unsafe := document.UnsafeNames(records)
				fmt.Fprintln(out, renderStatusLine("Inbox", statusInfo,
					fmt.Sprintf("%d document(s), %d with non-ASCII names", len(records), len(unsafe)), colorize))
			}
			return nil
		},
	}
}
